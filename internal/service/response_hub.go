package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"vault-bridge/internal/event"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/crypto_util"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/requestid"
	"vault-bridge/pkg/sigverify"
)

const (
	responseSignature = "signature"
	responseRead      = "read"
)

// ErrResponseTimeout 等待签名服务响应超时
var ErrResponseTimeout = errno.Errno{Code: 10006, Message: "timed out waiting for signer response"}

// ResponseHub 订阅签名服务的两个响应主题, 按请求 ID 交给等待方
// 响应在保留期内一直可读, 先到的响应和重试的中继任务都从缓存取; 重投的消息按内容指纹去重
type ResponseHub struct {
	consumer       mq.Consumer
	signatureTopic string
	readTopic      string

	mu        sync.Mutex
	waiters   map[string][]chan []byte
	responses *gocache.Cache
	seen      *gocache.Cache
}

func NewResponseHub(consumer mq.Consumer, signatureTopic, readTopic string, retention time.Duration) *ResponseHub {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &ResponseHub{
		consumer:       consumer,
		signatureTopic: signatureTopic,
		readTopic:      readTopic,
		waiters:        make(map[string][]chan []byte),
		responses:      gocache.New(retention, retention/2),
		seen:           gocache.New(retention, retention/2),
	}
}

// Run 阻塞订阅两个主题直到 ctx 结束
func (h *ResponseHub) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	subscribe := func(topic string, handler mq.Handler) {
		defer wg.Done()
		if err := h.consumer.Subscribe(ctx, topic, handler); err != nil {
			errs <- fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	wg.Add(2)
	go subscribe(h.signatureTopic, h.HandleSignature)
	go subscribe(h.readTopic, h.HandleRead)
	wg.Wait()
	close(errs)
	return <-errs
}

func waitKey(kind, requestID string) string {
	return kind + ":" + requestID
}

// HandleSignature 处理 SignatureResponded
func (h *ResponseHub) HandleSignature(msg *mq.Message) error {
	var ev event.SignatureResponded
	if err := msg.Decode(&ev); err != nil {
		logger.Warn("drop malformed signature response", zap.String("id", msg.ID), zap.Error(err))
		return nil
	}
	h.deliver(responseSignature, ev.RequestID, msg.Payload)
	return nil
}

// HandleRead 处理 ReadResponded
func (h *ResponseHub) HandleRead(msg *mq.Message) error {
	var ev event.ReadResponded
	if err := msg.Decode(&ev); err != nil {
		logger.Warn("drop malformed read response", zap.String("id", msg.ID), zap.Error(err))
		return nil
	}
	h.deliver(responseRead, ev.RequestID, msg.Payload)
	return nil
}

func (h *ResponseHub) deliver(kind, rawID string, payload []byte) {
	id, err := requestid.ParseID(rawID)
	if err != nil {
		logger.Warn("drop response with invalid request id", zap.String("kind", kind), zap.String("request_id", rawID))
		return
	}
	key := waitKey(kind, id.Hex())

	fingerprint := crypto_util.Blake3([]byte(key), payload)
	fp := hex.EncodeToString(fingerprint[:])
	if err := h.seen.Add(fp, struct{}{}, gocache.DefaultExpiration); err != nil {
		logger.Debug("duplicate response ignored", zap.String("kind", kind), zap.String("request_id", id.Hex()))
		return
	}

	h.mu.Lock()
	waiters := h.waiters[key]
	delete(h.waiters, key)
	h.responses.SetDefault(key, payload)
	h.mu.Unlock()

	for _, ch := range waiters {
		ch <- payload
	}
}

func (h *ResponseHub) wait(ctx context.Context, kind string, id requestid.ID, timeout time.Duration) ([]byte, error) {
	key := waitKey(kind, id.Hex())

	h.mu.Lock()
	if v, ok := h.responses.Get(key); ok {
		h.mu.Unlock()
		return v.([]byte), nil
	}
	ch := make(chan []byte, 1)
	h.waiters[key] = append(h.waiters[key], ch)
	h.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-ch:
		return payload, nil
	case <-timer.C:
		h.cancel(key, ch)
		return nil, fmt.Errorf("%w: %s response for %s after %s", ErrResponseTimeout, kind, id, timeout)
	case <-ctx.Done():
		h.cancel(key, ch)
		return nil, ctx.Err()
	}
}

func (h *ResponseHub) cancel(key string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	waiters := h.waiters[key]
	for i, c := range waiters {
		if c == ch {
			h.waiters[key] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(h.waiters[key]) == 0 {
		delete(h.waiters, key)
	}
}

// WaitSignature 等待交易签名
func (h *ResponseHub) WaitSignature(ctx context.Context, id requestid.ID, timeout time.Duration) (sigverify.Signature, error) {
	payload, err := h.wait(ctx, responseSignature, id, timeout)
	if err != nil {
		return sigverify.Signature{}, err
	}
	var ev event.SignatureResponded
	if err := json.Unmarshal(payload, &ev); err != nil {
		return sigverify.Signature{}, fmt.Errorf("%w: %v", errno.ErrSerialization, err)
	}
	return ev.Signature.Decode()
}

// WaitRead 等待执行结果及其签名
func (h *ResponseHub) WaitRead(ctx context.Context, id requestid.ID, timeout time.Duration) ([]byte, sigverify.Signature, error) {
	payload, err := h.wait(ctx, responseRead, id, timeout)
	if err != nil {
		return nil, sigverify.Signature{}, err
	}
	var ev event.ReadResponded
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, sigverify.Signature{}, fmt.Errorf("%w: %v", errno.ErrSerialization, err)
	}
	sig, err := ev.Signature.Decode()
	if err != nil {
		return nil, sigverify.Signature{}, err
	}
	return ev.SerializedOutput, sig, nil
}
