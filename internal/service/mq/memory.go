package mq

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

var ErrBrokerClosed = errors.New("mq: broker closed")

// MemoryBroker 进程内的 Producer/Consumer 实现
// 单机部署 (store.kind=memory) 与测试使用; 已发布的消息会保留, 晚订阅者也能收到
type MemoryBroker struct {
	mu       sync.Mutex
	seq      uint64
	messages map[string][]*Message
	subs     map[string][]chan *Message
	closed   bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		messages: make(map[string][]*Message),
		subs:     make(map[string][]chan *Message),
	}
}

// Publish 追加消息并投递给当前订阅者
func (b *MemoryBroker) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	b.seq++
	msg := &Message{
		ID:      strconv.FormatUint(b.seq, 10),
		Topic:   topic,
		Key:     key,
		Payload: append([]byte(nil), payload...),
	}
	b.messages[topic] = append(b.messages[topic], msg)
	subs := append([]chan *Message(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe 先回放已有消息, 再阻塞处理新消息直到 ctx 结束
// handler 返回 error 时该消息会立即重投一次
func (b *MemoryBroker) Subscribe(ctx context.Context, topic string, handler Handler) error {
	ch := make(chan *Message, 64)

	b.mu.Lock()
	backlog := append([]*Message(nil), b.messages[topic]...)
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()
	defer b.unsubscribe(topic, ch)

	deliver := func(msg *Message) {
		if err := handler(msg); err != nil {
			_ = handler(msg)
		}
	}

	for _, msg := range backlog {
		deliver(msg)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			deliver(msg)
		}
	}
}

func (b *MemoryBroker) unsubscribe(topic string, ch chan *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, c := range subs {
		if c == ch {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Messages 返回某主题已发布的消息 (副本)
func (b *MemoryBroker) Messages(topic string) []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Message(nil), b.messages[topic]...)
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
