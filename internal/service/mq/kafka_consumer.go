package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"vault-bridge/pkg/logger"
)

// KafkaConsumer 每个主题一个 Reader, 处理成功后手动提交 offset
type KafkaConsumer struct {
	brokers []string
	groupID string

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID string) *KafkaConsumer {
	return &KafkaConsumer{brokers: brokers, groupID: groupID}
}

// Subscribe 阻塞消费直到 ctx 结束
// handler 失败时原地重试, 超过 maxAttempts 次后记录并跳过
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()
	defer reader.Close()

	log := logger.With(zap.String("topic", topic), zap.String("group", c.groupID))
	log.Info("kafka consumer started")

	const maxAttempts = 3
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("fetch message failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		msg := &Message{
			ID:      fmt.Sprintf("%d-%d", m.Partition, m.Offset),
			Topic:   topic,
			Key:     string(m.Key),
			Payload: m.Value,
		}

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err = handler(msg); err == nil {
				break
			}
			log.Warn("handler failed", zap.String("id", msg.ID), zap.Int("attempt", attempt), zap.Error(err))
		}
		if err != nil {
			log.Error("giving up on message", zap.String("id", msg.ID), zap.String("key", msg.Key))
		}

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			log.Warn("commit offset failed", zap.String("id", msg.ID), zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.readers = nil
	return first
}
