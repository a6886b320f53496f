package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/logger"
)

// KafkaProducer 基于 kafka-go Writer 的 Producer
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer Writer 不绑定 topic, 每条消息自带 topic
func NewKafkaProducer(brokers []string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{}, // 同一请求 ID 落在同一分区, 保证顺序
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error("kafka write failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: kafka write %s: %v", errno.ErrQueue, topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
