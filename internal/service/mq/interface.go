package mq

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message 总线上的一条协议事件
// Key 为请求 ID (0x hex), 同一请求的事件落在同一分区, 消费方按它做幂等
type Message struct {
	ID      string // 传输层消息 ID (Redis Stream ID / Kafka partition-offset)
	Topic   string
	Key     string
	Payload []byte // JSON
}

// Decode 把 JSON payload 解析到 v
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s message %s: %w", m.Topic, m.ID, err)
	}
	return nil
}

// Handler 返回 error 时消息不确认, 由传输层重投
type Handler func(msg *Message) error

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

type Consumer interface {
	// Subscribe 阻塞处理消息直到 ctx 结束
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Broker 可发可收的实现 (MemoryBroker)
type Broker interface {
	Producer
	Consumer
}

// PublishJSON 以 JSON 编码 v 后发布
func PublishJSON(ctx context.Context, p Producer, topic, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", topic, err)
	}
	return p.Publish(ctx, topic, key, payload)
}
