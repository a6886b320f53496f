package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/logger"
)

// Stream 字段名
const (
	fieldKey     = "key"
	fieldPayload = "payload"
)

// RedisProducer 基于 Redis Streams 的 Producer
type RedisProducer struct {
	client *redis.Client
	maxLen int64
}

// NewRedisProducer maxLen > 0 时按近似长度裁剪 stream
func NewRedisProducer(client *redis.Client, maxLen int64) *RedisProducer {
	return &RedisProducer{client: client, maxLen: maxLen}
}

// Publish XADD 到以 topic 命名的 stream
func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			fieldKey:     key,
			fieldPayload: payload,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		logger.Error("redis xadd failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: xadd %s: %v", errno.ErrQueue, topic, err)
	}
	return nil
}

// RedisConsumer 基于消费者组的 Consumer, 处理成功才 XACK
type RedisConsumer struct {
	client *redis.Client
	group  string
	name   string
	block  time.Duration
}

func NewRedisConsumer(client *redis.Client, group, name string) *RedisConsumer {
	return &RedisConsumer{
		client: client,
		group:  group,
		name:   name,
		block:  2 * time.Second,
	}
}

// Subscribe 阻塞消费直到 ctx 结束
// 未 ACK 的消息留在 PEL 中, 重启后先消费自己的 pending 再读新消息
func (c *RedisConsumer) Subscribe(ctx context.Context, topic string, handler Handler) error {
	err := c.client.XGroupCreateMkStream(ctx, topic, c.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("%w: create group %s on %s: %v", errno.ErrQueue, c.group, topic, err)
	}

	log := logger.With(zap.String("topic", topic), zap.String("group", c.group), zap.String("consumer", c.name))
	log.Info("redis stream consumer started")

	// "0" 读取本消费者的 pending 列表, 读空后切换为 ">"
	cursor := "0"
	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{topic, cursor},
			Count:    16,
			Block:    c.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("xreadgroup failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		delivered := 0
		for _, stream := range streams {
			for _, x := range stream.Messages {
				delivered++
				msg, ok := decodeStreamMessage(topic, x)
				if !ok {
					log.Warn("drop malformed stream entry", zap.String("id", x.ID))
					c.ack(ctx, topic, x.ID)
					continue
				}
				if err := handler(msg); err != nil {
					log.Warn("handler failed, entry stays pending", zap.String("id", x.ID), zap.Error(err))
					continue
				}
				c.ack(ctx, topic, x.ID)
			}
		}
		if cursor == "0" && delivered == 0 {
			cursor = ">"
		}
	}
}

func decodeStreamMessage(topic string, x redis.XMessage) (*Message, bool) {
	payload, ok := x.Values[fieldPayload].(string)
	if !ok {
		return nil, false
	}
	key, _ := x.Values[fieldKey].(string)
	return &Message{
		ID:      x.ID,
		Topic:   topic,
		Key:     key,
		Payload: []byte(payload),
	}, true
}

func (c *RedisConsumer) ack(ctx context.Context, topic, id string) {
	if err := c.client.XAck(ctx, topic, c.group, id).Err(); err != nil {
		logger.Warn("xack failed", zap.String("topic", topic), zap.String("id", id), zap.Error(err))
	}
}

// Close 客户端由调用方共享, 这里不关闭
func (c *RedisConsumer) Close() error {
	return nil
}
