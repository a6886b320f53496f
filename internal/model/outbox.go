package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// NewOutboxMessage 把事件编码为待发送的 outbox 行
func NewOutboxMessage(topic, key string, event interface{}) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode outbox event for %s: %w", topic, err)
	}
	return &OutboxMessage{
		Topic:   topic,
		Key:     key,
		Payload: payload,
		Status:  OutboxPending,
	}, nil
}

// AppendOutbox 在调用方的事务内写入 outbox, 与业务数据一起提交或回滚
func AppendOutbox(tx *gorm.DB, topic, key string, event interface{}) error {
	msg, err := NewOutboxMessage(topic, key, event)
	if err != nil {
		return err
	}
	return tx.Create(msg).Error
}

// FailureUpdates 记录一次发送失败; 达到 maxAttempts 后置为 FAILED 不再重试
func (m *OutboxMessage) FailureUpdates(maxAttempts int) map[string]interface{} {
	updates := map[string]interface{}{"attempts": m.Attempts + 1}
	if m.Attempts+1 >= maxAttempts {
		updates["status"] = OutboxFailed
	}
	return updates
}
