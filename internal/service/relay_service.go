package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"vault-bridge/internal/model"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/logger"
)

// RelayService 把 outbox 表中已提交的事件搬运到 MQ (PostgresStore 使用)
// 发送成功后才标记 SENT, 至少一次投递, 消费方按请求 ID 幂等
type RelayService struct {
	db          *gorm.DB
	producer    mq.Producer
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewRelayService(db *gorm.DB, producer mq.Producer) *RelayService {
	return &RelayService{
		db:          db,
		producer:    producer,
		interval:    500 * time.Millisecond,
		batchSize:   50,
		maxAttempts: 10,
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("outbox relay started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *RelayService) processPendingMessages(ctx context.Context) int {
	var messages []model.OutboxMessage
	err := s.db.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id").
		Limit(s.batchSize).
		Find(&messages).Error
	if err != nil {
		logger.Error("load outbox messages failed", zap.Error(err))
		return 0
	}

	sent := 0
	for i := range messages {
		msg := &messages[i]
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			s.markFailedAttempt(ctx, msg, err)
			// 保持同一分区键的顺序, 本轮不再发送后续消息
			break
		}
		if err := s.db.WithContext(ctx).Model(msg).Update("status", model.OutboxSent).Error; err != nil {
			logger.Error("mark outbox message sent failed", zap.Uint64("id", msg.ID), zap.Error(err))
			break
		}
		sent++
	}
	if sent > 0 {
		logger.Debug("outbox messages relayed", zap.Int("count", sent))
	}
	return sent
}

func (s *RelayService) markFailedAttempt(ctx context.Context, msg *model.OutboxMessage, cause error) {
	updates := msg.FailureUpdates(s.maxAttempts)
	logger.Warn("publish outbox message failed",
		zap.Uint64("id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.Any("attempts", updates["attempts"]),
		zap.Error(cause),
	)
	if err := s.db.WithContext(ctx).Model(msg).Updates(updates).Error; err != nil {
		logger.Error("record outbox attempt failed", zap.Uint64("id", msg.ID), zap.Error(err))
	}
}
