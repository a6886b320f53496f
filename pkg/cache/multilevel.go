package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"vault-bridge/pkg/logger"
)

// MultiLevelCache L1 进程内 + L2 Redis
// L1 的 TTL 不超过 localTTL, 避免多实例间长时间不一致
type MultiLevelCache struct {
	local    Cache
	remote   Cache
	localTTL time.Duration
}

func NewMultiLevelCache(local, remote Cache, localTTL time.Duration) *MultiLevelCache {
	if localTTL <= 0 {
		localTTL = time.Minute
	}
	return &MultiLevelCache{local: local, remote: remote, localTTL: localTTL}
}

func (m *MultiLevelCache) l1TTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > m.localTTL {
		return m.localTTL
	}
	return ttl
}

func (m *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := m.local.Set(ctx, key, value, m.l1TTL(ttl)); err != nil {
		logger.Warn("l1 cache set failed", zap.String("key", key), zap.Error(err))
	}
	return m.remote.Set(ctx, key, value, ttl)
}

func (m *MultiLevelCache) Get(ctx context.Context, key string, target interface{}) error {
	if err := m.local.Get(ctx, key, target); err == nil {
		return nil
	}

	err := m.remote.Get(ctx, key, target)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.Warn("l2 cache get failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	// L2 命中, 回写 L1
	_ = m.local.Set(ctx, key, target, m.localTTL)
	return nil
}

func (m *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = m.local.Delete(ctx, key)
	return m.remote.Delete(ctx, key)
}
