package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vault-bridge/pkg/logger"
)

// RedisCache L2 缓存, 多实例共享派生结果
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache prefix 隔离键空间, 例如 "bridge:" 得到 "bridge:address:<user>"
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Get 无法解码的旧值视为未命中并删除, 由调用方重新加载
func (c *RedisCache) Get(ctx context.Context, key string, target interface{}) error {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		logger.Warn("drop undecodable cache entry", zap.String("key", c.key(key)), zap.Error(err))
		_ = c.client.Del(ctx, c.key(key)).Err()
		return ErrCacheMiss
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}
