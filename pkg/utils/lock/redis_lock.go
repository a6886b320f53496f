package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vault-bridge/pkg/safe_random"
)

const keyPrefix = "bridge:lock:"

// DistributedLock 多实例互斥
type DistributedLock interface {
	// Acquire 尝试获取锁, 已被其他持有者占用时返回 false
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release 仅释放自己持有的锁
	Release(ctx context.Context, key string) error
}

// 值与持有者一致才删除
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock SET NX PX + 持有者令牌
type RedisLock struct {
	client *redis.Client
	owner  string
}

func NewRedisLock(client *redis.Client) (*RedisLock, error) {
	owner, err := safe_random.HexString(16)
	if err != nil {
		return nil, fmt.Errorf("lock owner token: %w", err)
	}
	return &RedisLock{client: client, owner: owner}, nil
}

func (l *RedisLock) Owner() string {
	return l.owner
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{keyPrefix + key}, l.owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
