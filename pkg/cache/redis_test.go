package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 设置 BRIDGE_TEST_REDIS_ADDR (如 localhost:6379) 后运行
func newRedisCache(t *testing.T) (*RedisCache, *redis.Client) {
	t.Helper()
	addr := os.Getenv("BRIDGE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BRIDGE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewRedisCache(client, "bridge-test:"+t.Name()+":"), client
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	var got addressEntry
	assert.ErrorIs(t, c.Get(ctx, "missing", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", addressEntry{Address: "0xabc"}, time.Minute))
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "0xabc", got.Address)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestRedisCacheDropsCorruptEntry(t *testing.T) {
	c, client := newRedisCache(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, c.key("bad"), "{", time.Minute).Err())

	var got addressEntry
	assert.ErrorIs(t, c.Get(ctx, "bad", &got), ErrCacheMiss)
	assert.Equal(t, int64(0), client.Exists(ctx, c.key("bad")).Val())
}
