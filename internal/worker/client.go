package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"vault-bridge/internal/worker/tasks"
	"vault-bridge/pkg/config"
)

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// Client 封装 Asynq Client
type Client struct {
	client  *asynq.Client
	timeout time.Duration
}

// NewClient timeout 为单个中继任务的执行上限
func NewClient(cfg config.RedisConfig, timeout time.Duration) *Client {
	return &Client{client: asynq.NewClient(redisOpt(cfg)), timeout: timeout}
}

// EnqueueRelay 入队中继任务; 同一请求已在队列中时返回 (nil, nil)
func (c *Client) EnqueueRelay(ctx context.Context, op, requestID string, serializedTx []byte) (*asynq.TaskInfo, error) {
	task, err := tasks.NewRelayTask(op, requestID, serializedTx, c.timeout)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if tasks.IsDuplicate(err) {
		return nil, nil
	}
	return info, err
}

func (c *Client) Close() error {
	return c.client.Close()
}
