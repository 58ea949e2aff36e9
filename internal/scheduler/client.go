package scheduler

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/spec-kit/lead-router/internal/config"
)

// Client enqueues scan tasks onto the shared queue.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient builds an enqueue-side client over the shared redis instance.
func NewClient(redisCfg config.RedisConfig, queue string) *Client {
	if queue == "" {
		queue = "default"
	}
	return &Client{
		client: asynq.NewClient(redisClientOpt(redisCfg)),
		queue:  queue,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueOverdueScan queues an overdue scan for one organization.
func (c *Client) EnqueueOverdueScan(ctx context.Context, payload OverdueScanPayload) error {
	task, err := NewOverdueScanTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
