package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"salesclutch/internal/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// callProcessTimeout bounds one processing attempt: download, transcribe,
// analyze, persist.
const callProcessTimeout = 10 * time.Minute

// Enqueuer is the producer side seam the calls service depends on.
type Enqueuer interface {
	EnqueueCallProcess(ctx context.Context, payload CallProcessPayload) error
}

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCallProcess queues one call for background processing. Retries
// are bounded; a call whose attempts are exhausted stays in its last
// recorded status rather than looping forever.
func (c *Client) EnqueueCallProcess(ctx context.Context, payload CallProcessPayload) error {
	task, err := NewCallProcessTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(3),
		asynq.Timeout(callProcessTimeout),
	)
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		tlsConfig = opt.TLSConfig.Clone()
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

var _ Enqueuer = (*Client)(nil)
