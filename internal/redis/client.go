package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

// Client announces saved postcards on a pub/sub channel and appends them to
// a capped stream, so a print station can pick them up live or catch up later.
type Client struct {
	client *redis.Client
	config config.RedisConfig
	logger *zap.Logger
	ctx    context.Context
}

// NewClient creates a new Redis client and checks the connection
func NewClient(cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
		PoolTimeout:  10 * time.Second,
	})

	ctx := context.Background()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", cfg.Addr),
		zap.String("channel", cfg.Channel),
		zap.String("stream", cfg.Stream))

	return &Client{
		client: rdb,
		config: cfg,
		logger: logger,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// PublishPostcard publishes the event to the channel and appends it to the
// stream. Both are attempted; the first error is returned.
func (c *Client) PublishPostcard(ctx context.Context, event *models.PostcardEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal postcard event: %w", err)
	}

	var firstErr error

	if err := c.client.Publish(ctx, c.config.Channel, body).Err(); err != nil {
		firstErr = fmt.Errorf("failed to publish to Redis channel %s: %w", c.config.Channel, err)
	}

	if c.config.Stream != "" {
		args := &redis.XAddArgs{
			Stream: c.config.Stream,
			Values: map[string]interface{}{
				"filename": event.Filename,
				"tier":     event.Tier,
				"event":    string(body),
			},
		}
		if c.config.StreamMaxLen > 0 {
			args.MaxLen = c.config.StreamMaxLen
			args.Approx = true
		}
		if err := c.client.XAdd(ctx, args).Err(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to append to Redis stream %s: %w", c.config.Stream, err)
		}
	}

	if firstErr != nil {
		return firstErr
	}

	c.logger.Debug("Published postcard event",
		zap.String("channel", c.config.Channel),
		zap.String("filename", event.Filename),
		zap.String("tier", event.Tier))

	return nil
}

// IsHealthy checks if Redis connection is healthy
func (c *Client) IsHealthy() bool {
	return c.client.Ping(c.ctx).Err() == nil
}
