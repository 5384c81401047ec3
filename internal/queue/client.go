// Package queue carries sync messages over a Redis stream consumed by a
// consumer group. Every delivered entry is acknowledged once the dispatcher
// has handled it; failures are recorded on the job, not by redelivery.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stacklok/nodesync/internal/config"
)

const (
	// BodyField is the stream entry field holding the JSON message.
	BodyField = "body"

	connectTimeout = 2 * time.Second
)

// Client wraps a Redis client with the stream naming of one deployment.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient connects to the Redis server named in cfg.
func NewClient(ctx context.Context, cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("queue configuration is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewClientFromRedis(rdb, cfg.GetStreamPrefix()), nil
}

// NewClientFromRedis wraps an existing Redis client.
func NewClientFromRedis(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = config.DefaultStreamPrefix
	}
	return &Client{rdb: rdb, prefix: prefix}
}

// Stream returns the key of the job stream.
func (c *Client) Stream() string {
	return c.prefix + ":jobs"
}

// EnsureGroup creates the consumer group, and the stream with it, if missing.
func (c *Client) EnsureGroup(ctx context.Context, group string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.Stream(), group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", group, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
