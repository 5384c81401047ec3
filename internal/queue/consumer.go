package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stacklok/nodesync/internal/config"
	nodesync "github.com/stacklok/nodesync/internal/sync"
)

// Handler runs a batch of messages. *sync.Dispatcher implements it.
type Handler interface {
	HandleBatch(ctx context.Context, msgs []nodesync.Message) []nodesync.Disposition
}

// Consumer reads the job stream as one member of a consumer group and hands
// batches to a Handler.
type Consumer struct {
	client  *Client
	handler Handler

	group        string
	consumerID   string
	blockTimeout time.Duration
	batchSize    int64
	claimIdle    time.Duration

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// ConsumerOption configures a Consumer
type ConsumerOption func(*Consumer)

// WithConsumerConfig applies group, naming and read settings from configuration.
func WithConsumerConfig(cfg *config.QueueConfig) ConsumerOption {
	return func(c *Consumer) {
		if cfg == nil {
			return
		}
		c.group = cfg.GetConsumerGroup()
		c.consumerID = cfg.GetConsumerID()
		c.blockTimeout = cfg.GetBlockTimeout()
		c.batchSize = cfg.GetBatchSize()
		c.claimIdle = cfg.GetClaimIdle()
	}
}

// WithConsumerID sets the consumer name within the group.
func WithConsumerID(id string) ConsumerOption {
	return func(c *Consumer) {
		c.consumerID = id
	}
}

// WithBlockTimeout sets how long a read waits for new entries.
func WithBlockTimeout(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.blockTimeout = d
	}
}

// WithClaimIdle sets the idle time after which entries pending on another
// consumer are taken over.
func WithClaimIdle(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.claimIdle = d
	}
}

// NewConsumer creates a Consumer with the default group settings.
func NewConsumer(client *Client, handler Handler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:       client,
		handler:      handler,
		group:        config.DefaultConsumerGroup,
		consumerID:   "nodesync",
		blockTimeout: config.DefaultQueueBlockTimeout,
		batchSize:    config.DefaultQueueBatchSize,
		claimIdle:    config.DefaultQueueClaimIdle,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes the stream until ctx is cancelled or Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Starting queue consumer",
		"stream", c.client.Stream(),
		"group", c.group,
		"consumer", c.consumerID)

	consumerCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		close(c.done)
		slog.Info("Queue consumer shutting down")
	}()

	if err := c.client.EnsureGroup(consumerCtx, c.group); err != nil {
		return err
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = 30 * time.Second

	for {
		_, err := c.Poll(consumerCtx)
		if consumerCtx.Err() != nil {
			slog.Info("Queue consumer stopping")
			return nil
		}
		if err == nil {
			retry.Reset()
			continue
		}

		wait := retry.NextBackOff()
		slog.Error("Failed to read job stream", "error", err, "retry_in", wait)
		select {
		case <-time.After(wait):
		case <-consumerCtx.Done():
			slog.Info("Queue consumer stopping")
			return nil
		}
	}
}

// Stop cancels Start and waits for the in-flight batch to finish.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping queue consumer")
		cancel()
		<-c.done
	}
	return nil
}

// Poll handles one batch: stale entries of other consumers first, otherwise
// new entries, waiting up to the block timeout. It returns the number of
// entries acknowledged.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	entries, err := c.reclaim(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		entries, err = c.read(ctx)
		if err != nil {
			return 0, err
		}
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return c.process(ctx, entries)
}

func (c *Consumer) reclaim(ctx context.Context) ([]redis.XMessage, error) {
	entries, _, err := c.client.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.client.Stream(),
		Group:    c.group,
		Consumer: c.consumerID,
		MinIdle:  c.claimIdle,
		Start:    "0-0",
		Count:    c.batchSize,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reclaim pending entries: %w", err)
	}
	if len(entries) > 0 {
		slog.Info("Reclaimed stale queue entries", "count", len(entries))
	}
	return entries, nil
}

func (c *Consumer) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := c.client.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumerID,
		Streams:  []string{c.client.Stream(), ">"},
		Count:    c.batchSize,
		Block:    c.blockTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream %s: %w", c.client.Stream(), err)
	}

	var entries []redis.XMessage
	for _, s := range streams {
		entries = append(entries, s.Messages...)
	}
	return entries, nil
}

// process decodes entries, runs the valid ones and acknowledges all of them.
// Malformed entries are logged and dropped.
func (c *Consumer) process(ctx context.Context, entries []redis.XMessage) (int, error) {
	ids := make([]string, 0, len(entries))
	msgs := make([]nodesync.Message, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)

		body, ok := e.Values[BodyField].(string)
		if !ok {
			slog.Warn("Dropping queue entry without body", "entry_id", e.ID)
			continue
		}
		m, err := nodesync.DecodeMessage([]byte(body))
		if err != nil {
			slog.Warn("Dropping malformed queue entry", "entry_id", e.ID, "error", err)
			continue
		}
		msgs = append(msgs, m)
	}

	if len(msgs) > 0 {
		stop := c.keepAlive(ctx, ids)
		dispositions := c.handler.HandleBatch(ctx, msgs)
		stop()
		for i, d := range dispositions {
			slog.Debug("Handled message", "job", msgs[i].JobUUID, "type", msgs[i].Type, "disposition", d)
		}
	}

	// Entries are acknowledged even while shutting down.
	ackCtx := context.WithoutCancel(ctx)
	if err := c.client.rdb.XAck(ackCtx, c.client.Stream(), c.group, ids...).Err(); err != nil {
		return 0, fmt.Errorf("failed to acknowledge %d entries: %w", len(ids), err)
	}
	return len(ids), nil
}

// keepAlive re-claims ids for this consumer while a batch runs, which keeps
// their idle time below claimIdle so no other consumer takes them over.
// The returned func stops the refresh and waits for it.
func (c *Consumer) keepAlive(ctx context.Context, ids []string) func() {
	interval := c.claimIdle / 3
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := c.client.rdb.XClaimJustID(ctx, &redis.XClaimArgs{
					Stream:   c.client.Stream(),
					Group:    c.group,
					Consumer: c.consumerID,
					MinIdle:  0,
					Messages: ids,
				}).Err()
				if err != nil && ctx.Err() == nil {
					slog.Warn("Failed to refresh pending queue entries", "count", len(ids), "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
