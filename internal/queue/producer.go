package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	nodesync "github.com/stacklok/nodesync/internal/sync"
)

const defaultMaxStreamLen = 10000

// Producer publishes sync messages.
type Producer struct {
	client       *Client
	maxStreamLen int64
}

// NewProducer creates a Producer. A maxStreamLen of zero or less keeps the
// stream trimmed to about ten thousand entries.
func NewProducer(client *Client, maxStreamLen int64) *Producer {
	if maxStreamLen <= 0 {
		maxStreamLen = defaultMaxStreamLen
	}
	return &Producer{client: client, maxStreamLen: maxStreamLen}
}

// Publish appends m to the job stream and returns the entry ID.
func (p *Producer) Publish(ctx context.Context, m nodesync.Message) (string, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	id, err := p.client.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.client.Stream(),
		MaxLen: p.maxStreamLen,
		Approx: true,
		Values: map[string]any{BodyField: string(body)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish message for job %s: %w", m.JobUUID, err)
	}
	return id, nil
}
