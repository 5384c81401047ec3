package job

import (
	"context"
	"fmt"
)

// Batcher buffers processed-item counts and writes them to a Ledger in batches.
// It is not safe for concurrent use; a pass owns its batcher.
type Batcher struct {
	ledger    Ledger
	jobUUID   string
	threshold int64
	pending   int64
}

// NewBatcher creates a Batcher that flushes every threshold items.
// A threshold below one flushes on every item.
func NewBatcher(ledger Ledger, jobUUID string, threshold int) *Batcher {
	if threshold < 1 {
		threshold = 1
	}
	return &Batcher{
		ledger:    ledger,
		jobUUID:   jobUUID,
		threshold: int64(threshold),
	}
}

// Tick counts one processed item and flushes when the threshold is reached or
// isLast is true.
func (b *Batcher) Tick(ctx context.Context, isLast bool) error {
	b.pending++
	if b.pending >= b.threshold || isLast {
		return b.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered count. The buffer is kept if the write fails.
func (b *Batcher) Flush(ctx context.Context) error {
	if b.pending == 0 {
		return nil
	}
	if err := b.ledger.AddProcessed(ctx, b.jobUUID, b.pending); err != nil {
		return fmt.Errorf("failed to record progress for job %s: %w", b.jobUUID, err)
	}
	b.pending = 0
	return nil
}
