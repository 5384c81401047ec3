package sync

import (
	"context"
	"time"
)

// Pacer pauses a pass every Every items for Delay. A zero Pacer never pauses.
type Pacer struct {
	Every int
	Delay time.Duration
}

// Checkpoint sleeps when i is a multiple of Every, including the first item.
// It returns ctx.Err() if the context ends while waiting.
func (p Pacer) Checkpoint(ctx context.Context, i int) error {
	if p.Every <= 0 || p.Delay <= 0 || i%p.Every != 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
