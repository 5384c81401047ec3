package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_Checkpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		pacer     Pacer
		index     int
		wantPause bool
	}{
		{name: "zero pacer never pauses", pacer: Pacer{}, index: 0},
		{name: "negative delay disables", pacer: Pacer{Every: 1, Delay: -time.Second}, index: 0},
		{name: "first item pauses", pacer: Pacer{Every: 10, Delay: 20 * time.Millisecond}, index: 0, wantPause: true},
		{name: "multiple of every pauses", pacer: Pacer{Every: 10, Delay: 20 * time.Millisecond}, index: 20, wantPause: true},
		{name: "other items do not pause", pacer: Pacer{Every: 10, Delay: time.Second}, index: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start := time.Now()
			require.NoError(t, tt.pacer.Checkpoint(context.Background(), tt.index))
			elapsed := time.Since(start)
			if tt.wantPause {
				assert.GreaterOrEqual(t, elapsed, tt.pacer.Delay)
			} else {
				assert.Less(t, elapsed, 500*time.Millisecond)
			}
		})
	}
}

func TestPacer_CheckpointCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Pacer{Every: 1, Delay: time.Hour}
	require.ErrorIs(t, p.Checkpoint(ctx, 0), context.Canceled)
	require.ErrorIs(t, Pacer{}.Checkpoint(ctx, 3), context.Canceled)
}
