package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/telemetry"
)

// Message asks a worker to run the pass of one job.
type Message struct {
	JobUUID    string `json:"job_uuid"`
	Type       string `json:"type"`
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
}

// DecodeMessage parses a JSON message body.
func DecodeMessage(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return m, fmt.Errorf("invalid message body: %w", err)
	}
	return m, nil
}

// Disposition is what the dispatcher did with a message.
type Disposition string

// Dispositions
const (
	DispositionCompleted Disposition = "completed"
	DispositionFailed    Disposition = "failed"
	DispositionUnhandled Disposition = "unhandled"
	DispositionSkipped   Disposition = "skipped"
	DispositionUnknown   Disposition = "unknown_job"
)

// Passes runs the sync passes. *Orchestrator implements it.
//
//go:generate mockgen -destination=mocks/mock_passes.go -package=mocks -source=dispatcher.go Passes
type Passes interface {
	CreateNodes(ctx context.Context, clusterUUID, jobUUID string) error
	UpdateNodes(ctx context.Context, clusterUUID, jobUUID string) error
	UpdateNodeStatuses(ctx context.Context, clusterUUID, jobUUID string) error
}

var _ Passes = (*Orchestrator)(nil)

// Dispatcher routes messages to passes. Failures end up on the job record;
// callers always acknowledge the message afterwards.
type Dispatcher struct {
	passes      Passes
	ledger      job.Ledger
	metrics     *telemetry.SyncMetrics
	concurrency int
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDispatcherMetrics sets the metrics recorder for handled messages.
func WithDispatcherMetrics(m *telemetry.SyncMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithConcurrency caps the number of jobs HandleBatch runs at once. Zero or
// less means one goroutine per message.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.concurrency = n
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(passes Passes, ledger job.Ledger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{passes: passes, ledger: ledger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs the pass named by m. Jobs that already finished are not run again.
func (d *Dispatcher) Handle(ctx context.Context, m Message) (disposition Disposition) {
	logger := slog.With(
		"job", m.JobUUID,
		"type", m.Type,
		"target_id", m.TargetID,
		"target_type", m.TargetType)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Pass panicked", "panic", r)
			d.fail(ctx, m.JobUUID, fmt.Sprintf("panic: %v", r))
			disposition = DispositionFailed
		}
		d.metrics.RecordMessage(ctx, m.Type, string(disposition))
	}()

	run := d.route(m)
	if run == nil {
		logger.Warn("Unhandled message type")
		d.fail(ctx, m.JobUUID, ErrUnhandledMessage.Error())
		return DispositionUnhandled
	}

	j, err := d.ledger.GetByUUID(ctx, m.JobUUID)
	switch {
	case errors.Is(err, job.ErrNotFound):
		logger.Warn("Message references unknown job")
		return DispositionUnknown
	case err != nil:
		// The pass reports its own ledger failures; run it anyway.
		logger.Warn("Failed to load job before dispatch", "error", err)
	case j.Status.IsTerminal():
		logger.Info("Job already finished, skipping redelivered message", "status", j.Status)
		return DispositionSkipped
	}

	if err := run(ctx, m.TargetID, m.JobUUID); err != nil {
		return DispositionFailed
	}
	return DispositionCompleted
}

// HandleBatch handles messages concurrently and waits for all of them.
func (d *Dispatcher) HandleBatch(ctx context.Context, msgs []Message) []Disposition {
	out := make([]Disposition, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, m := range msgs {
		g.Go(func() error {
			out[i] = d.Handle(gctx, m)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (d *Dispatcher) route(m Message) func(ctx context.Context, clusterUUID, jobUUID string) error {
	if m.TargetType != job.TargetTypeClusters {
		return nil
	}
	switch job.Type(m.Type) {
	case job.TypeCreateNodes:
		return d.passes.CreateNodes
	case job.TypeUpdateNodes:
		return d.passes.UpdateNodes
	case job.TypeUpdateNodeStatuses:
		return d.passes.UpdateNodeStatuses
	default:
		return nil
	}
}

func (d *Dispatcher) fail(ctx context.Context, jobUUID, message string) {
	if jobUUID == "" {
		return
	}
	if err := d.ledger.MarkFailed(context.WithoutCancel(ctx), jobUUID, message); err != nil {
		slog.Error("Failed to mark job failed", "job", jobUUID, "error", err)
	}
}
