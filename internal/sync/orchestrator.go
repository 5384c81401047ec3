package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/config"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/otel"
	"github.com/stacklok/nodesync/internal/profile"
	"github.com/stacklok/nodesync/internal/telemetry"
)

// TracerName is the name used for the sync tracer
const TracerName = "github.com/stacklok/nodesync/sync"

// Orchestrator runs sync passes against one set of stores.
type Orchestrator struct {
	nodes    node.Store
	clusters node.ClusterStore
	ledger   job.Ledger
	gateway  profile.Gateway

	pacer            Pacer
	batchSize        int
	recheckBatchSize int

	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPacer sets the pacing of long passes.
func WithPacer(p Pacer) Option {
	return func(o *Orchestrator) {
		o.pacer = p
	}
}

// WithBatchSizes sets the progress flush thresholds. Values below one keep the defaults.
func WithBatchSizes(batchSize, recheckBatchSize int) Option {
	return func(o *Orchestrator) {
		if batchSize > 0 {
			o.batchSize = batchSize
		}
		if recheckBatchSize > 0 {
			o.recheckBatchSize = recheckBatchSize
		}
	}
}

// WithSyncConfig applies pacing and batch sizes from configuration.
func WithSyncConfig(cfg config.SyncConfig) Option {
	return func(o *Orchestrator) {
		every, delay := cfg.Pacing()
		o.pacer = Pacer{Every: every, Delay: delay}
		o.batchSize = cfg.GetBatchSize()
		o.recheckBatchSize = cfg.GetRecheckBatchSize()
	}
}

// WithMetrics sets the sync metrics recorder.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for pass spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithClock overrides the time source used for pass start times.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator. Without options it flushes progress
// every config.DefaultBatchSize items and never pauses.
func NewOrchestrator(
	nodes node.Store,
	clusters node.ClusterStore,
	ledger job.Ledger,
	gateway profile.Gateway,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		nodes:            nodes,
		clusters:         clusters,
		ledger:           ledger,
		gateway:          gateway,
		batchSize:        config.DefaultBatchSize,
		recheckBatchSize: config.DefaultRecheckBatchSize,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// passFunc does the work of one pass. A returned error fails the job.
type passFunc func(ctx context.Context) error

// run wraps a pass with tracing, metrics, logging and job failure handling.
// The job is set to processing first; any error from fn marks it failed.
func (o *Orchestrator) run(ctx context.Context, jobType job.Type, clusterUUID, jobUUID string, fn passFunc) error {
	ctx, span := otel.StartSpan(ctx, o.tracer, "sync."+passName(jobType),
		trace.WithAttributes(
			otel.AttrClusterUUID.String(clusterUUID),
			otel.AttrJobUUID.String(jobUUID),
			otel.AttrJobType.String(string(jobType)),
		))
	defer span.End()

	start := time.Now()
	slog.Info("Processing job", "type", jobType, "cluster", clusterUUID, "job", jobUUID)

	err := o.ledger.SetStatus(ctx, jobUUID, job.StatusProcessing)
	if err == nil {
		err = fn(ctx)
	}
	o.metrics.RecordJobDuration(ctx, string(jobType), time.Since(start), err == nil)

	if err != nil {
		otel.RecordError(span, err)
		slog.Error("Job failed",
			"type", jobType,
			"cluster", clusterUUID,
			"job", jobUUID,
			"error", err)
		if markErr := o.ledger.MarkFailed(context.WithoutCancel(ctx), jobUUID, err.Error()); markErr != nil {
			return errors.Join(err, fmt.Errorf("failed to record job failure: %w", markErr))
		}
		return err
	}

	slog.Info("Completed job",
		"type", jobType,
		"cluster", clusterUUID,
		"job", jobUUID,
		"duration", time.Since(start))
	return nil
}

// loadCluster returns the cluster or a descriptive not-found error.
func (o *Orchestrator) loadCluster(ctx context.Context, clusterUUID string) (*node.Cluster, error) {
	cluster, err := o.clusters.Get(ctx, clusterUUID)
	if err != nil {
		if errors.Is(err, node.ErrClusterNotFound) {
			return nil, fmt.Errorf("cluster not found: %s", clusterUUID)
		}
		return nil, fmt.Errorf("failed to load cluster %s: %w", clusterUUID, err)
	}
	return cluster, nil
}

// complete stores the summary, which completes the job.
func (o *Orchestrator) complete(ctx context.Context, jobType job.Type, jobUUID string, counts job.Counts) error {
	if err := o.ledger.SetResultSummary(ctx, jobUUID, job.ResultSummary{Counts: counts}); err != nil {
		return fmt.Errorf("failed to store result summary: %w", err)
	}

	t := string(jobType)
	o.metrics.RecordNodes(ctx, t, telemetry.OutcomeCreated, counts.Created)
	o.metrics.RecordNodes(ctx, t, telemetry.OutcomeUpdated, counts.Updated)
	o.metrics.RecordNodes(ctx, t, telemetry.OutcomeDeleted, counts.Deleted)
	o.metrics.RecordNodes(ctx, t, telemetry.OutcomeUnavailableChecked, counts.UnavailableChecked)
	o.metrics.RecordNodes(ctx, t, telemetry.OutcomeAuthorityChanged, counts.AuthorityChanged)
	return nil
}

func passName(t job.Type) string {
	switch t {
	case job.TypeCreateNodes:
		return "CreateNodes"
	case job.TypeUpdateNodes:
		return "UpdateNodes"
	case job.TypeUpdateNodeStatuses:
		return "UpdateNodeStatuses"
	default:
		return string(t)
	}
}
