package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/nodesync/sync"
)

// Node outcomes counted by RecordNodes.
const (
	OutcomeCreated            = "created"
	OutcomeUpdated            = "updated"
	OutcomeDeleted            = "deleted"
	OutcomeUnavailableChecked = "unavailable_checked"
	OutcomeAuthorityChanged   = "authority_changed"
	OutcomeStatusChanged      = "status_changed"
)

// SyncMetrics holds the OpenTelemetry instruments for sync jobs
type SyncMetrics struct {
	jobDuration metric.Float64Histogram
	nodesTotal  metric.Int64Counter
	messages    metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	jobDuration, err := meter.Float64Histogram(
		"nodesync_job_duration_seconds",
		metric.WithDescription("Duration of sync jobs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900),
	)
	if err != nil {
		return nil, err
	}

	nodesTotal, err := meter.Int64Counter(
		"nodesync_nodes_total",
		metric.WithDescription("Nodes changed by sync jobs, by outcome"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, err
	}

	messages, err := meter.Int64Counter(
		"nodesync_messages_total",
		metric.WithDescription("Job messages received, by disposition"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		jobDuration: jobDuration,
		nodesTotal:  nodesTotal,
		messages:    messages,
	}, nil
}

// RecordJobDuration records how long a job of jobType ran
func (m *SyncMetrics) RecordJobDuration(ctx context.Context, jobType string, duration time.Duration, success bool) {
	if m == nil || m.jobDuration == nil {
		return
	}

	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("job_type", jobType),
		attribute.Bool("success", success),
	))
}

// RecordNodes adds count nodes with the given outcome. Zero counts are dropped.
func (m *SyncMetrics) RecordNodes(ctx context.Context, jobType, outcome string, count int64) {
	if m == nil || m.nodesTotal == nil || count <= 0 {
		return
	}

	m.nodesTotal.Add(ctx, count, metric.WithAttributes(
		attribute.String("job_type", jobType),
		attribute.String("outcome", outcome),
	))
}

// RecordMessage counts one received message
func (m *SyncMetrics) RecordMessage(ctx context.Context, messageType, disposition string) {
	if m == nil || m.messages == nil {
		return
	}

	m.messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", messageType),
		attribute.String("disposition", disposition),
	))
}
