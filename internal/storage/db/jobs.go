package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/db/sqlc"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/otel"
)

// Ledger implements job.Ledger.
type Ledger struct{ b *Backend }

var _ job.Ledger = (*Ledger)(nil)

// GetByUUID implements job.Ledger.
func (l *Ledger) GetByUUID(ctx context.Context, jobUUID string) (*job.Job, error) {
	ctx, span := l.b.startSpan(ctx, "db.GetJob",
		trace.WithAttributes(otel.AttrJobUUID.String(jobUUID)))
	defer span.End()

	row, err := l.b.queries.GetJob(ctx, jobUUID)
	if err != nil {
		if isNoRows(err) {
			return nil, job.ErrNotFound
		}
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get job %s: %w", jobUUID, err)
	}
	return jobFromRow(row)
}

// Create implements job.Ledger.
func (l *Ledger) Create(ctx context.Context, params job.CreateParams) (*job.Job, error) {
	id := params.UUID
	if id == "" {
		id = uuid.NewString()
	}
	targetType := params.TargetType
	if targetType == "" {
		targetType = job.TargetTypeClusters
	}

	ctx, span := l.b.startSpan(ctx, "db.InsertJob",
		trace.WithAttributes(
			otel.AttrJobUUID.String(id),
			otel.AttrJobType.String(string(params.Type)),
			otel.AttrClusterUUID.String(params.TargetID),
		))
	defer span.End()

	var payload []byte
	if len(params.Payload) > 0 {
		payload = params.Payload
	}
	row, err := l.b.queries.InsertJob(ctx, sqlc.InsertJobParams{
		JobUUID:    id,
		TargetID:   params.TargetID,
		TargetType: targetType,
		Type:       string(params.Type),
		Payload:    payload,
	})
	if err != nil {
		otel.RecordError(span, err)
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, fmt.Errorf("job %s already exists", id)
		}
		return nil, fmt.Errorf("failed to insert job %s: %w", id, err)
	}
	return jobFromRow(row)
}

// MarkFailed implements job.Ledger.
func (l *Ledger) MarkFailed(ctx context.Context, jobUUID, message string) error {
	return l.exec(ctx, "db.MarkJobFailed", jobUUID, func(ctx context.Context) (int64, error) {
		return l.b.queries.MarkJobFailed(ctx, sqlc.MarkJobFailedParams{ErrorMessage: message, JobUUID: jobUUID})
	})
}

// SetTotal implements job.Ledger.
func (l *Ledger) SetTotal(ctx context.Context, jobUUID string, total int64) error {
	return l.exec(ctx, "db.SetJobTotal", jobUUID, func(ctx context.Context) (int64, error) {
		return l.b.queries.SetJobTotal(ctx, sqlc.SetJobTotalParams{TotalNodes: total, JobUUID: jobUUID})
	})
}

// AddProcessed implements job.Ledger.
func (l *Ledger) AddProcessed(ctx context.Context, jobUUID string, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return l.exec(ctx, "db.AddJobProcessed", jobUUID, func(ctx context.Context) (int64, error) {
		return l.b.queries.AddJobProcessed(ctx, sqlc.AddJobProcessedParams{Delta: delta, JobUUID: jobUUID})
	})
}

// SetStatus implements job.Ledger.
func (l *Ledger) SetStatus(ctx context.Context, jobUUID string, status job.Status) error {
	return l.exec(ctx, "db.SetJobStatus", jobUUID, func(ctx context.Context) (int64, error) {
		return l.b.queries.SetJobStatus(ctx, sqlc.SetJobStatusParams{Status: string(status), JobUUID: jobUUID})
	})
}

// SetResultSummary implements job.Ledger.
func (l *Ledger) SetResultSummary(ctx context.Context, jobUUID string, summary job.ResultSummary) error {
	result, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode result summary: %w", err)
	}
	return l.exec(ctx, "db.SetJobResult", jobUUID, func(ctx context.Context) (int64, error) {
		return l.b.queries.SetJobResult(ctx, sqlc.SetJobResultParams{Result: result, JobUUID: jobUUID})
	})
}

// exec runs a single-row job update and maps zero affected rows to ErrNotFound.
func (l *Ledger) exec(ctx context.Context, name, jobUUID string, fn func(context.Context) (int64, error)) error {
	ctx, span := l.b.startSpan(ctx, name, trace.WithAttributes(otel.AttrJobUUID.String(jobUUID)))
	defer span.End()

	n, err := fn(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("%s failed for job %s: %w", name, jobUUID, err)
	}
	if n == 0 {
		return job.ErrNotFound
	}
	return nil
}

func jobFromRow(row sqlc.Job) (*job.Job, error) {
	j := &job.Job{
		UUID:           row.JobUUID,
		TargetID:       row.TargetID,
		TargetType:     row.TargetType,
		Type:           job.Type(row.Type),
		Status:         job.Status(row.Status),
		TotalNodes:     row.TotalNodes,
		ProcessedNodes: row.ProcessedNodes,
		ErrorMessage:   derefString(row.ErrorMessage),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		FinishedAt:     row.FinishedAt,
	}
	if len(row.Payload) > 0 {
		j.Payload = json.RawMessage(row.Payload)
	}
	if len(row.Result) > 0 {
		var summary job.ResultSummary
		if err := json.Unmarshal(row.Result, &summary); err != nil {
			return nil, fmt.Errorf("failed to decode result of job %s: %w", row.JobUUID, err)
		}
		j.Result = &summary
	}
	return j, nil
}
