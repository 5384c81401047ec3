// Package job defines the ledger that records the lifecycle, progress and
// outcome of sync jobs.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type identifies which sync pass a job runs.
type Type string

// Job types
const (
	TypeCreateNodes        Type = "create-nodes"
	TypeUpdateNodes        Type = "update-nodes"
	TypeUpdateNodeStatuses Type = "update-node-statuses"
)

// Valid reports whether t names a known pass.
func (t Type) Valid() bool {
	switch t {
	case TypeCreateNodes, TypeUpdateNodes, TypeUpdateNodeStatuses:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a job.
type Status string

// Job statuses
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further work will happen for the job.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TargetTypeClusters is the only target type sync jobs operate on.
const TargetTypeClusters = "clusters"

// ErrNotFound is returned when a job can't be found.
var ErrNotFound = errors.New("job not found")

// Job is one unit of sync work against a cluster.
type Job struct {
	UUID           string          `json:"job_uuid"`
	TargetID       string          `json:"target_id"`
	TargetType     string          `json:"target_type"`
	Type           Type            `json:"type"`
	Status         Status          `json:"status"`
	TotalNodes     int64           `json:"total_nodes"`
	ProcessedNodes int64           `json:"processed_nodes"`
	Result         *ResultSummary  `json:"result,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
}

// Counts tallies the per-outcome node changes of a pass.
type Counts struct {
	Created            int64 `json:"created"`
	Updated            int64 `json:"updated"`
	Deleted            int64 `json:"deleted"`
	UnavailableChecked int64 `json:"unavailableChecked"`
	AuthorityChanged   int64 `json:"authorityChanged"`
}

// ResultSummary is persisted on a job when a pass succeeds.
type ResultSummary struct {
	Counts Counts `json:"counts"`
}

// CreateParams describes a job to be created. An empty UUID is generated.
type CreateParams struct {
	UUID       string
	TargetID   string
	TargetType string
	Type       Type
	Payload    json.RawMessage
}

// StatusChangePayload is the payload of an update-node-statuses job.
type StatusChangePayload struct {
	NodeIDs []int64 `json:"node_ids"`
	Status  string  `json:"status"`
}

// DecodeStatusChangePayload parses the payload of an update-node-statuses job.
// An empty payload decodes to the zero value.
func DecodeStatusChangePayload(raw json.RawMessage) (StatusChangePayload, error) {
	var p StatusChangePayload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid status change payload: %w", err)
	}
	return p, nil
}

// Ledger records job lifecycle and progress.
//
// Callers add each unit of work to AddProcessed exactly once; the ledger only
// guarantees the counter never exceeds the total.
//
//go:generate mockgen -destination=mocks/mock_ledger.go -package=mocks -source=job.go Ledger
type Ledger interface {
	// GetByUUID returns the job or ErrNotFound.
	GetByUUID(ctx context.Context, uuid string) (*Job, error)

	// Create inserts a pending job.
	Create(ctx context.Context, params CreateParams) (*Job, error)

	// MarkFailed sets the job failed with message and stamps finishedAt.
	MarkFailed(ctx context.Context, uuid, message string) error

	// SetTotal records the expected amount of work.
	SetTotal(ctx context.Context, uuid string, total int64) error

	// AddProcessed atomically adds delta to the processed counter, clamped to
	// the total. A non-positive delta is a no-op.
	AddProcessed(ctx context.Context, uuid string, delta int64) error

	// SetStatus sets the job status. Terminal statuses stamp finishedAt.
	SetStatus(ctx context.Context, uuid string, status Status) error

	// SetResultSummary stores summary, clears any error and completes the job.
	SetResultSummary(ctx context.Context, uuid string, summary ResultSummary) error
}
