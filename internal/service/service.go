// Package service provides the job operations behind the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stacklok/nodesync/internal/job"
	nodesync "github.com/stacklok/nodesync/internal/sync"
)

var (
	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")
	// ErrClusterNotFound is returned when a job targets an unknown cluster
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrInvalidRequest is returned when a request fails validation
	ErrInvalidRequest = errors.New("invalid request")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go JobService

// JobService defines the job operations exposed over HTTP
type JobService interface {
	// CheckReadiness checks if storage and transport are reachable
	CheckReadiness(ctx context.Context) error

	// GetJob returns a job with its progress
	GetJob(ctx context.Context, jobUUID string) (*job.Job, error)

	// CreateJob records a pending job and hands its message to the queue
	CreateJob(ctx context.Context, opts ...Option[CreateJobOptions]) (*job.Job, error)

	// DeliverMessage runs a message through the dispatcher and returns the job afterwards
	DeliverMessage(ctx context.Context, m nodesync.Message) (*job.Job, nodesync.Disposition, error)

	// Drain waits for jobs dispatched in process by CreateJob
	Drain(ctx context.Context) error
}

// Option is a function that sets an option for a service operation
type Option[T CreateJobOptions] func(*T) error

// CreateJobOptions is the options for the CreateJob operation
type CreateJobOptions struct {
	JobUUID     string
	ClusterUUID string
	Type        job.Type
	Payload     json.RawMessage
}

// WithJobUUID sets the UUID of the job to create. One is generated otherwise.
func WithJobUUID(jobUUID string) Option[CreateJobOptions] {
	return func(o *CreateJobOptions) error {
		if jobUUID == "" {
			return fmt.Errorf("invalid job uuid: %s", jobUUID)
		}
		o.JobUUID = jobUUID
		return nil
	}
}

// WithClusterUUID sets the target cluster
func WithClusterUUID(clusterUUID string) Option[CreateJobOptions] {
	return func(o *CreateJobOptions) error {
		if clusterUUID == "" {
			return fmt.Errorf("invalid cluster uuid: %s", clusterUUID)
		}
		o.ClusterUUID = clusterUUID
		return nil
	}
}

// WithJobType sets the pass the job runs
func WithJobType(t job.Type) Option[CreateJobOptions] {
	return func(o *CreateJobOptions) error {
		if !t.Valid() {
			return fmt.Errorf("invalid job type: %s", t)
		}
		o.Type = t
		return nil
	}
}

// WithPayload sets the job payload
func WithPayload(payload json.RawMessage) Option[CreateJobOptions] {
	return func(o *CreateJobOptions) error {
		if len(payload) == 0 {
			return nil
		}
		if !json.Valid(payload) {
			return fmt.Errorf("invalid payload: not valid JSON")
		}
		o.Payload = payload
		return nil
	}
}
