package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
	nodesync "github.com/stacklok/nodesync/internal/sync"
)

// Publisher enqueues messages. *queue.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, m nodesync.Message) (string, error)
}

// Dispatcher handles a single message. *sync.Dispatcher implements it.
type Dispatcher interface {
	Handle(ctx context.Context, m nodesync.Message) nodesync.Disposition
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type jobService struct {
	ledger     job.Ledger
	clusters   node.ClusterStore
	dispatcher Dispatcher
	publisher  Publisher
	checks     []ReadinessCheck

	// In-process runs
	inflight  sync.WaitGroup
	runCtx    context.Context
	cancelRun context.CancelFunc
}

var _ JobService = (*jobService)(nil)

// JobServiceOption configures the job service
type JobServiceOption func(*jobService)

// WithPublisher sets the queue used by CreateJob. Without one, created jobs
// are handed to the dispatcher in the background.
func WithPublisher(p Publisher) JobServiceOption {
	return func(s *jobService) {
		s.publisher = p
	}
}

// WithReadinessChecks adds dependency checks to CheckReadiness.
func WithReadinessChecks(checks ...ReadinessCheck) JobServiceOption {
	return func(s *jobService) {
		s.checks = append(s.checks, checks...)
	}
}

// New creates a JobService.
func New(ledger job.Ledger, clusters node.ClusterStore, dispatcher Dispatcher, opts ...JobServiceOption) JobService {
	s := &jobService{
		ledger:     ledger,
		clusters:   clusters,
		dispatcher: dispatcher,
	}
	s.runCtx, s.cancelRun = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckReadiness implements JobService.
func (s *jobService) CheckReadiness(ctx context.Context) error {
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GetJob implements JobService.
func (s *jobService) GetJob(ctx context.Context, jobUUID string) (*job.Job, error) {
	j, err := s.ledger.GetByUUID(ctx, jobUUID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobUUID)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", jobUUID, err)
	}
	return j, nil
}

// CreateJob implements JobService.
func (s *jobService) CreateJob(ctx context.Context, opts ...Option[CreateJobOptions]) (*job.Job, error) {
	options := &CreateJobOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	if options.ClusterUUID == "" || options.Type == "" {
		return nil, fmt.Errorf("%w: cluster uuid and job type are required", ErrInvalidRequest)
	}
	if options.Type == job.TypeUpdateNodeStatuses {
		if _, err := job.DecodeStatusChangePayload(options.Payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	if _, err := s.clusters.Get(ctx, options.ClusterUUID); err != nil {
		if errors.Is(err, node.ErrClusterNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClusterNotFound, options.ClusterUUID)
		}
		return nil, fmt.Errorf("failed to load cluster %s: %w", options.ClusterUUID, err)
	}

	j, err := s.ledger.Create(ctx, job.CreateParams{
		UUID:     options.JobUUID,
		TargetID: options.ClusterUUID,
		Type:     options.Type,
		Payload:  options.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	m := nodesync.Message{
		JobUUID:    j.UUID,
		Type:       string(j.Type),
		TargetID:   j.TargetID,
		TargetType: j.TargetType,
	}
	if s.publisher == nil {
		s.dispatchInProcess(ctx, m)
		return j, nil
	}

	id, err := s.publisher.Publish(ctx, m)
	if err != nil {
		if markErr := s.ledger.MarkFailed(context.WithoutCancel(ctx), j.UUID, err.Error()); markErr != nil {
			slog.Error("Failed to mark unpublished job failed", "job", j.UUID, "error", markErr)
		}
		return nil, fmt.Errorf("failed to enqueue job %s: %w", j.UUID, err)
	}
	slog.Info("Enqueued job", "job", j.UUID, "type", j.Type, "cluster", j.TargetID, "entry_id", id)
	return j, nil
}

// DeliverMessage implements JobService.
func (s *jobService) DeliverMessage(ctx context.Context, m nodesync.Message) (*job.Job, nodesync.Disposition, error) {
	disposition := s.dispatcher.Handle(ctx, m)
	if disposition == nodesync.DispositionUnknown || m.JobUUID == "" {
		return nil, disposition, fmt.Errorf("%w: %s", ErrJobNotFound, m.JobUUID)
	}

	j, err := s.GetJob(ctx, m.JobUUID)
	if err != nil {
		return nil, disposition, err
	}
	return j, disposition, nil
}

// dispatchInProcess runs m in the background. The run outlives the request
// but is cancelled when Drain gives up waiting.
func (s *jobService) dispatchInProcess(ctx context.Context, m nodesync.Message) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.runCtx, cancel)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer stop()
		defer cancel()
		s.dispatcher.Handle(runCtx, m)
	}()
}

// Drain implements JobService. When ctx ends first, the remaining runs are
// cancelled, which fails their jobs, and ctx.Err() is returned once they exit.
func (s *jobService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.cancelRun()
		<-done
		return ctx.Err()
	}
}
