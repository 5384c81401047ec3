package storage

import (
	"context"
	"log/slog"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/storage/inmemory"
)

// MemoryFactory creates process-local storage components that share one backend.
// Data is lost when the process exits.
type MemoryFactory struct {
	backend *inmemory.Backend
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a new in-memory storage factory.
func NewMemoryFactory() *MemoryFactory {
	slog.Info("Creating in-memory storage factory")
	return &MemoryFactory{backend: inmemory.New()}
}

// CreateNodeStore creates an in-memory node store.
func (m *MemoryFactory) CreateNodeStore(_ context.Context) (node.Store, error) {
	return m.backend.Nodes(), nil
}

// CreateClusterStore creates an in-memory cluster store.
func (m *MemoryFactory) CreateClusterStore(_ context.Context) (node.ClusterStore, error) {
	return m.backend.Clusters(), nil
}

// CreateJobLedger creates an in-memory job ledger.
func (m *MemoryFactory) CreateJobLedger(_ context.Context) (job.Ledger, error) {
	return m.backend.Jobs(), nil
}

// Ready always succeeds.
func (*MemoryFactory) Ready(_ context.Context) error {
	return nil
}

// Cleanup is a no-op for in-memory storage.
func (*MemoryFactory) Cleanup() {}
