// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern so the node store, cluster store and
// job ledger are always created against the same backend.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/nodesync/internal/config"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
//
// It also manages the lifecycle of storage resources (e.g., database connections).
type Factory interface {
	// CreateNodeStore creates the node store.
	CreateNodeStore(ctx context.Context) (node.Store, error)

	// CreateClusterStore creates the cluster store.
	CreateClusterStore(ctx context.Context) (node.ClusterStore, error)

	// CreateJobLedger creates the job ledger.
	CreateJobLedger(ctx context.Context) (job.Ledger, error)

	// Ready reports whether the backend can serve requests.
	Ready(ctx context.Context) error

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg, opts...)
	case config.StorageTypeMemory:
		return NewMemoryFactory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
