package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/config"
	"github.com/stacklok/nodesync/internal/db"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
	database "github.com/stacklok/nodesync/internal/storage/db"
)

// DatabaseFactory creates database-backed storage components.
// All components created by this factory use PostgreSQL for persistence.
type DatabaseFactory struct {
	pool    *pgxpool.Pool
	tracer  trace.Tracer
	backend *database.Backend
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithTracer sets the OpenTelemetry tracer for the database stores.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.tracer = tracer
	}
}

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	factory := &DatabaseFactory{pool: pool}
	for _, opt := range opts {
		opt(factory)
	}

	backend, err := database.New(
		database.WithConnectionPool(pool),
		database.WithTracer(factory.tracer),
	)
	if err != nil {
		pool.Close()
		return nil, err
	}
	factory.backend = backend
	return factory, nil
}

// CreateNodeStore creates a database-backed node store.
func (d *DatabaseFactory) CreateNodeStore(_ context.Context) (node.Store, error) {
	slog.Debug("Creating database-backed node store")
	return d.backend.Nodes(), nil
}

// CreateClusterStore creates a database-backed cluster store.
func (d *DatabaseFactory) CreateClusterStore(_ context.Context) (node.ClusterStore, error) {
	slog.Debug("Creating database-backed cluster store")
	return d.backend.Clusters(), nil
}

// CreateJobLedger creates a database-backed job ledger.
func (d *DatabaseFactory) CreateJobLedger(_ context.Context) (job.Ledger, error) {
	slog.Debug("Creating database-backed job ledger")
	return d.backend.Jobs(), nil
}

// Ready pings the database.
func (d *DatabaseFactory) Ready(ctx context.Context) error {
	if err := d.backend.Ping(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

// Cleanup releases resources held by the database factory.
// This closes the database connection pool and any active connections.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
