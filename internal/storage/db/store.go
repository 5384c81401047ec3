// Package database provides Postgres implementations of the node, cluster and
// job stores on top of the sqlc generated queries.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/db/sqlc"
	"github.com/stacklok/nodesync/internal/otel"
)

// ServiceTracerName is the name used for the storage tracer
const ServiceTracerName = "github.com/stacklok/nodesync/storage/db"

// Postgres error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the database backend
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The caller is responsible for closing
// the pool when it is done.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer. If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// Backend groups the Postgres stores that share one pool.
type Backend struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
	tracer  trace.Tracer
}

// New creates a database backend with the given options
func New(opts ...Option) (*Backend, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &Backend{
		pool:    o.pool,
		queries: sqlc.New(o.pool),
		tracer:  o.tracer,
	}, nil
}

// Nodes returns the node store.
func (b *Backend) Nodes() *NodeStore { return &NodeStore{b: b} }

// Clusters returns the cluster store.
func (b *Backend) Clusters() *ClusterStore { return &ClusterStore{b: b} }

// Jobs returns the job ledger.
func (b *Backend) Jobs() *Ledger { return &Ledger{b: b} }

// Ping checks that the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// startSpan starts a storage span tagged with the db.system attribute.
func (b *Backend) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{
		trace.WithAttributes(semconv.DBSystemPostgreSQL),
		trace.WithSpanKind(trace.SpanKindClient),
	}, opts...)
	return otel.StartSpan(ctx, b.tracer, name, opts...)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
