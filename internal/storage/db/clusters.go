package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/db/sqlc"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/otel"
)

// ClusterStore implements node.ClusterStore.
type ClusterStore struct{ b *Backend }

var _ node.ClusterStore = (*ClusterStore)(nil)

// Get implements node.ClusterStore.
func (s *ClusterStore) Get(ctx context.Context, clusterUUID string) (*node.Cluster, error) {
	ctx, span := s.b.startSpan(ctx, "db.GetCluster",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	row, err := s.b.queries.GetCluster(ctx, clusterUUID)
	if err != nil {
		if isNoRows(err) {
			return nil, node.ErrClusterNotFound
		}
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get cluster %s: %w", clusterUUID, err)
	}
	return &node.Cluster{
		UUID:        row.ClusterUUID,
		Name:        row.Name,
		IndexURL:    row.IndexURL,
		QueryURL:    row.QueryURL,
		LastUpdated: row.LastUpdated,
	}, nil
}

// Create implements node.ClusterStore.
func (s *ClusterStore) Create(ctx context.Context, c node.Cluster) error {
	ctx, span := s.b.startSpan(ctx, "db.InsertCluster",
		trace.WithAttributes(otel.AttrClusterUUID.String(c.UUID)))
	defer span.End()

	if c.UUID == "" {
		return fmt.Errorf("cluster uuid is required")
	}
	err := s.b.queries.InsertCluster(ctx, sqlc.InsertClusterParams{
		ClusterUUID: c.UUID,
		Name:        c.Name,
		IndexURL:    c.IndexURL,
		QueryURL:    c.QueryURL,
		LastUpdated: c.LastUpdated,
	})
	if err != nil {
		otel.RecordError(span, err)
		if pgErrorCode(err) == pgUniqueViolation {
			return fmt.Errorf("cluster %s already exists", c.UUID)
		}
		return fmt.Errorf("failed to insert cluster %s: %w", c.UUID, err)
	}
	return nil
}

// UpdateTimestamp implements node.ClusterStore.
func (s *ClusterStore) UpdateTimestamp(ctx context.Context, clusterUUID string, ts int64) error {
	ctx, span := s.b.startSpan(ctx, "db.UpdateClusterLastUpdated",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	n, err := s.b.queries.UpdateClusterLastUpdated(ctx, sqlc.UpdateClusterLastUpdatedParams{
		LastUpdated: ts,
		ClusterUUID: clusterUUID,
	})
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to update cluster %s: %w", clusterUUID, err)
	}
	if n == 0 {
		return node.ErrClusterNotFound
	}
	return nil
}
