package database

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/nodesync/internal/db/sqlc"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/otel"
)

// NodeStore implements node.Store.
type NodeStore struct{ b *Backend }

var _ node.Store = (*NodeStore)(nil)

// Create implements node.Store.
func (s *NodeStore) Create(ctx context.Context, n node.NewNode) (*node.Node, error) {
	ctx, span := s.b.startSpan(ctx, "db.InsertNode",
		trace.WithAttributes(
			otel.AttrClusterUUID.String(n.ClusterUUID),
			otel.AttrProfileURL.String(n.ProfileURL),
		))
	defer span.End()

	status := n.Status
	if status == "" {
		status = node.StatusNew
	}
	row, err := s.b.queries.InsertNode(ctx, sqlc.InsertNodeParams{
		ClusterUUID:        n.ClusterUUID,
		ProfileURL:         n.ProfileURL,
		Data:               string(n.Content),
		Status:             status,
		LastUpdated:        n.LastUpdated,
		IsAvailable:        n.IsAvailable,
		UnavailableMessage: optString(n.UnavailableMessage),
		LastUpdateJobUUID:  optString(n.LastUpdateJobUUID),
	})
	if err != nil {
		otel.RecordError(span, err)
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, fmt.Errorf("node with profile url %s already exists in cluster %s", n.ProfileURL, n.ClusterUUID)
		case pgForeignKeyViolation:
			return nil, fmt.Errorf("%w: %s", node.ErrClusterNotFound, n.ClusterUUID)
		}
		return nil, fmt.Errorf("failed to insert node %s: %w", n.ProfileURL, err)
	}
	return nodeFromRow(row), nil
}

// Update implements node.Store.
func (s *NodeStore) Update(ctx context.Context, clusterUUID string, id int64, patch node.Patch) error {
	ctx, span := s.b.startSpan(ctx, "db.UpdateNode",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	n, err := s.b.queries.UpdateNode(ctx, updateParams(clusterUUID, id, nil, patch))
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to update node %d: %w", id, err)
	}
	if n == 0 {
		return node.ErrNodeNotFound
	}
	return nil
}

// StageUpdate implements node.Store.
func (s *NodeStore) StageUpdate(
	ctx context.Context, clusterUUID string, id int64, expectedLastUpdated int64, patch node.Patch,
) (bool, error) {
	ctx, span := s.b.startSpan(ctx, "db.StageNodeUpdate",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	n, err := s.b.queries.UpdateNode(ctx, updateParams(clusterUUID, id, &expectedLastUpdated, patch))
	if err != nil {
		otel.RecordError(span, err)
		return false, fmt.Errorf("failed to stage update of node %d: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}

	// Nothing matched: either the node is gone or its last_updated moved on.
	if _, err := s.b.queries.GetNode(ctx, sqlc.GetNodeParams{ClusterUUID: clusterUUID, ID: id}); err != nil {
		if isNoRows(err) {
			return false, node.ErrNodeNotFound
		}
		otel.RecordError(span, err)
		return false, fmt.Errorf("failed to get node %d: %w", id, err)
	}
	return false, nil
}

// SoftDelete implements node.Store.
func (s *NodeStore) SoftDelete(ctx context.Context, clusterUUID, profileURL, jobUUID string) error {
	ctx, span := s.b.startSpan(ctx, "db.SoftDeleteNode",
		trace.WithAttributes(
			otel.AttrClusterUUID.String(clusterUUID),
			otel.AttrProfileURL.String(profileURL),
			otel.AttrJobUUID.String(jobUUID),
		))
	defer span.End()

	err := s.b.queries.SoftDeleteNode(ctx, sqlc.SoftDeleteNodeParams{
		LastUpdateJobUUID: jobUUID,
		ClusterUUID:       clusterUUID,
		ProfileURL:        profileURL,
	})
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to soft delete node %s: %w", profileURL, err)
	}
	return nil
}

// List implements node.Store.
func (s *NodeStore) List(ctx context.Context, clusterUUID string) ([]*node.Node, error) {
	ctx, span := s.b.startSpan(ctx, "db.ListNodes",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	rows, err := s.b.queries.ListNodesByCluster(ctx, clusterUUID)
	return s.collect(span, rows, err, "failed to list nodes")
}

// ListUnavailable implements node.Store.
func (s *NodeStore) ListUnavailable(ctx context.Context, clusterUUID string) ([]*node.Node, error) {
	ctx, span := s.b.startSpan(ctx, "db.ListUnavailableNodes",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	rows, err := s.b.queries.ListUnavailableNodes(ctx, clusterUUID)
	return s.collect(span, rows, err, "failed to list unavailable nodes")
}

// ListByLastUpdateJob implements node.Store.
func (s *NodeStore) ListByLastUpdateJob(ctx context.Context, clusterUUID, jobUUID string) ([]*node.Node, error) {
	ctx, span := s.b.startSpan(ctx, "db.ListNodesByLastUpdateJob",
		trace.WithAttributes(
			otel.AttrClusterUUID.String(clusterUUID),
			otel.AttrJobUUID.String(jobUUID),
		))
	defer span.End()

	rows, err := s.b.queries.ListNodesByLastUpdateJob(ctx, sqlc.ListNodesByLastUpdateJobParams{
		ClusterUUID:       clusterUUID,
		LastUpdateJobUUID: jobUUID,
	})
	return s.collect(span, rows, err, "failed to list nodes by job")
}

// GetByIDs implements node.Store.
func (s *NodeStore) GetByIDs(ctx context.Context, clusterUUID string, ids []int64) ([]*node.Node, error) {
	ctx, span := s.b.startSpan(ctx, "db.ListNodesByIDs",
		trace.WithAttributes(
			otel.AttrClusterUUID.String(clusterUUID),
			otel.AttrNodeCount.Int(len(ids)),
		))
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.b.queries.ListNodesByIDs(ctx, sqlc.ListNodesByIDsParams{
		ClusterUUID: clusterUUID,
		IDs:         ids,
	})
	return s.collect(span, rows, err, "failed to get nodes by id")
}

// UpdateStatus implements node.Store.
func (s *NodeStore) UpdateStatus(ctx context.Context, clusterUUID string, id int64, status string) error {
	ctx, span := s.b.startSpan(ctx, "db.UpdateNodeStatus",
		trace.WithAttributes(otel.AttrClusterUUID.String(clusterUUID)))
	defer span.End()

	n, err := s.b.queries.UpdateNodeStatus(ctx, sqlc.UpdateNodeStatusParams{
		Status:      status,
		ClusterUUID: clusterUUID,
		ID:          id,
	})
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to update status of node %d: %w", id, err)
	}
	if n == 0 {
		return node.ErrNodeNotFound
	}
	return nil
}

func (*NodeStore) collect(span trace.Span, rows []sqlc.Node, err error, msg string) ([]*node.Node, error) {
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	out := make([]*node.Node, 0, len(rows))
	for _, row := range rows {
		out = append(out, nodeFromRow(row))
	}
	span.SetAttributes(otel.AttrNodeCount.Int(len(out)))
	return out, nil
}

func updateParams(clusterUUID string, id int64, expectedLastUpdated *int64, p node.Patch) sqlc.UpdateNodeParams {
	params := sqlc.UpdateNodeParams{
		Status:                      p.Status,
		LastUpdated:                 p.LastUpdated,
		IsAvailable:                 p.IsAvailable,
		HasAuthority:                p.HasAuthority,
		IsDeleted:                   p.IsDeleted,
		LastUpdateJobUUID:           p.LastUpdateJobUUID,
		LastUnavailableCheckJobUUID: p.LastUnavailableCheckJobUUID,
		LastAuthorityChangeJobUUID:  p.LastAuthorityChangeJobUUID,
		ClusterUUID:                 clusterUUID,
		ID:                          id,
		ExpectedLastUpdated:         expectedLastUpdated,
	}
	if p.IsAvailable != nil {
		params.UnavailableMessage = optString(p.UnavailableMessage)
	}
	if p.Content != nil {
		params.SetContent = true
		params.Data, params.UpdatedData = contentColumns(*p.Content)
	}
	return params
}

// contentColumns maps content onto the data and updated_data columns.
func contentColumns(c node.Content) (string, *string) {
	var pending *string
	if c.Pending != nil {
		s := string(c.Pending)
		pending = &s
	}
	return string(c.Accepted), pending
}

func nodeFromRow(row sqlc.Node) *node.Node {
	content := node.Content{}
	if row.Data != "" {
		content.Accepted = json.RawMessage(row.Data)
	}
	if row.HasUpdated && row.UpdatedData != nil {
		content.Pending = json.RawMessage(*row.UpdatedData)
	}
	return &node.Node{
		ID:                          row.ID,
		ClusterUUID:                 row.ClusterUUID,
		ProfileURL:                  row.ProfileURL,
		Content:                     content,
		Status:                      row.Status,
		LastUpdated:                 row.LastUpdated,
		IsAvailable:                 row.IsAvailable,
		UnavailableMessage:          derefString(row.UnavailableMessage),
		HasAuthority:                row.HasAuthority,
		IsDeleted:                   row.IsDeleted,
		LastUpdateJobUUID:           derefString(row.LastUpdateJobUUID),
		LastUnavailableCheckJobUUID: derefString(row.LastUnavailableCheckJobUUID),
		LastAuthorityChangeJobUUID:  derefString(row.LastAuthorityChangeJobUUID),
		CreatedAt:                   row.CreatedAt,
		UpdatedAt:                   row.UpdatedAt,
	}
}
