// Package inmemory provides process-local implementations of the node, cluster
// and job stores. They back single-process runs and the sync tests.
package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
)

// Backend holds all records behind a single lock.
type Backend struct {
	mu       sync.Mutex
	clusters map[string]*node.Cluster
	nodes    map[int64]*node.Node
	jobs     map[string]*job.Job
	nextID   int64
	now      func() time.Time
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		clusters: make(map[string]*node.Cluster),
		nodes:    make(map[int64]*node.Node),
		jobs:     make(map[string]*job.Job),
		now:      time.Now,
	}
}

// Nodes returns the node store view of the backend.
func (b *Backend) Nodes() *NodeStore { return &NodeStore{b: b} }

// Clusters returns the cluster store view of the backend.
func (b *Backend) Clusters() *ClusterStore { return &ClusterStore{b: b} }

// Jobs returns the job ledger view of the backend.
func (b *Backend) Jobs() *Ledger { return &Ledger{b: b} }

// ClusterStore implements node.ClusterStore.
type ClusterStore struct{ b *Backend }

var _ node.ClusterStore = (*ClusterStore)(nil)

// Get implements node.ClusterStore.
func (s *ClusterStore) Get(_ context.Context, clusterUUID string) (*node.Cluster, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	c, ok := s.b.clusters[clusterUUID]
	if !ok {
		return nil, node.ErrClusterNotFound
	}
	cp := *c
	return &cp, nil
}

// Create implements node.ClusterStore.
func (s *ClusterStore) Create(_ context.Context, c node.Cluster) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if c.UUID == "" {
		return fmt.Errorf("cluster uuid is required")
	}
	if _, ok := s.b.clusters[c.UUID]; ok {
		return fmt.Errorf("cluster %s already exists", c.UUID)
	}
	s.b.clusters[c.UUID] = &c
	return nil
}

// UpdateTimestamp implements node.ClusterStore.
func (s *ClusterStore) UpdateTimestamp(_ context.Context, clusterUUID string, ts int64) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	c, ok := s.b.clusters[clusterUUID]
	if !ok {
		return node.ErrClusterNotFound
	}
	c.LastUpdated = &ts
	return nil
}

// NodeStore implements node.Store.
type NodeStore struct{ b *Backend }

var _ node.Store = (*NodeStore)(nil)

// Create implements node.Store.
func (s *NodeStore) Create(_ context.Context, n node.NewNode) (*node.Node, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	for _, existing := range s.b.nodes {
		if existing.ClusterUUID == n.ClusterUUID && existing.ProfileURL == n.ProfileURL {
			return nil, fmt.Errorf("node with profile url %s already exists in cluster %s", n.ProfileURL, n.ClusterUUID)
		}
	}

	s.b.nextID++
	now := s.b.now()
	status := n.Status
	if status == "" {
		status = node.StatusNew
	}
	created := &node.Node{
		ID:                 s.b.nextID,
		ClusterUUID:        n.ClusterUUID,
		ProfileURL:         n.ProfileURL,
		Content:            node.NewContent(n.Content),
		Status:             status,
		LastUpdated:        n.LastUpdated,
		IsAvailable:        n.IsAvailable,
		UnavailableMessage: n.UnavailableMessage,
		HasAuthority:       true,
		IsDeleted:          false,
		LastUpdateJobUUID:  n.LastUpdateJobUUID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.b.nodes[created.ID] = created
	return created.Clone(), nil
}

// Update implements node.Store.
func (s *NodeStore) Update(_ context.Context, clusterUUID string, id int64, patch node.Patch) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	n, err := s.lookup(clusterUUID, id)
	if err != nil {
		return err
	}
	patch.Apply(n)
	n.UpdatedAt = s.b.now()
	return nil
}

// StageUpdate implements node.Store.
func (s *NodeStore) StageUpdate(
	_ context.Context, clusterUUID string, id int64, expectedLastUpdated int64, patch node.Patch,
) (bool, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	n, err := s.lookup(clusterUUID, id)
	if err != nil {
		return false, err
	}
	if n.LastUpdated != expectedLastUpdated {
		return false, nil
	}
	patch.Apply(n)
	n.UpdatedAt = s.b.now()
	return true, nil
}

// SoftDelete implements node.Store.
func (s *NodeStore) SoftDelete(_ context.Context, clusterUUID, profileURL, jobUUID string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	for _, n := range s.b.nodes {
		if n.ClusterUUID == clusterUUID && n.ProfileURL == profileURL && !n.IsDeleted {
			n.IsDeleted = true
			n.LastUpdateJobUUID = jobUUID
			n.UpdatedAt = s.b.now()
		}
	}
	return nil
}

// List implements node.Store.
func (s *NodeStore) List(_ context.Context, clusterUUID string) ([]*node.Node, error) {
	return s.filter(func(n *node.Node) bool {
		return n.ClusterUUID == clusterUUID
	}), nil
}

// ListUnavailable implements node.Store.
func (s *NodeStore) ListUnavailable(_ context.Context, clusterUUID string) ([]*node.Node, error) {
	return s.filter(func(n *node.Node) bool {
		return n.ClusterUUID == clusterUUID && !n.IsDeleted && !n.IsAvailable
	}), nil
}

// ListByLastUpdateJob implements node.Store.
func (s *NodeStore) ListByLastUpdateJob(_ context.Context, clusterUUID, jobUUID string) ([]*node.Node, error) {
	return s.filter(func(n *node.Node) bool {
		return n.ClusterUUID == clusterUUID && !n.IsDeleted && n.LastUpdateJobUUID == jobUUID
	}), nil
}

// GetByIDs implements node.Store.
func (s *NodeStore) GetByIDs(_ context.Context, clusterUUID string, ids []int64) ([]*node.Node, error) {
	return s.filter(func(n *node.Node) bool {
		return n.ClusterUUID == clusterUUID && slices.Contains(ids, n.ID)
	}), nil
}

// UpdateStatus implements node.Store.
func (s *NodeStore) UpdateStatus(_ context.Context, clusterUUID string, id int64, status string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	n, err := s.lookup(clusterUUID, id)
	if err != nil {
		return err
	}
	n.Status = status
	n.UpdatedAt = s.b.now()
	return nil
}

func (s *NodeStore) lookup(clusterUUID string, id int64) (*node.Node, error) {
	n, ok := s.b.nodes[id]
	if !ok || n.ClusterUUID != clusterUUID {
		return nil, node.ErrNodeNotFound
	}
	return n, nil
}

// filter returns copies of matching nodes ordered by ID.
func (s *NodeStore) filter(match func(*node.Node) bool) []*node.Node {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	var out []*node.Node
	for _, n := range s.b.nodes {
		if match(n) {
			out = append(out, n.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *node.Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Ledger implements job.Ledger.
type Ledger struct{ b *Backend }

var _ job.Ledger = (*Ledger)(nil)

// GetByUUID implements job.Ledger.
func (l *Ledger) GetByUUID(_ context.Context, jobUUID string) (*job.Job, error) {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()

	j, ok := l.b.jobs[jobUUID]
	if !ok {
		return nil, job.ErrNotFound
	}
	return cloneJob(j), nil
}

// Create implements job.Ledger.
func (l *Ledger) Create(_ context.Context, params job.CreateParams) (*job.Job, error) {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()

	id := params.UUID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := l.b.jobs[id]; ok {
		return nil, fmt.Errorf("job %s already exists", id)
	}
	targetType := params.TargetType
	if targetType == "" {
		targetType = job.TargetTypeClusters
	}

	now := l.b.now()
	j := &job.Job{
		UUID:       id,
		TargetID:   params.TargetID,
		TargetType: targetType,
		Type:       params.Type,
		Status:     job.StatusPending,
		Payload:    params.Payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.b.jobs[id] = j
	return cloneJob(j), nil
}

// MarkFailed implements job.Ledger.
func (l *Ledger) MarkFailed(_ context.Context, jobUUID, message string) error {
	return l.mutate(jobUUID, func(j *job.Job, now time.Time) {
		j.Status = job.StatusFailed
		j.ErrorMessage = message
		j.FinishedAt = &now
	})
}

// SetTotal implements job.Ledger.
func (l *Ledger) SetTotal(_ context.Context, jobUUID string, total int64) error {
	return l.mutate(jobUUID, func(j *job.Job, _ time.Time) {
		j.TotalNodes = total
	})
}

// AddProcessed implements job.Ledger.
func (l *Ledger) AddProcessed(_ context.Context, jobUUID string, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return l.mutate(jobUUID, func(j *job.Job, _ time.Time) {
		j.ProcessedNodes = min(j.ProcessedNodes+delta, j.TotalNodes)
	})
}

// SetStatus implements job.Ledger.
func (l *Ledger) SetStatus(_ context.Context, jobUUID string, status job.Status) error {
	return l.mutate(jobUUID, func(j *job.Job, now time.Time) {
		j.Status = status
		if status.IsTerminal() {
			j.FinishedAt = &now
		}
	})
}

// SetResultSummary implements job.Ledger.
func (l *Ledger) SetResultSummary(_ context.Context, jobUUID string, summary job.ResultSummary) error {
	return l.mutate(jobUUID, func(j *job.Job, now time.Time) {
		j.Result = &summary
		j.ErrorMessage = ""
		j.Status = job.StatusCompleted
		j.FinishedAt = &now
	})
}

func (l *Ledger) mutate(jobUUID string, fn func(*job.Job, time.Time)) error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()

	j, ok := l.b.jobs[jobUUID]
	if !ok {
		return job.ErrNotFound
	}
	now := l.b.now()
	fn(j, now)
	j.UpdatedAt = now
	return nil
}

func cloneJob(j *job.Job) *job.Job {
	cp := *j
	if j.Result != nil {
		r := *j.Result
		cp.Result = &r
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
