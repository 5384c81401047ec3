// Package node defines the cluster and node records that a sync pass reconciles
// against the external profile index, and the storage contracts for them.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Node statuses. Any other editorial value may be assigned by a bulk status change.
const (
	// StatusNew is assigned to every node on creation
	StatusNew = "new"
	// StatusPublish marks a node as published
	StatusPublish = "publish"
	// StatusIgnore is the status a node is demoted to when it loses authority
	StatusIgnore = "ignore"
	// StatusIgnored marks a node that was suppressed editorially
	StatusIgnored = "ignored"
)

var (
	// ErrClusterNotFound is returned when a cluster can't be found.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrNodeNotFound is returned when a node can't be found.
	ErrNodeNotFound = errors.New("node not found")
)

// Cluster is a named group of nodes fed by one external index.
type Cluster struct {
	UUID     string `json:"cluster_uuid"`
	Name     string `json:"name"`
	IndexURL string `json:"index_url"`
	// QueryURL is a query template appended to IndexURL. It may filter on status=posted.
	QueryURL string `json:"query_url"`
	// LastUpdated is the epoch second at which the last successful update pass started.
	LastUpdated *int64 `json:"last_updated,omitempty"`
}

// Node is a locally stored representation of one remote profile.
type Node struct {
	ID                          int64     `json:"id"`
	ClusterUUID                 string    `json:"cluster_uuid"`
	ProfileURL                  string    `json:"profile_url"`
	Content                     Content   `json:"content"`
	Status                      string    `json:"status"`
	LastUpdated                 int64     `json:"last_updated"`
	IsAvailable                 bool      `json:"is_available"`
	UnavailableMessage          string    `json:"unavailable_message,omitempty"`
	HasAuthority                bool      `json:"has_authority"`
	IsDeleted                   bool      `json:"is_deleted"`
	LastUpdateJobUUID           string    `json:"last_update_job_uuid,omitempty"`
	LastUnavailableCheckJobUUID string    `json:"last_unavailable_check_job_uuid,omitempty"`
	LastAuthorityChangeJobUUID  string    `json:"last_authority_change_job_uuid,omitempty"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// IsSuppressed reports whether editors have withdrawn the node from sync.
// Nodes demoted to ignore by the authority check are not suppressed.
func (n *Node) IsSuppressed() bool {
	return n.Status == StatusIgnored
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Content = n.Content.clone()
	return &c
}

// Content holds the accepted document of a node and, optionally, a staged
// replacement awaiting review. A nil Pending means there is nothing staged.
type Content struct {
	Accepted json.RawMessage `json:"accepted"`
	Pending  json.RawMessage `json:"pending,omitempty"`
}

// NewContent returns content with only an accepted document.
func NewContent(accepted json.RawMessage) Content {
	return Content{Accepted: accepted}
}

// HasPending reports whether a staged document exists.
func (c Content) HasPending() bool {
	return c.Pending != nil
}

// Latest returns the staged document if there is one, otherwise the accepted one.
func (c Content) Latest() json.RawMessage {
	if c.Pending != nil {
		return c.Pending
	}
	return c.Accepted
}

// Stage keeps Accepted untouched and puts next into Pending.
func (c Content) Stage(next json.RawMessage) Content {
	return Content{Accepted: c.Accepted, Pending: next}
}

// Accept promotes the latest document to Accepted and clears Pending.
func (c Content) Accept() Content {
	return Content{Accepted: c.Latest()}
}

func (c Content) clone() Content {
	return Content{Accepted: cloneRaw(c.Accepted), Pending: cloneRaw(c.Pending)}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// EmptyDocument is stored as accepted content when a profile could not be retrieved.
var EmptyDocument = json.RawMessage(`{}`)

// NewNode carries the fields of a node to be inserted.
type NewNode struct {
	ClusterUUID        string
	ProfileURL         string
	Content            json.RawMessage
	Status             string
	LastUpdated        int64
	IsAvailable        bool
	UnavailableMessage string
	LastUpdateJobUUID  string
}

// Patch is a partial update. Nil fields are left unchanged. When IsAvailable is
// set, UnavailableMessage is written as well (an empty message clears it).
type Patch struct {
	Content                     *Content
	Status                      *string
	LastUpdated                 *int64
	IsAvailable                 *bool
	UnavailableMessage          string
	HasAuthority                *bool
	IsDeleted                   *bool
	LastUpdateJobUUID           *string
	LastUnavailableCheckJobUUID *string
	LastAuthorityChangeJobUUID  *string
}

// Apply writes the patch onto n.
func (p Patch) Apply(n *Node) {
	if p.Content != nil {
		n.Content = p.Content.clone()
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.LastUpdated != nil {
		n.LastUpdated = *p.LastUpdated
	}
	if p.IsAvailable != nil {
		n.IsAvailable = *p.IsAvailable
		n.UnavailableMessage = p.UnavailableMessage
	}
	if p.HasAuthority != nil {
		n.HasAuthority = *p.HasAuthority
	}
	if p.IsDeleted != nil {
		n.IsDeleted = *p.IsDeleted
	}
	if p.LastUpdateJobUUID != nil {
		n.LastUpdateJobUUID = *p.LastUpdateJobUUID
	}
	if p.LastUnavailableCheckJobUUID != nil {
		n.LastUnavailableCheckJobUUID = *p.LastUnavailableCheckJobUUID
	}
	if p.LastAuthorityChangeJobUUID != nil {
		n.LastAuthorityChangeJobUUID = *p.LastAuthorityChangeJobUUID
	}
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}

// Store persists nodes. All lookups are scoped to a cluster.
type Store interface {
	// Create inserts a node and returns it with its assigned ID.
	Create(ctx context.Context, n NewNode) (*Node, error)

	// Update applies patch to the node. Returns ErrNodeNotFound when no row matched.
	Update(ctx context.Context, clusterUUID string, id int64, patch Patch) error

	// StageUpdate applies patch only if the stored LastUpdated still equals
	// expectedLastUpdated. It reports whether the write happened.
	StageUpdate(ctx context.Context, clusterUUID string, id int64, expectedLastUpdated int64, patch Patch) (bool, error)

	// SoftDelete flags the live node with profileURL as deleted and attributes
	// the change to jobUUID. Deleting an already deleted node is a no-op.
	SoftDelete(ctx context.Context, clusterUUID, profileURL, jobUUID string) error

	// List returns every node of the cluster, soft-deleted ones included.
	List(ctx context.Context, clusterUUID string) ([]*Node, error)

	// ListUnavailable returns live nodes whose last retrieval failed.
	ListUnavailable(ctx context.Context, clusterUUID string) ([]*Node, error)

	// ListByLastUpdateJob returns live nodes last created or updated by jobUUID.
	ListByLastUpdateJob(ctx context.Context, clusterUUID, jobUUID string) ([]*Node, error)

	// GetByIDs returns the nodes of the cluster among ids. Unknown ids are ignored.
	GetByIDs(ctx context.Context, clusterUUID string, ids []int64) ([]*Node, error)

	// UpdateStatus sets the status of a node without touching its content.
	UpdateStatus(ctx context.Context, clusterUUID string, id int64, status string) error
}

// ClusterStore persists clusters.
type ClusterStore interface {
	// Get returns the cluster or ErrClusterNotFound.
	Get(ctx context.Context, clusterUUID string) (*Cluster, error)

	// Create inserts a cluster.
	Create(ctx context.Context, c Cluster) error

	// UpdateTimestamp records the start time of a successful update pass.
	UpdateTimestamp(ctx context.Context, clusterUUID string, ts int64) error
}
