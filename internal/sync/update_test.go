package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/profile"
	"github.com/stacklok/nodesync/internal/storage/inmemory"
)

const sinceQuery = "?last_updated=1000"

func (f *fixture) expectFetch(profiles ...profile.RawProfile) {
	f.gateway.EXPECT().FetchProfiles(gomock.Any(), testIndexURL, sinceQuery).Return(profiles, nil)
}

func (f *fixture) runUpdate(t *testing.T) *job.Job {
	t.Helper()
	jobUUID := f.newJob(t, job.TypeUpdateNodes, "")
	require.NoError(t, f.orch.UpdateNodes(context.Background(), testCluster, jobUUID))
	j := f.job(t, jobUUID)
	assert.Equal(t, job.StatusCompleted, j.Status)
	assert.LessOrEqual(t, j.ProcessedNodes, j.TotalNodes)
	require.NotNil(t, j.Result)
	return j
}

func newUpdateFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.seedCluster(t, node.Ptr(int64(1000)))
	return f
}

func TestUpdateNodes_DeletedUnknownProfileIsIgnored(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	f.expectFetch(profile.RawProfile{ProfileURL: "https://x.example/p1", Status: profile.StatusDeleted, LastUpdated: 5})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{}, j.Result.Counts)
	assert.Equal(t, int64(2), j.TotalNodes)
	assert.Equal(t, int64(1), j.ProcessedNodes)

	all, err := f.nodes.List(context.Background(), testCluster)
	require.NoError(t, err)
	assert.Empty(t, all)

	cluster, err := f.clusters.Get(context.Background(), testCluster)
	require.NoError(t, err)
	assert.Equal(t, passStart, *cluster.LastUpdated)
}

func TestUpdateNodes_FirstRunQueryHasNoSince(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedCluster(t, nil)
	f.gateway.EXPECT().FetchProfiles(gomock.Any(), testIndexURL, "").Return(nil, nil)

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{}, j.Result.Counts)
}

func TestUpdateNodes_StagesChangedContent(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	accepted := `{"primary_url":"https://a.example/p1",  "v":1}`
	a := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(accepted), LastUpdated: 10, IsAvailable: true,
	}, nil)

	f.expectFetch(profile.RawProfile{ProfileURL: a.ProfileURL, Status: "posted", LastUpdated: 20})
	f.serveProfiles(map[string]string{a.ProfileURL: `{"primary_url":"https://a.example/p1","v":2}`})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{Updated: 1}, j.Result.Counts)

	got := f.node(t, a.ID)
	assert.Equal(t, accepted, string(got.Content.Accepted), "accepted content is byte-identical")
	assert.JSONEq(t, `{"primary_url":"https://a.example/p1","v":2}`, string(got.Content.Pending))
	assert.Equal(t, int64(20), got.LastUpdated)
	assert.Equal(t, j.UUID, got.LastUpdateJobUUID)
	assert.True(t, got.HasAuthority)
	assert.Equal(t, node.StatusNew, got.Status)
}

func TestUpdateNodes_UnchangedProfileIsNotRefetched(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	a := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{}`), LastUpdated: 10, IsAvailable: true,
	}, nil)
	f.expectFetch(profile.RawProfile{ProfileURL: a.ProfileURL, Status: "posted", LastUpdated: 10})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{}, j.Result.Counts)
	assert.Equal(t, a.UpdatedAt, f.node(t, a.ID).UpdatedAt)
}

func TestUpdateNodes_AuthorityConflict(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	a := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{"primary_url":"https://a.example/"}`),
		LastUpdated: 10, IsAvailable: true,
	}, nil)
	b := f.seedNode(t, node.NewNode{
		ProfileURL: "https://b.example/p1", Content: json.RawMessage(`{"primary_url":"https://a.example/"}`),
		LastUpdated: 10, IsAvailable: true,
	}, &node.Patch{Status: node.Ptr(node.StatusPublish)})
	f.expectFetch()

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{AuthorityChanged: 1}, j.Result.Counts)

	assert.True(t, f.node(t, a.ID).HasAuthority)

	got := f.node(t, b.ID)
	assert.False(t, got.HasAuthority)
	assert.Equal(t, node.StatusIgnore, got.Status)
	assert.Equal(t, j.UUID, got.LastAuthorityChangeJobUUID)
}

func TestUpdateNodes_DemotionAcceptsPendingContent(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{"primary_url":"https://a.example/"}`),
		LastUpdated: 10, IsAvailable: true,
	}, nil)
	b := f.seedNode(t, node.NewNode{
		ProfileURL: "https://b.example/p1", Content: json.RawMessage(`{"v":1}`), LastUpdated: 10, IsAvailable: true,
	}, nil)

	claimed := `{"primary_url":"https://a.example/x","v":2}`
	f.expectFetch(profile.RawProfile{ProfileURL: b.ProfileURL, Status: "posted", LastUpdated: 20})
	f.serveProfiles(map[string]string{b.ProfileURL: claimed})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{Updated: 1, AuthorityChanged: 1}, j.Result.Counts)

	got := f.node(t, b.ID)
	assert.False(t, got.HasAuthority)
	assert.Equal(t, node.StatusIgnore, got.Status)
	assert.Equal(t, claimed, string(got.Content.Accepted))
	assert.False(t, got.Content.HasPending())
}

func TestUpdateNodes_PromotionKeepsStatus(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	n := f.seedNode(t, node.NewNode{
		ProfileURL: "https://b.example/p1", Content: json.RawMessage(`{"primary_url":"https://z.example/"}`),
		LastUpdated: 10, IsAvailable: true,
	}, &node.Patch{HasAuthority: node.Ptr(false), Status: node.Ptr(node.StatusPublish)})
	f.expectFetch()

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{AuthorityChanged: 1}, j.Result.Counts)

	got := f.node(t, n.ID)
	assert.True(t, got.HasAuthority)
	assert.Equal(t, node.StatusPublish, got.Status)
}

func TestUpdateNodes_SuppressedNodeIsSkipped(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	n := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{"v":1}`), LastUpdated: 10, IsAvailable: true,
	}, &node.Patch{Status: node.Ptr(node.StatusIgnored)})
	// No ProcessProfile expectation: the gateway must not be consulted.
	f.expectFetch(profile.RawProfile{ProfileURL: n.ProfileURL, Status: "posted", LastUpdated: 20})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{}, j.Result.Counts)

	got := f.node(t, n.ID)
	assert.Equal(t, int64(10), got.LastUpdated)
	assert.Equal(t, `{"v":1}`, string(got.Content.Accepted))
}

func TestUpdateNodes_DemotedNodeRegainsAuthority(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{"primary_url":"https://a.example/"}`),
		LastUpdated: 10, IsAvailable: true,
	}, nil)
	b := f.seedNode(t, node.NewNode{
		ProfileURL: "https://b.example/p1", Content: json.RawMessage(`{"primary_url":"https://a.example/x"}`),
		LastUpdated: 10, IsAvailable: true,
	}, &node.Patch{HasAuthority: node.Ptr(false), Status: node.Ptr(node.StatusIgnore)})

	fixed := `{"primary_url":"https://b.example/p1"}`
	f.expectFetch(profile.RawProfile{ProfileURL: b.ProfileURL, Status: "posted", LastUpdated: 20})
	f.serveProfiles(map[string]string{b.ProfileURL: fixed})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{Updated: 1, AuthorityChanged: 1}, j.Result.Counts)

	got := f.node(t, b.ID)
	assert.Equal(t, int64(20), got.LastUpdated)
	assert.Equal(t, fixed, string(got.Content.Pending))
	assert.True(t, got.HasAuthority)
	assert.Equal(t, node.StatusIgnore, got.Status, "promotion keeps the status")
	assert.Equal(t, j.UUID, got.LastAuthorityChangeJobUUID)
}

func TestUpdateNodes_SoftDeleteAndReappear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newUpdateFixture(t)
	gone := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/gone", Content: json.RawMessage(`{}`), LastUpdated: 10, IsAvailable: true,
	}, nil)
	back := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/back", Content: json.RawMessage(`{"v":1}`), LastUpdated: 10, IsAvailable: true,
	}, nil)
	require.NoError(t, f.nodes.SoftDelete(ctx, testCluster, back.ProfileURL, "old-job"))

	f.expectFetch(
		profile.RawProfile{ProfileURL: gone.ProfileURL, Status: profile.StatusDeleted, LastUpdated: 20},
		profile.RawProfile{ProfileURL: back.ProfileURL, Status: "posted", LastUpdated: 10},
	)
	f.serveProfiles(map[string]string{back.ProfileURL: `{"v":2}`})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{Deleted: 1, Updated: 1}, j.Result.Counts)

	deleted := f.node(t, gone.ID)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, j.UUID, deleted.LastUpdateJobUUID)

	restored := f.node(t, back.ID)
	assert.False(t, restored.IsDeleted)
	assert.Equal(t, `{"v":1}`, string(restored.Content.Accepted))
	assert.Equal(t, `{"v":2}`, string(restored.Content.Pending))
}

func TestUpdateNodes_RechecksUnavailableNodes(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	plain := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/plain", Content: node.EmptyDocument, LastUpdated: 10,
	}, nil)
	staged := node.NewContent(json.RawMessage(`{"v":1}`)).Stage(json.RawMessage(`{"v":2}`))
	withPending := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/pending", Content: json.RawMessage(`{"v":1}`), LastUpdated: 10,
	}, &node.Patch{Content: &staged})
	still := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/still", Content: json.RawMessage(`{"v":1}`), LastUpdated: 10,
		UnavailableMessage: "HTTP 500",
	}, nil)

	f.expectFetch()
	f.serveProfiles(map[string]string{
		plain.ProfileURL:       `{"v":9}`,
		withPending.ProfileURL: `{"v":3}`,
	})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{UnavailableChecked: 3}, j.Result.Counts)

	got := f.node(t, plain.ID)
	assert.True(t, got.IsAvailable)
	assert.Empty(t, got.UnavailableMessage)
	assert.Equal(t, `{"v":9}`, string(got.Content.Accepted))
	assert.False(t, got.Content.HasPending())
	assert.Equal(t, j.UUID, got.LastUnavailableCheckJobUUID)

	got = f.node(t, withPending.ID)
	assert.True(t, got.IsAvailable)
	assert.Equal(t, `{"v":1}`, string(got.Content.Accepted))
	assert.Equal(t, `{"v":3}`, string(got.Content.Pending))

	got = f.node(t, still.ID)
	assert.False(t, got.IsAvailable)
	assert.Equal(t, "HTTP 404", got.UnavailableMessage)
	assert.Equal(t, `{"v":1}`, string(got.Content.Accepted))
}

// racingStore reports every conditional write as lost.
type racingStore struct {
	*inmemory.NodeStore
}

func (racingStore) StageUpdate(context.Context, string, int64, int64, node.Patch) (bool, error) {
	return false, nil
}

func TestUpdateNodes_LostStageRaceIsNotCounted(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	f.orch = NewOrchestrator(racingStore{f.nodes}, f.clusters, f.ledger, f.gateway)
	n := f.seedNode(t, node.NewNode{
		ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{"v":1}`), LastUpdated: 10, IsAvailable: true,
	}, nil)
	f.expectFetch(profile.RawProfile{ProfileURL: n.ProfileURL, Status: "posted", LastUpdated: 20})
	f.serveProfiles(map[string]string{n.ProfileURL: `{"v":2}`})

	j := f.runUpdate(t)
	assert.Equal(t, job.Counts{}, j.Result.Counts)

	got := f.node(t, n.ID)
	assert.Equal(t, int64(10), got.LastUpdated)
	assert.False(t, got.Content.HasPending())
}

func TestUpdateNodes_FetchErrorFailsJob(t *testing.T) {
	t.Parallel()

	f := newUpdateFixture(t)
	f.gateway.EXPECT().FetchProfiles(gomock.Any(), testIndexURL, sinceQuery).
		Return(nil, errors.New("HTTP 503"))
	jobUUID := f.newJob(t, job.TypeUpdateNodes, "")

	require.Error(t, f.orch.UpdateNodes(context.Background(), testCluster, jobUUID))

	j := f.job(t, jobUUID)
	assert.Equal(t, job.StatusFailed, j.Status)
	assert.Contains(t, j.ErrorMessage, "HTTP 503")
	assert.Nil(t, j.Result)

	cluster, err := f.clusters.Get(context.Background(), testCluster)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), *cluster.LastUpdated)
}
