package database

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrations "github.com/stacklok/nodesync/database"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
)

func setupBackend(t *testing.T) *Backend {
	t.Helper()

	pool, cleanup := migrations.SetupTestDB(t)
	t.Cleanup(cleanup)

	b, err := New(WithConnectionPool(pool))
	require.NoError(t, err)
	return b
}

func seedCluster(t *testing.T, b *Backend, clusterUUID string) {
	t.Helper()
	require.NoError(t, b.Clusters().Create(context.Background(), node.Cluster{
		UUID:     clusterUUID,
		Name:     "test",
		IndexURL: "https://index.example/nodes",
		QueryURL: "?status=posted",
	}))
}

func TestNew_RequiresPool(t *testing.T) {
	t.Parallel()

	_, err := New()
	require.ErrorContains(t, err, "pgx pool is required")

	_, err = New(WithConnectionPool(nil))
	require.ErrorContains(t, err, "pgx pool is required")
}

func TestUpdateParams(t *testing.T) {
	t.Parallel()

	content := node.Content{Accepted: json.RawMessage(`{"a":1}`), Pending: json.RawMessage(`{"a":2}`)}
	expected := int64(42)
	params := updateParams("c1", 7, &expected, node.Patch{
		Content:            &content,
		IsAvailable:        node.Ptr(false),
		UnavailableMessage: "HTTP 500",
		Status:             node.Ptr(node.StatusIgnore),
	})

	assert.True(t, params.SetContent)
	assert.Equal(t, `{"a":1}`, params.Data)
	require.NotNil(t, params.UpdatedData)
	assert.Equal(t, `{"a":2}`, *params.UpdatedData)
	require.NotNil(t, params.UnavailableMessage)
	assert.Equal(t, "HTTP 500", *params.UnavailableMessage)
	assert.Equal(t, &expected, params.ExpectedLastUpdated)
	assert.Nil(t, params.HasAuthority)

	params = updateParams("c1", 7, nil, node.Patch{UnavailableMessage: "ignored"})
	assert.False(t, params.SetContent)
	assert.Nil(t, params.UnavailableMessage, "message is only written together with availability")
	assert.Nil(t, params.ExpectedLastUpdated)

	params = updateParams("c1", 7, nil, node.Patch{IsAvailable: node.Ptr(true)})
	assert.Nil(t, params.UnavailableMessage, "empty message clears the column")
}

func TestClusterStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := setupBackend(t)
	store := b.Clusters()

	seedCluster(t, b, "c1")
	require.Error(t, store.Create(ctx, node.Cluster{UUID: "c1", IndexURL: "x"}))

	c, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "https://index.example/nodes", c.IndexURL)
	assert.Nil(t, c.LastUpdated)

	require.NoError(t, store.UpdateTimestamp(ctx, "c1", 1700000000))
	c, err = store.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, c.LastUpdated)
	assert.Equal(t, int64(1700000000), *c.LastUpdated)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, node.ErrClusterNotFound)
	require.ErrorIs(t, store.UpdateTimestamp(ctx, "missing", 1), node.ErrClusterNotFound)
	require.NoError(t, b.Ping(ctx))
}

func TestNodeStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := setupBackend(t)
	store := b.Nodes()
	seedCluster(t, b, "c1")
	seedCluster(t, b, "c2")

	a, err := store.Create(ctx, node.NewNode{
		ClusterUUID: "c1", ProfileURL: "https://a.example/p1", Content: json.RawMessage(`{"a": 1}`),
		LastUpdated: 10, IsAvailable: true, LastUpdateJobUUID: "job-1",
	})
	require.NoError(t, err)
	assert.Equal(t, node.StatusNew, a.Status)
	assert.True(t, a.HasAuthority)
	assert.False(t, a.IsDeleted)
	assert.False(t, a.Content.HasPending())
	assert.Equal(t, `{"a": 1}`, string(a.Content.Accepted), "content bytes are stored verbatim")

	t.Run("profile url is unique within a cluster", func(t *testing.T) {
		_, err := store.Create(ctx, node.NewNode{ClusterUUID: "c1", ProfileURL: "https://a.example/p1"})
		require.ErrorContains(t, err, "already exists")
	})

	t.Run("unknown cluster", func(t *testing.T) {
		_, err := store.Create(ctx, node.NewNode{ClusterUUID: "nope", ProfileURL: "https://a.example/p1"})
		require.ErrorIs(t, err, node.ErrClusterNotFound)
	})

	unavailable, err := store.Create(ctx, node.NewNode{
		ClusterUUID: "c1", ProfileURL: "https://b.example/p1", Content: node.EmptyDocument,
		IsAvailable: false, UnavailableMessage: "HTTP 500",
	})
	require.NoError(t, err)
	assert.Equal(t, "HTTP 500", unavailable.UnavailableMessage)

	list, err := store.ListUnavailable(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, unavailable.ID, list[0].ID)

	list, err = store.ListByLastUpdateJob(ctx, "c1", "job-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list, err = store.GetByIDs(ctx, "c2", []int64{a.ID})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = store.GetByIDs(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	t.Run("stage update is conditional", func(t *testing.T) {
		staged := a.Content.Stage(json.RawMessage(`{"a":2}`))
		ok, err := store.StageUpdate(ctx, "c1", a.ID, 10, node.Patch{
			Content:     &staged,
			LastUpdated: node.Ptr(int64(20)),
		})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.StageUpdate(ctx, "c1", a.ID, 10, node.Patch{LastUpdated: node.Ptr(int64(30))})
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.StageUpdate(ctx, "c2", a.ID, 20, node.Patch{})
		require.ErrorIs(t, err, node.ErrNodeNotFound)

		got, err := store.GetByIDs(ctx, "c1", []int64{a.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(20), got[0].LastUpdated)
		assert.Equal(t, `{"a": 1}`, string(got[0].Content.Accepted))
		assert.Equal(t, `{"a":2}`, string(got[0].Content.Pending))
	})

	t.Run("accept clears pending", func(t *testing.T) {
		got, err := store.GetByIDs(ctx, "c1", []int64{a.ID})
		require.NoError(t, err)
		accepted := got[0].Content.Accept()
		require.NoError(t, store.Update(ctx, "c1", a.ID, node.Patch{
			Content:                    &accepted,
			Status:                     node.Ptr(node.StatusIgnore),
			HasAuthority:               node.Ptr(false),
			LastAuthorityChangeJobUUID: node.Ptr("job-2"),
		}))

		got, err = store.GetByIDs(ctx, "c1", []int64{a.ID})
		require.NoError(t, err)
		assert.Equal(t, `{"a":2}`, string(got[0].Content.Accepted))
		assert.False(t, got[0].Content.HasPending())
		assert.Equal(t, node.StatusIgnore, got[0].Status)
		assert.False(t, got[0].HasAuthority)
		assert.Equal(t, "job-2", got[0].LastAuthorityChangeJobUUID)

		require.ErrorIs(t, store.Update(ctx, "c2", a.ID, node.Patch{}), node.ErrNodeNotFound)
	})

	t.Run("status update and soft delete", func(t *testing.T) {
		require.NoError(t, store.UpdateStatus(ctx, "c1", unavailable.ID, "posted"))
		require.ErrorIs(t, store.UpdateStatus(ctx, "c1", 999999, "posted"), node.ErrNodeNotFound)

		require.NoError(t, store.SoftDelete(ctx, "c1", "https://b.example/p1", "job-3"))
		require.NoError(t, store.SoftDelete(ctx, "c1", "https://b.example/p1", "job-4"))

		all, err := store.List(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, all, 2)
		deleted := all[1]
		assert.True(t, deleted.IsDeleted)
		assert.Equal(t, "posted", deleted.Status)
		assert.Equal(t, "job-3", deleted.LastUpdateJobUUID, "deleting twice keeps the first attribution")

		list, err := store.ListUnavailable(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := setupBackend(t)
	ledger := b.Jobs()

	j, err := ledger.Create(ctx, job.CreateParams{TargetID: "c1", Type: job.TypeUpdateNodeStatuses,
		Payload: json.RawMessage(`{"node_ids":[1,2],"status":"posted"}`)})
	require.NoError(t, err)
	assert.NotEmpty(t, j.UUID)
	assert.Equal(t, job.StatusPending, j.Status)
	assert.Equal(t, job.TargetTypeClusters, j.TargetType)

	payload, err := job.DecodeStatusChangePayload(j.Payload)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, payload.NodeIDs)

	_, err = ledger.Create(ctx, job.CreateParams{UUID: j.UUID, TargetID: "c1", Type: job.TypeCreateNodes})
	require.ErrorContains(t, err, "already exists")

	require.NoError(t, ledger.SetTotal(ctx, j.UUID, 10))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, ledger.AddProcessed(ctx, j.UUID, 3))
		}()
	}
	wg.Wait()
	require.NoError(t, ledger.AddProcessed(ctx, j.UUID, -1))

	require.NoError(t, ledger.SetStatus(ctx, j.UUID, job.StatusProcessing))
	got, err := ledger.GetByUUID(ctx, j.UUID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ProcessedNodes)
	assert.Equal(t, job.StatusProcessing, got.Status)
	assert.Nil(t, got.FinishedAt)

	require.NoError(t, ledger.MarkFailed(ctx, j.UUID, "boom"))
	got, err = ledger.GetByUUID(ctx, j.UUID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.ErrorMessage)
	assert.NotNil(t, got.FinishedAt)

	summary := job.ResultSummary{Counts: job.Counts{Updated: 2, AuthorityChanged: 1}}
	require.NoError(t, ledger.SetResultSummary(ctx, j.UUID, summary))
	got, err = ledger.GetByUUID(ctx, j.UUID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.Result)
	assert.Equal(t, summary, *got.Result)

	_, err = ledger.GetByUUID(ctx, "missing")
	require.ErrorIs(t, err, job.ErrNotFound)
	require.ErrorIs(t, ledger.SetTotal(ctx, "missing", 1), job.ErrNotFound)
}
