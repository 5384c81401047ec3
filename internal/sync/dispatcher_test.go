package sync_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/storage/inmemory"
	nodesync "github.com/stacklok/nodesync/internal/sync"
	"github.com/stacklok/nodesync/internal/sync/mocks"
)

func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	m, err := nodesync.DecodeMessage([]byte(`{"job_uuid":"j1","type":"update-nodes","target_id":"c1","target_type":"clusters"}`))
	require.NoError(t, err)
	assert.Equal(t, nodesync.Message{JobUUID: "j1", Type: "update-nodes", TargetID: "c1", TargetType: "clusters"}, m)

	_, err = nodesync.DecodeMessage([]byte(`not json`))
	require.ErrorContains(t, err, "invalid message body")
}

func TestDispatcher_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobType     job.Type
		msgType     string
		targetType  string
		jobStatus   job.Status
		noJob       bool
		setup       func(p *mocks.MockPasses, jobUUID string)
		want        nodesync.Disposition
		wantStatus  job.Status
		wantMessage string
	}{
		{
			name:    "create nodes",
			jobType: job.TypeCreateNodes,
			setup: func(p *mocks.MockPasses, jobUUID string) {
				p.EXPECT().CreateNodes(gomock.Any(), "c1", jobUUID).Return(nil)
			},
			want:       nodesync.DispositionCompleted,
			wantStatus: job.StatusPending,
		},
		{
			name:    "update nodes",
			jobType: job.TypeUpdateNodes,
			setup: func(p *mocks.MockPasses, jobUUID string) {
				p.EXPECT().UpdateNodes(gomock.Any(), "c1", jobUUID).Return(nil)
			},
			want:       nodesync.DispositionCompleted,
			wantStatus: job.StatusPending,
		},
		{
			name:    "update node statuses failing",
			jobType: job.TypeUpdateNodeStatuses,
			setup: func(p *mocks.MockPasses, jobUUID string) {
				p.EXPECT().UpdateNodeStatuses(gomock.Any(), "c1", jobUUID).Return(errors.New("no nodes found"))
			},
			want:       nodesync.DispositionFailed,
			wantStatus: job.StatusPending,
		},
		{
			name:        "unknown message type",
			jobType:     job.TypeUpdateNodes,
			msgType:     "rebuild-index",
			want:        nodesync.DispositionUnhandled,
			wantStatus:  job.StatusFailed,
			wantMessage: "Unhandled message type",
		},
		{
			name:        "unknown target type",
			jobType:     job.TypeUpdateNodes,
			targetType:  "nodes",
			want:        nodesync.DispositionUnhandled,
			wantStatus:  job.StatusFailed,
			wantMessage: "Unhandled message type",
		},
		{
			name:       "finished job is not rerun",
			jobType:    job.TypeUpdateNodes,
			jobStatus:  job.StatusCompleted,
			want:       nodesync.DispositionSkipped,
			wantStatus: job.StatusCompleted,
		},
		{
			name:    "unknown job",
			jobType: job.TypeUpdateNodes,
			noJob:   true,
			want:    nodesync.DispositionUnknown,
		},
		{
			name:    "panicking pass fails the job",
			jobType: job.TypeCreateNodes,
			setup: func(p *mocks.MockPasses, jobUUID string) {
				p.EXPECT().CreateNodes(gomock.Any(), "c1", jobUUID).DoAndReturn(
					func(context.Context, string, string) error { panic("boom") })
			},
			want:        nodesync.DispositionFailed,
			wantStatus:  job.StatusFailed,
			wantMessage: "panic: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			ledger := inmemory.New().Jobs()
			passes := mocks.NewMockPasses(gomock.NewController(t))

			jobUUID := "missing"
			if !tt.noJob {
				j, err := ledger.Create(ctx, job.CreateParams{TargetID: "c1", Type: tt.jobType})
				require.NoError(t, err)
				jobUUID = j.UUID
				if tt.jobStatus != "" {
					require.NoError(t, ledger.SetStatus(ctx, jobUUID, tt.jobStatus))
				}
			}
			if tt.setup != nil {
				tt.setup(passes, jobUUID)
			}

			msg := nodesync.Message{JobUUID: jobUUID, Type: string(tt.jobType), TargetID: "c1", TargetType: job.TargetTypeClusters}
			if tt.msgType != "" {
				msg.Type = tt.msgType
			}
			if tt.targetType != "" {
				msg.TargetType = tt.targetType
			}

			got := nodesync.NewDispatcher(passes, ledger).Handle(ctx, msg)
			assert.Equal(t, tt.want, got)

			if tt.noJob {
				return
			}
			j, err := ledger.GetByUUID(ctx, jobUUID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, j.Status)
			assert.Equal(t, tt.wantMessage, j.ErrorMessage)
		})
	}
}

func TestDispatcher_HandleBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := inmemory.New().Jobs()
	passes := mocks.NewMockPasses(gomock.NewController(t))

	var msgs []nodesync.Message
	for _, jt := range []job.Type{job.TypeCreateNodes, job.TypeUpdateNodes, job.TypeUpdateNodes} {
		j, err := ledger.Create(ctx, job.CreateParams{TargetID: "c1", Type: jt})
		require.NoError(t, err)
		msgs = append(msgs, nodesync.Message{JobUUID: j.UUID, Type: string(jt), TargetID: "c1", TargetType: job.TargetTypeClusters})
	}
	msgs = append(msgs, nodesync.Message{JobUUID: "gone", Type: "update-nodes", TargetID: "c1", TargetType: "clusters"})

	passes.EXPECT().CreateNodes(gomock.Any(), "c1", msgs[0].JobUUID).Return(nil)
	passes.EXPECT().UpdateNodes(gomock.Any(), "c1", msgs[1].JobUUID).Return(nil)
	passes.EXPECT().UpdateNodes(gomock.Any(), "c1", msgs[2].JobUUID).Return(errors.New("fetch failed"))

	got := nodesync.NewDispatcher(passes, ledger, nodesync.WithConcurrency(2)).HandleBatch(ctx, msgs)
	assert.Equal(t, []nodesync.Disposition{
		nodesync.DispositionCompleted,
		nodesync.DispositionCompleted,
		nodesync.DispositionFailed,
		nodesync.DispositionUnknown,
	}, got)
}
