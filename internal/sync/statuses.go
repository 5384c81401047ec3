package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/telemetry"
)

// UpdateNodeStatuses sets the status named in the job payload on every listed
// node of the cluster. Content, accepted or pending, is left as is. The
// payload is validated before any node is touched.
func (o *Orchestrator) UpdateNodeStatuses(ctx context.Context, clusterUUID, jobUUID string) error {
	return o.run(ctx, job.TypeUpdateNodeStatuses, clusterUUID, jobUUID, func(ctx context.Context) error {
		j, err := o.ledger.GetByUUID(ctx, jobUUID)
		if err != nil {
			if errors.Is(err, job.ErrNotFound) {
				return fmt.Errorf("job not found: %s", jobUUID)
			}
			return fmt.Errorf("failed to load job: %w", err)
		}

		payload, err := job.DecodeStatusChangePayload(j.Payload)
		if err != nil {
			return err
		}
		if len(payload.NodeIDs) == 0 {
			return ErrEmptyNodeIDs
		}
		if payload.Status == "" {
			return ErrMissingStatus
		}

		nodes, err := o.nodes.GetByIDs(ctx, clusterUUID, payload.NodeIDs)
		if err != nil {
			return fmt.Errorf("failed to load nodes: %w", err)
		}
		if len(nodes) == 0 {
			return ErrNoNodesFound
		}
		if err := o.ledger.SetTotal(ctx, jobUUID, int64(len(nodes))); err != nil {
			return fmt.Errorf("failed to set job total: %w", err)
		}

		batcher := job.NewBatcher(o.ledger, jobUUID, o.batchSize)
		for i, n := range nodes {
			if err := o.pacer.Checkpoint(ctx, i); err != nil {
				return err
			}
			if err := o.nodes.UpdateStatus(ctx, clusterUUID, n.ID, payload.Status); err != nil {
				return fmt.Errorf("failed to update status of node %d: %w", n.ID, err)
			}
			if err := batcher.Tick(ctx, i == len(nodes)-1); err != nil {
				return err
			}
		}

		if err := o.ledger.SetStatus(ctx, jobUUID, job.StatusCompleted); err != nil {
			return fmt.Errorf("failed to complete job: %w", err)
		}
		o.metrics.RecordNodes(ctx, string(job.TypeUpdateNodeStatuses), telemetry.OutcomeStatusChanged, int64(len(nodes)))
		return nil
	})
}
