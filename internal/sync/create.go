package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/profile"
)

// CreateNodes imports every profile listed by the cluster's index. Profiles
// already stored in the cluster are skipped, so a redelivered job does not fail
// on duplicates. Nodes inserted before a failure are kept. The cluster
// timestamp is left unset so the first update pass sees the full index.
func (o *Orchestrator) CreateNodes(ctx context.Context, clusterUUID, jobUUID string) error {
	return o.run(ctx, job.TypeCreateNodes, clusterUUID, jobUUID, func(ctx context.Context) error {
		cluster, err := o.loadCluster(ctx, clusterUUID)
		if err != nil {
			return err
		}

		raw, err := o.gateway.FetchProfiles(ctx, cluster.IndexURL, cluster.QueryURL)
		if err != nil {
			return fmt.Errorf("failed to fetch profiles: %w", err)
		}
		if err := o.ledger.SetTotal(ctx, jobUUID, int64(len(raw))); err != nil {
			return fmt.Errorf("failed to set job total: %w", err)
		}

		stored, err := o.nodes.List(ctx, clusterUUID)
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}
		known := make(map[string]struct{}, len(stored))
		for _, n := range stored {
			known[n.ProfileURL] = struct{}{}
		}

		var counts job.Counts
		batcher := job.NewBatcher(o.ledger, jobUUID, o.batchSize)
		for i, p := range raw {
			if err := o.pacer.Checkpoint(ctx, i); err != nil {
				return err
			}

			if _, ok := known[p.ProfileURL]; !ok {
				created, err := o.createNode(ctx, cluster, p, jobUUID)
				if err != nil {
					return err
				}
				if created != nil {
					known[p.ProfileURL] = struct{}{}
					counts.Created++
				}
			}

			if err := batcher.Tick(ctx, i == len(raw)-1); err != nil {
				return err
			}
		}

		return o.complete(ctx, job.TypeCreateNodes, jobUUID, counts)
	})
}

// createNode normalizes p and inserts it. It returns nil when the profile URL
// could not be normalized and the profile was skipped.
func (o *Orchestrator) createNode(
	ctx context.Context, cluster *node.Cluster, p profile.RawProfile, jobUUID string,
) (*node.Node, error) {
	res, err := o.gateway.ProcessProfile(ctx, p.ProfileURL, cluster.IndexURL)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidProfileURL) {
			slog.Warn("Skipping profile with invalid URL",
				"cluster", cluster.UUID,
				"profile_url", p.ProfileURL,
				"error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to process profile %s: %w", p.ProfileURL, err)
	}

	content := res.Content
	if content == nil {
		content = node.EmptyDocument
	}
	created, err := o.nodes.Create(ctx, node.NewNode{
		ClusterUUID:        cluster.UUID,
		ProfileURL:         p.ProfileURL,
		Content:            content,
		Status:             res.Status,
		LastUpdated:        p.LastUpdated,
		IsAvailable:        res.IsAvailable,
		UnavailableMessage: res.UnavailableMessage,
		LastUpdateJobUUID:  jobUUID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create node %s: %w", p.ProfileURL, err)
	}
	return created, nil
}
