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

// updateRun carries the state of one UpdateNodes pass.
type updateRun struct {
	o       *Orchestrator
	cluster *node.Cluster
	jobUUID string
	counts  job.Counts
}

// UpdateNodes runs an incremental sync of the cluster: it classifies the
// profiles changed since the last successful pass, re-checks unavailable
// nodes, reconciles authority and finally stamps the cluster with the pass
// start time.
func (o *Orchestrator) UpdateNodes(ctx context.Context, clusterUUID, jobUUID string) error {
	return o.run(ctx, job.TypeUpdateNodes, clusterUUID, jobUUID, func(ctx context.Context) error {
		start := o.now()

		cluster, err := o.loadCluster(ctx, clusterUUID)
		if err != nil {
			return err
		}

		stored, err := o.nodes.List(ctx, clusterUUID)
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}
		existing := liveNodes(stored)

		query := profile.BuildSinceQuery(cluster.QueryURL, cluster.LastUpdated)
		fetched, err := o.gateway.FetchProfiles(ctx, cluster.IndexURL, query)
		if err != nil {
			return fmt.Errorf("failed to fetch profiles: %w", err)
		}

		if err := o.ledger.SetTotal(ctx, jobUUID, estimateTotal(fetched, existing)); err != nil {
			return fmt.Errorf("failed to set job total: %w", err)
		}

		r := &updateRun{o: o, cluster: cluster, jobUUID: jobUUID}
		if err := r.classifyAll(ctx, fetched, stored); err != nil {
			return err
		}
		if err := r.recheckUnavailable(ctx); err != nil {
			return err
		}
		if err := r.reconcileAuthority(ctx, existing); err != nil {
			return err
		}

		if err := o.clusters.UpdateTimestamp(ctx, cluster.UUID, start.Unix()); err != nil {
			return fmt.Errorf("failed to update cluster timestamp: %w", err)
		}
		return o.complete(ctx, job.TypeUpdateNodes, jobUUID, r.counts)
	})
}

// estimateTotal approximates the work of an update pass. Each fetched profile
// is counted once for classification and once for authority; existing nodes
// are counted for authority and unavailable ones for the recheck.
func estimateTotal(fetched []profile.RawProfile, existing []*node.Node) int64 {
	unavailable := 0
	for _, n := range existing {
		if !n.IsAvailable {
			unavailable++
		}
	}
	return int64(len(fetched) + len(existing) + len(fetched) + unavailable)
}

func liveNodes(nodes []*node.Node) []*node.Node {
	live := make([]*node.Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsDeleted {
			live = append(live, n)
		}
	}
	return live
}

func (r *updateRun) classifyAll(ctx context.Context, fetched []profile.RawProfile, stored []*node.Node) error {
	byURL := make(map[string]*node.Node, len(stored))
	for _, n := range stored {
		byURL[n.ProfileURL] = n
	}

	batcher := job.NewBatcher(r.o.ledger, r.jobUUID, r.o.batchSize)
	for i, p := range fetched {
		if err := r.o.pacer.Checkpoint(ctx, i); err != nil {
			return err
		}

		existing := byURL[p.ProfileURL]
		d := classify(p, existing)
		slog.Debug("Classified profile",
			"cluster", r.cluster.UUID,
			"profile_url", p.ProfileURL,
			"decision", d.String())
		created, err := r.apply(ctx, d, p, existing)
		if err != nil {
			return err
		}
		if created != nil {
			// A repeated profile later in the listing is then compared, not inserted twice.
			byURL[p.ProfileURL] = created
		}

		if err := batcher.Tick(ctx, i == len(fetched)-1); err != nil {
			return err
		}
	}
	return nil
}

// apply carries out d. It returns the inserted node for decisionCreate.
func (r *updateRun) apply(ctx context.Context, d decision, p profile.RawProfile, existing *node.Node) (*node.Node, error) {
	switch d {
	case decisionSoftDelete:
		if err := r.o.nodes.SoftDelete(ctx, r.cluster.UUID, p.ProfileURL, r.jobUUID); err != nil {
			return nil, fmt.Errorf("failed to delete node %s: %w", p.ProfileURL, err)
		}
		r.counts.Deleted++
	case decisionCreate:
		created, err := r.o.createNode(ctx, r.cluster, p, r.jobUUID)
		if err != nil {
			return nil, err
		}
		if created != nil {
			r.counts.Created++
		}
		return created, nil
	case decisionStage:
		staged, err := r.stage(ctx, p, existing)
		if err != nil {
			return nil, err
		}
		if staged {
			r.counts.Updated++
		}
	case decisionUnchanged, decisionIgnoreDeleted, decisionSuppressed:
	}
	return nil, nil
}

// stage re-fetches p and stages its content on existing. The write only
// applies while the stored lastUpdated is the one read at pass start.
func (r *updateRun) stage(ctx context.Context, p profile.RawProfile, existing *node.Node) (bool, error) {
	res, err := r.o.gateway.ProcessProfile(ctx, p.ProfileURL, r.cluster.IndexURL)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidProfileURL) {
			slog.Warn("Skipping profile with invalid URL",
				"cluster", r.cluster.UUID,
				"profile_url", p.ProfileURL,
				"error", err)
			return false, nil
		}
		return false, fmt.Errorf("failed to process profile %s: %w", p.ProfileURL, err)
	}

	patch := node.Patch{
		LastUpdated:        node.Ptr(p.LastUpdated),
		IsAvailable:        node.Ptr(res.IsAvailable),
		UnavailableMessage: res.UnavailableMessage,
		IsDeleted:          node.Ptr(false),
		LastUpdateJobUUID:  node.Ptr(r.jobUUID),
	}
	if res.Content != nil {
		staged := existing.Content.Stage(res.Content)
		patch.Content = &staged
	}

	ok, err := r.o.nodes.StageUpdate(ctx, r.cluster.UUID, existing.ID, existing.LastUpdated, patch)
	if err != nil {
		return false, fmt.Errorf("failed to stage update of node %s: %w", p.ProfileURL, err)
	}
	if !ok {
		slog.Warn("Node changed since pass start, update not staged",
			"cluster", r.cluster.UUID,
			"job", r.jobUUID,
			"node_id", existing.ID)
	}
	return ok, nil
}

// recheckUnavailable re-fetches every live node whose last retrieval failed.
func (r *updateRun) recheckUnavailable(ctx context.Context) error {
	unavailable, err := r.o.nodes.ListUnavailable(ctx, r.cluster.UUID)
	if err != nil {
		return fmt.Errorf("failed to list unavailable nodes: %w", err)
	}

	batcher := job.NewBatcher(r.o.ledger, r.jobUUID, r.o.recheckBatchSize)
	for i, n := range unavailable {
		if err := r.o.pacer.Checkpoint(ctx, i); err != nil {
			return err
		}
		if err := r.recheck(ctx, n); err != nil {
			return err
		}
		if err := batcher.Tick(ctx, i == len(unavailable)-1); err != nil {
			return err
		}
	}
	return nil
}

func (r *updateRun) recheck(ctx context.Context, n *node.Node) error {
	res, err := r.o.gateway.ProcessProfile(ctx, n.ProfileURL, r.cluster.IndexURL)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidProfileURL) {
			slog.Warn("Skipping recheck of node with invalid URL",
				"cluster", r.cluster.UUID,
				"node_id", n.ID,
				"error", err)
			return nil
		}
		return fmt.Errorf("failed to process profile %s: %w", n.ProfileURL, err)
	}

	patch := node.Patch{
		IsAvailable:                 node.Ptr(res.IsAvailable),
		UnavailableMessage:          res.UnavailableMessage,
		LastUnavailableCheckJobUUID: node.Ptr(r.jobUUID),
	}
	if res.Content != nil {
		var content node.Content
		if n.Content.HasPending() {
			content = n.Content.Stage(res.Content)
		} else {
			content = node.NewContent(res.Content)
		}
		patch.Content = &content
	}

	if err := r.o.nodes.Update(ctx, r.cluster.UUID, n.ID, patch); err != nil {
		return fmt.Errorf("failed to update node %d: %w", n.ID, err)
	}
	r.counts.UnavailableChecked++
	return nil
}

// reconcileAuthority evaluates authority for the nodes that existed at pass
// start and then for the nodes this job created or updated.
func (r *updateRun) reconcileAuthority(ctx context.Context, existing []*node.Node) error {
	stored, err := r.o.nodes.List(ctx, r.cluster.UUID)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	snapshot := liveNodes(stored)
	hosts := BuildAuthorityMap(snapshot)

	current := make(map[int64]*node.Node, len(snapshot))
	for _, n := range snapshot {
		current[n.ID] = n
	}
	refreshed := make([]*node.Node, 0, len(existing))
	for _, n := range existing {
		if c, ok := current[n.ID]; ok {
			refreshed = append(refreshed, c)
		}
	}

	if err := r.reconcile(ctx, hosts, refreshed); err != nil {
		return err
	}

	touched, err := r.o.nodes.ListByLastUpdateJob(ctx, r.cluster.UUID, r.jobUUID)
	if err != nil {
		return fmt.Errorf("failed to list nodes updated by job: %w", err)
	}
	return r.reconcile(ctx, hosts, touched)
}

func (r *updateRun) reconcile(ctx context.Context, hosts map[string]struct{}, nodes []*node.Node) error {
	batcher := job.NewBatcher(r.o.ledger, r.jobUUID, r.o.batchSize)
	for i, n := range nodes {
		if err := r.o.pacer.Checkpoint(ctx, i); err != nil {
			return err
		}

		if patch := authorityPatch(hosts, n, r.jobUUID); patch != nil {
			if err := r.o.nodes.Update(ctx, r.cluster.UUID, n.ID, *patch); err != nil {
				return fmt.Errorf("failed to update authority of node %d: %w", n.ID, err)
			}
			r.counts.AuthorityChanged++
			slog.Debug("Node authority changed",
				"cluster", r.cluster.UUID,
				"node_id", n.ID,
				"has_authority", *patch.HasAuthority)
		}

		if err := batcher.Tick(ctx, i == len(nodes)-1); err != nil {
			return err
		}
	}
	return nil
}
