// Package sync reconciles the nodes of a cluster against its external profile
// index and records the work on a job.
//
// # Passes
//
// The Orchestrator runs one of three passes per job:
//
//   - CreateNodes: initial import of every profile the index lists.
//   - UpdateNodes: incremental sync since the cluster's last successful update.
//     Profiles are classified against stored nodes, unavailable nodes are
//     re-fetched and authority is reconciled across the cluster.
//   - UpdateNodeStatuses: bulk editorial status change driven by the job payload.
//
// # Content staging
//
// An update never overwrites a node's accepted document. Fetched changes are
// staged as pending content and only merged when the node is demoted for lost
// authority (or accepted elsewhere by an editor).
//
// # Progress and pacing
//
// Progress is buffered through a job.Batcher and written to the ledger in
// batches. Long passes pause at Pacer checkpoints so they share the backing
// store with other work.
//
// # Dispatch
//
// The Dispatcher maps inbound queue messages to passes. It never returns an
// error for a failed job; failures are recorded on the job itself.
package sync
