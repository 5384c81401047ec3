package sync

import "errors"

var (
	// ErrEmptyNodeIDs is returned when a status change payload names no nodes.
	ErrEmptyNodeIDs = errors.New("node_ids must be a non-empty array")

	// ErrMissingStatus is returned when a status change payload has no status.
	ErrMissingStatus = errors.New("status is required")

	// ErrNoNodesFound is returned when none of the requested nodes exist in the cluster.
	ErrNoNodesFound = errors.New("no nodes found")

	// ErrUnhandledMessage is returned for messages that do not map to a pass.
	ErrUnhandledMessage = errors.New("Unhandled message type") //nolint:staticcheck // stored verbatim on failed jobs
)
