package sync

import (
	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/profile"
)

// decision is what the update pass does with one fetched profile.
type decision int

const (
	// decisionUnchanged leaves the node alone.
	decisionUnchanged decision = iota
	// decisionSoftDelete flags a live node as deleted.
	decisionSoftDelete
	// decisionIgnoreDeleted is a withdrawn profile with no live node.
	decisionIgnoreDeleted
	// decisionSuppressed skips a node that editors marked ignored.
	decisionSuppressed
	// decisionCreate inserts a node for an unknown profile.
	decisionCreate
	// decisionStage stages fetched content on an existing node.
	decisionStage
)

func (d decision) String() string {
	switch d {
	case decisionUnchanged:
		return "unchanged"
	case decisionSoftDelete:
		return "soft-delete"
	case decisionIgnoreDeleted:
		return "ignore-deleted"
	case decisionSuppressed:
		return "suppressed"
	case decisionCreate:
		return "create"
	case decisionStage:
		return "stage"
	default:
		return "unknown"
	}
}

// classify decides how the update pass treats p given the stored node with
// the same profile URL, which may be nil or soft-deleted.
func classify(p profile.RawProfile, existing *node.Node) decision {
	if p.Status == profile.StatusDeleted {
		if existing != nil && !existing.IsDeleted {
			return decisionSoftDelete
		}
		return decisionIgnoreDeleted
	}
	if existing == nil {
		return decisionCreate
	}
	if existing.IsSuppressed() {
		return decisionSuppressed
	}
	if existing.IsDeleted || existing.LastUpdated != p.LastUpdated {
		return decisionStage
	}
	return decisionUnchanged
}
