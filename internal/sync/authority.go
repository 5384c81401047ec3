package sync

import (
	"log/slog"

	"github.com/stacklok/nodesync/internal/node"
	"github.com/stacklok/nodesync/internal/profile"
)

// BuildAuthorityMap returns the hosts that claim themselves: a live node whose
// accepted primary_url is on the same host as its profile URL makes that host
// authoritative. Nodes with unparsable URLs are skipped.
func BuildAuthorityMap(nodes []*node.Node) map[string]struct{} {
	hosts := make(map[string]struct{})
	for _, n := range nodes {
		if n.IsDeleted {
			continue
		}
		primaryURL := profile.PrimaryURL(n.Content.Accepted)
		if primaryURL == "" {
			continue
		}
		profileHost, err := profile.Host(n.ProfileURL)
		if err != nil {
			slog.Warn("Invalid profile URL in node", "node_id", n.ID, "error", err)
			continue
		}
		primaryHost, err := profile.Host(primaryURL)
		if err != nil {
			slog.Warn("Invalid primary URL in node", "node_id", n.ID, "error", err)
			continue
		}
		if profileHost == primaryHost {
			hosts[primaryHost] = struct{}{}
		}
	}
	return hosts
}

// authorityPatch returns the change needed for n under hosts, or nil when its
// authority is unchanged. Losing authority demotes the node to ignore and
// accepts its latest content. Gaining authority leaves the status alone.
func authorityPatch(hosts map[string]struct{}, n *node.Node, jobUUID string) *node.Patch {
	hasAuthority := profile.CheckAuthority(hosts, profile.PrimaryURL(n.Content.Latest()), n.ProfileURL)
	if hasAuthority == n.HasAuthority {
		return nil
	}

	patch := &node.Patch{
		HasAuthority:               node.Ptr(hasAuthority),
		LastAuthorityChangeJobUUID: node.Ptr(jobUUID),
	}
	if !hasAuthority {
		accepted := n.Content.Accept()
		patch.Content = &accepted
		patch.Status = node.Ptr(node.StatusIgnore)
	}
	return patch
}
