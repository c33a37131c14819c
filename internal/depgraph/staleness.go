package depgraph

import (
	"fmt"
	"time"
)

const (
	staleReasonUpstreamChanged = "one or more upstream artifacts changed since this artifact was last generated"
	staleReasonUpToDate        = "no upstream artifact has changed since this artifact was last generated"
	staleRecommendation        = "regenerate this artifact to incorporate the upstream changes"
)

// directUpstreamIDs returns the IDs of every node with a depends_on link
// into id. Must be called with g.mu held.
func (g *Graph) directUpstreamIDs(id string) []string {
	var upstream []string
	for _, l := range g.links {
		if l.Target == id {
			upstream = append(upstream, l.Source)
		}
	}
	return upstream
}

// directDownstreamIDs returns the IDs of every node id has a depends_on
// link into. Must be called with g.mu held.
func (g *Graph) directDownstreamIDs(id string) []string {
	var downstream []string
	for _, l := range g.links {
		if l.Source == id {
			downstream = append(downstream, l.Target)
		}
	}
	return downstream
}

// CheckStaleness implements spec.md §4.8's check_staleness: id is stale
// iff any direct upstream node's updated_at is strictly after id's own.
func (g *Graph) CheckStaleness(id string) (StalenessReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return StalenessReport{}, fmt.Errorf("unknown artifact %q", id)
	}

	report := StalenessReport{ArtifactID: id}
	var staleSince *time.Time
	for _, upID := range g.directUpstreamIDs(id) {
		up, ok := g.nodes[upID]
		if !ok {
			continue
		}
		if up.UpdatedAt.After(node.UpdatedAt) {
			report.IsStale = true
			report.StaleUpstreams = append(report.StaleUpstreams, upID)
			report.UpstreamChanges = append(report.UpstreamChanges, UpstreamChange{
				ID: up.ID, Type: up.Type, UpdatedAt: up.UpdatedAt, Version: up.Version,
			})
			if staleSince == nil || up.UpdatedAt.After(*staleSince) {
				t := up.UpdatedAt
				staleSince = &t
			}
		}
	}

	if report.IsStale {
		report.Reason = staleReasonUpstreamChanged
		report.StaleSince = staleSince
		report.Recommendation = staleRecommendation
	} else {
		report.Reason = staleReasonUpToDate
	}
	return report, nil
}
