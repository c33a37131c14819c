package depgraph

import (
	"testing"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	g, err := NewGraph(s, nil)
	require.NoError(t, err)
	return g
}

func TestRegisterCreatesNodeAtVersionOne(t *testing.T) {
	g := newTestGraph(t)
	node, err := g.Register("erd-1", artifacttype.ERD, "erd content", map[string]string{"source": "generation"})
	require.NoError(t, err)
	assert.Equal(t, 1, node.Version)
	assert.NotEmpty(t, node.ContentHash)
}

func TestRegisterUnchangedContentDoesNotBumpVersionOrTouch(t *testing.T) {
	g := newTestGraph(t)
	first, err := g.Register("erd-1", artifacttype.ERD, "erd content", nil)
	require.NoError(t, err)

	second, err := g.Register("erd-1", artifacttype.ERD, "erd content", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestRegisterChangedContentBumpsVersion(t *testing.T) {
	g := newTestGraph(t)
	first, err := g.Register("erd-1", artifacttype.ERD, "v1", nil)
	require.NoError(t, err)

	second, err := g.Register("erd-1", artifacttype.ERD, "v2", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Version+1, second.Version)
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
}

func TestRegisterAutoLinksExistingUpstreamNodes(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.Register("erd-1", artifacttype.ERD, "erd content", nil)
	require.NoError(t, err)

	_, err = g.Register("api-1", artifacttype.APIDocs, "api content", nil)
	require.NoError(t, err)

	downstream := g.directDownstreamIDs("erd-1")
	assert.Contains(t, downstream, "api-1")
}

func TestRegisterDoesNotBacklinkToArtifactsRegisteredBeforeTheirUpstream(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.Register("api-1", artifacttype.APIDocs, "api content", nil)
	require.NoError(t, err)

	// auto_link only looks at the *new* node's upstream types and links
	// from existing upstream nodes to it (spec.md §4.8); it never walks
	// backward to link a newly registered upstream node to artifacts that
	// already existed before it.
	_, err = g.Register("erd-1", artifacttype.ERD, "erd content", nil)
	require.NoError(t, err)

	downstream := g.directDownstreamIDs("erd-1")
	assert.NotContains(t, downstream, "api-1")
}

func TestAddLinkIsIdempotent(t *testing.T) {
	g := newTestGraph(t)
	require.NoError(t, g.AddLink("a", "b"))
	require.NoError(t, g.AddLink("a", "b"))
	assert.Len(t, g.links, 1)
}

func TestCheckStalenessDetectsNewerUpstream(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.Register("erd-1", artifacttype.ERD, "erd v1", nil)
	require.NoError(t, err)
	_, err = g.Register("api-1", artifacttype.APIDocs, "api v1", nil)
	require.NoError(t, err)

	report, err := g.CheckStaleness("api-1")
	require.NoError(t, err)
	assert.False(t, report.IsStale)

	// Force erd-1's updated_at strictly after api-1's.
	g.mu.Lock()
	erd := g.nodes["erd-1"]
	erd.UpdatedAt = g.nodes["api-1"].UpdatedAt.Add(time.Minute)
	g.nodes["erd-1"] = erd
	g.mu.Unlock()

	report, err = g.CheckStaleness("api-1")
	require.NoError(t, err)
	assert.True(t, report.IsStale)
	assert.Contains(t, report.StaleUpstreams, "erd-1")
	assert.NotEmpty(t, report.Reason)
	assert.NotEmpty(t, report.Recommendation)
	require.NotNil(t, report.StaleSince)
	assert.Equal(t, g.nodes["erd-1"].UpdatedAt, *report.StaleSince)
	require.Len(t, report.UpstreamChanges, 1)
	assert.Equal(t, "erd-1", report.UpstreamChanges[0].ID)
	assert.Equal(t, artifacttype.ERD, report.UpstreamChanges[0].Type)
}

// TestCheckStalenessReportsUpstreamVersionAfterRegeneration matches spec.md
// §8 scenario 4: register erd v1, then api_docs v1 (auto-linked upstream =
// ERD), re-register erd with different content to bump it to v2, and expect
// stale_since/upstream_changes to reflect the v2 registration.
func TestCheckStalenessReportsUpstreamVersionAfterRegeneration(t *testing.T) {
	g := newTestGraph(t)

	erd, err := g.Register("erd-1", artifacttype.ERD, "erd v1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, erd.Version)

	_, err = g.Register("api-1", artifacttype.APIDocs, "api v1", nil)
	require.NoError(t, err)

	erdV2, err := g.Register("erd-1", artifacttype.ERD, "erd v2 — different content", nil)
	require.NoError(t, err)
	require.Equal(t, 2, erdV2.Version)

	report, err := g.CheckStaleness("api-1")
	require.NoError(t, err)
	assert.True(t, report.IsStale)
	require.NotNil(t, report.StaleSince)
	assert.Equal(t, erdV2.UpdatedAt, *report.StaleSince)
	require.Len(t, report.UpstreamChanges, 1)
	assert.Equal(t, "erd-1", report.UpstreamChanges[0].ID)
	assert.Equal(t, 2, report.UpstreamChanges[0].Version)
}

func TestGetImpactAnalysisReportsDepth(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.Register("erd-1", artifacttype.ERD, "erd", nil)
	require.NoError(t, err)
	_, err = g.Register("api-1", artifacttype.APIDocs, "api", nil)
	require.NoError(t, err)
	_, err = g.Register("code-1", artifacttype.CodePrototype, "code", nil)
	require.NoError(t, err)

	impact, err := g.GetImpactAnalysis("erd-1")
	require.NoError(t, err)

	depthByID := make(map[string]int)
	for _, e := range impact {
		depthByID[e.ArtifactID] = e.Depth
	}
	assert.Equal(t, 1, depthByID["api-1"])
	assert.Equal(t, 1, depthByID["code-1"]) // ERD links directly to code-prototype too
}

func TestGetDependencyTreeBuildsForestFromRoots(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.Register("erd-1", artifacttype.ERD, "erd", nil)
	require.NoError(t, err)
	_, err = g.Register("api-1", artifacttype.APIDocs, "api", nil)
	require.NoError(t, err)

	forest, err := g.GetDependencyTree("")
	require.NoError(t, err)

	require.Len(t, forest, 1, "api-1 has an incoming edge so only erd-1 is a root")
	assert.Equal(t, "erd-1", forest[0].ArtifactID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "api-1", forest[0].Children[0].ArtifactID)
}

func TestGetDependencyTreeTagsCircularWithoutInfiniteRecursion(t *testing.T) {
	g := newTestGraph(t)
	require.NoError(t, g.AddLink("a", "b"))
	require.NoError(t, g.AddLink("b", "a"))

	g.mu.Lock()
	g.nodes["a"] = ArtifactNode{ID: "a", Type: artifacttype.ERD, Version: 1}
	g.nodes["b"] = ArtifactNode{ID: "b", Type: artifacttype.APIDocs, Version: 1}
	g.mu.Unlock()

	tree, err := g.GetDependencyTree("a")
	require.NoError(t, err)
	require.Len(t, tree, 1)

	require.Len(t, tree[0].Children, 1)
	b := tree[0].Children[0]
	assert.Equal(t, "b", b.ArtifactID)
	require.Len(t, b.Children, 1)
	loopBack := b.Children[0]
	assert.Equal(t, "a", loopBack.ArtifactID)
	assert.True(t, loopBack.Circular)
	assert.Empty(t, loopBack.Children)
}

func TestCheckStalenessUnknownArtifactErrors(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.CheckStaleness("missing")
	assert.Error(t, err)
}
