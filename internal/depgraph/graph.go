package depgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/auditlog"
	"github.com/localforge/artisan/internal/store"
)

const graphDoc = "graph.json"

// graphDocument is the single persisted JSON document holding the whole
// graph, per spec.md §4.8's "persisted as a single JSON document".
type graphDocument struct {
	Nodes map[string]ArtifactNode `json:"nodes"`
	Links []ArtifactLink          `json:"links"`
}

// Graph owns every registered artifact node and the links between them.
// A single mutex covers both maps: auto-linking must happen within the
// same critical section as node creation per spec.md §5's ordering
// guarantee.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]ArtifactNode
	links []ArtifactLink
	store *store.Store
	audit *auditlog.Trail
}

// NewGraph constructs a Graph, loading prior state from s if present. A
// nil store is permitted for in-memory-only use (tests).
func NewGraph(s *store.Store, audit *auditlog.Trail) (*Graph, error) {
	g := &Graph{nodes: make(map[string]ArtifactNode), store: s, audit: audit}

	if s == nil || !s.Exists(graphDoc) {
		return g, nil
	}

	var doc graphDocument
	if err := s.ReadJSON(graphDoc, &doc); err != nil {
		return nil, err
	}
	if doc.Nodes != nil {
		g.nodes = doc.Nodes
	}
	g.links = doc.Links

	return g, nil
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// RegisterArtifact implements orchestrator.GraphRegistrar, discarding the
// created/updated node. Use Register directly when the caller (C9, the
// app composition root) wants the node back.
func (g *Graph) RegisterArtifact(id string, t artifacttype.Name, content string, metadata map[string]string) error {
	_, err := g.Register(id, t, content, metadata)
	return err
}

// Register implements spec.md §4.8's register_artifact: create the node if
// id is new, bump its version if content changed, and always auto-link it
// to every existing upstream node of a type this type's entry names as
// downstream.
func (g *Graph) Register(id string, t artifacttype.Name, content string, metadata map[string]string) (ArtifactNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	hash := contentHash(content)

	node, existed := g.nodes[id]
	switch {
	case !existed:
		node = ArtifactNode{
			ID:          id,
			Type:        t,
			ContentHash: hash,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
			Metadata:    metadata,
		}
	case node.ContentHash != hash:
		node.ContentHash = hash
		node.Version++
		node.UpdatedAt = now
		node.Metadata = metadata
	default:
		// Unchanged content still refreshes metadata, but updated_at must
		// not advance: staleness is judged by content changes, not touches.
		node.Metadata = metadata
	}
	g.nodes[id] = node

	g.autoLinkLocked(node)

	if err := g.persistLocked(); err != nil {
		return node, err
	}

	if g.audit != nil {
		g.audit.Record(auditlog.Event{
			Type: auditlog.EventArtifactLinked, Category: auditlog.CategoryGraph,
			ArtifactID: id, Target: string(t), Success: true,
		})
	}

	return node, nil
}

// autoLinkLocked adds a depends_on link from every existing node whose
// type the dependency table names as upstream of node's type. Must be
// called with g.mu held.
func (g *Graph) autoLinkLocked(node ArtifactNode) {
	upstreamTypes := upstreamTypesOf(node.Type)
	if len(upstreamTypes) == 0 {
		return
	}

	upstreamSet := make(map[artifacttype.Name]bool, len(upstreamTypes))
	for _, t := range upstreamTypes {
		upstreamSet[t] = true
	}

	for _, candidate := range g.nodes {
		if candidate.ID == node.ID || !upstreamSet[candidate.Type] {
			continue
		}
		g.addLinkLocked(candidate.ID, node.ID)
	}
}

// AddLink adds a depends_on link from src to tgt, idempotent on the pair.
func (g *Graph) AddLink(src, tgt string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addLinkLocked(src, tgt)
	return g.persistLocked()
}

func (g *Graph) addLinkLocked(src, tgt string) {
	for _, l := range g.links {
		if l.Source == src && l.Target == tgt {
			return
		}
	}
	g.links = append(g.links, ArtifactLink{Source: src, Target: tgt, Type: DependsOn})
}

// Get returns a single node by id.
func (g *Graph) Get(id string) (ArtifactNode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) persistLocked() error {
	if g.store == nil {
		return nil
	}
	return g.store.WriteJSON(graphDoc, graphDocument{Nodes: g.nodes, Links: g.links})
}
