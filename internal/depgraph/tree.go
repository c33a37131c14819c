package depgraph

import "fmt"

// GetDependencyTree implements spec.md §4.8's get_dependency_tree: with an
// empty root it returns the full forest (one tree per node with no
// incoming edge); with a root it returns that node's subtree. Every node
// is tagged with is_stale and version; a node reached a second time along
// the same path is tagged circular and not recursed into again.
func (g *Graph) GetDependencyTree(root string) ([]*TreeNode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if root != "" {
		if _, ok := g.nodes[root]; !ok {
			return nil, fmt.Errorf("unknown artifact %q", root)
		}
		return []*TreeNode{g.buildTreeLocked(root, map[string]bool{})}, nil
	}

	hasIncoming := make(map[string]bool)
	for _, l := range g.links {
		hasIncoming[l.Target] = true
	}

	var forest []*TreeNode
	for id := range g.nodes {
		if hasIncoming[id] {
			continue
		}
		forest = append(forest, g.buildTreeLocked(id, map[string]bool{}))
	}
	return forest, nil
}

// buildTreeLocked recursively builds the subtree rooted at id. ancestors
// tracks the current recursion path so a cycle is tagged rather than
// walked forever; it is not shared across sibling calls, so the same
// node reached via two different branches is still expanded both times.
func (g *Graph) buildTreeLocked(id string, ancestors map[string]bool) *TreeNode {
	node := g.nodes[id]

	tree := &TreeNode{
		ArtifactID: id,
		Type:       node.Type,
		Version:    node.Version,
		IsStale:    g.isStaleLocked(id),
	}

	if ancestors[id] {
		tree.Circular = true
		return tree
	}

	childAncestors := make(map[string]bool, len(ancestors)+1)
	for a := range ancestors {
		childAncestors[a] = true
	}
	childAncestors[id] = true

	for _, childID := range g.directDownstreamIDs(id) {
		tree.Children = append(tree.Children, g.buildTreeLocked(childID, childAncestors))
	}

	return tree
}

// isStaleLocked is CheckStaleness's comparison without its own lock, for
// use from call sites that already hold g.mu.
func (g *Graph) isStaleLocked(id string) bool {
	node, ok := g.nodes[id]
	if !ok {
		return false
	}
	for _, upID := range g.directUpstreamIDs(id) {
		if up, ok := g.nodes[upID]; ok && up.UpdatedAt.After(node.UpdatedAt) {
			return true
		}
	}
	return false
}
