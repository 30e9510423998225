package axtree

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// RebuildSubtreeIDs recomputes SubtreeIDs bottom-up for the whole tree
// and returns the root set. It must be re-run after any pass that adds
// or removes IDs or children; the per-node invariant is
// set(node) == {node.ID} ∪ union(set(child)).
func (n *Node) RebuildSubtreeIDs() mapset.Set[string] {
	if n == nil {
		return mapset.NewThreadUnsafeSet[string]()
	}
	set := mapset.NewThreadUnsafeSet[string]()
	if n.ID != "" {
		set.Add(n.ID)
	}
	for _, ch := range n.Children {
		set = set.Union(ch.RebuildSubtreeIDs())
	}
	n.SubtreeIDs = set
	return set
}

// SubtreeContains reports whether the given ID was assigned anywhere in
// this subtree. Requires RebuildSubtreeIDs to have run.
func (n *Node) SubtreeContains(id string) bool {
	return n != nil && n.SubtreeIDs != nil && n.SubtreeIDs.Contains(id)
}

// DescendTo walks from the root to the node carrying the given ID using
// the subtree ID sets, returning the root-inclusive chain. It is the
// O(depth) counterpart of PathTo and falls back to a full search when
// the sets are missing.
func (n *Node) DescendTo(id string) []*Node {
	if n == nil || id == "" {
		return nil
	}
	if n.SubtreeIDs == nil {
		return n.PathTo(id)
	}
	if !n.SubtreeIDs.Contains(id) {
		return nil
	}
	chain := []*Node{n}
	cur := n
outer:
	for cur.ID != id {
		for _, ch := range cur.Children {
			if ch.SubtreeContains(id) {
				chain = append(chain, ch)
				cur = ch
				continue outer
			}
		}
		// Sets out of date with the tree shape.
		return n.PathTo(id)
	}
	return chain
}

// AllIDs returns every assigned ID in the subtree as a set, independent
// of whether RebuildSubtreeIDs has run.
func (n *Node) AllIDs() mapset.Set[string] {
	out := mapset.NewThreadUnsafeSet[string]()
	if n == nil {
		return out
	}
	n.walk(func(node *Node) {
		if node.ID != "" {
			out.Add(node.ID)
		}
	})
	return out
}
