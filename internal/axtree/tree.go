package axtree

// StampPaths records every node's (role, name) chain from the root.
// Run once on the raw capture; derived trees inherit the stamps through
// clone and fold so cross-tree sync can address raw nodes precisely.
func (n *Node) StampPaths() {
	if n == nil {
		return
	}
	n.stampPaths(nil)
}

func (n *Node) stampPaths(prefix []PathStep) {
	path := make([]PathStep, len(prefix)+1)
	copy(path, prefix)
	path[len(prefix)] = n.Step()
	n.Path = path
	for _, ch := range n.Children {
		ch.stampPaths(path)
	}
}

// EffectivePath is the recorded path when stamped, else the fallback
// structural path supplied by the traversal.
func (n *Node) EffectivePath(structural []PathStep) []PathStep {
	if len(n.Path) > 0 {
		return n.Path
	}
	return structural
}

// Find returns the first node with the given ID in pre-order, or nil.
func (n *Node) Find(id string) *Node {
	if n == nil || id == "" {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, ch := range n.Children {
		if found := ch.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// PathTo returns the chain of nodes from the root down to the node with
// the given ID, inclusive, or nil when the ID is absent. The slice is
// freshly allocated; callers may keep it.
func (n *Node) PathTo(id string) []*Node {
	if n == nil || id == "" {
		return nil
	}
	if n.ID == id {
		return []*Node{n}
	}
	for _, ch := range n.Children {
		if tail := ch.PathTo(id); tail != nil {
			return append([]*Node{n}, tail...)
		}
	}
	return nil
}

// Flatten collects all nodes satisfying pred in pre-order, self included.
func (n *Node) Flatten(pred func(*Node) bool) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	n.walk(func(node *Node) {
		if pred(node) {
			out = append(out, node)
		}
	})
	return out
}

func (n *Node) walk(visit func(*Node)) {
	visit(n)
	for _, ch := range n.Children {
		ch.walk(visit)
	}
}

// SubtreeFilter rebuilds the tree keeping every node whose subtree
// contains at least one node satisfying pred. Ancestors of a kept node
// are kept structurally even when they fail pred themselves, preserving
// reachability. Returns nil when nothing survives. The input tree is not
// modified; untouched subtrees are shared.
func (n *Node) SubtreeFilter(pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	kept := make([]*Node, 0, len(n.Children))
	changed := false
	for _, ch := range n.Children {
		sub := ch.SubtreeFilter(pred)
		if sub != nil {
			kept = append(kept, sub)
		}
		if sub != ch {
			changed = true
		}
	}
	if len(kept) == 0 && !pred(n) {
		return nil
	}
	if !changed {
		return n
	}
	if len(kept) == 0 {
		kept = nil
	}
	return n.WithChildren(kept)
}

// SubtreeWithout filters out every subtree rooted at one of the excluded
// roles, keeping the rest of the structure intact.
func (n *Node) SubtreeWithout(excluded map[Role]bool) *Node {
	if n == nil {
		return nil
	}
	if excluded[n.Role] {
		return nil
	}
	kept := make([]*Node, 0, len(n.Children))
	changed := false
	for _, ch := range n.Children {
		sub := ch.SubtreeWithout(excluded)
		if sub != nil {
			kept = append(kept, sub)
		}
		if sub != ch {
			changed = true
		}
	}
	if !changed {
		return n
	}
	if len(kept) == 0 {
		kept = nil
	}
	return n.WithChildren(kept)
}
