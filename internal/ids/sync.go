package ids

import (
	"strings"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// Sync propagates every ID assigned in source onto the structurally
// equivalent nodes of target and returns the relabeled copy of target.
// Equivalence is the full ancestor path of (role, name) pairs from the
// root down to the node.
//
// For each ID-bearing source node: zero path matches in target is an
// InconsistencyError; a match already carrying the same ID is accepted;
// otherwise the first unlabeled match in target pre-order receives the
// ID; if every match is labeled with a different ID, that is an
// InconsistencyError too. Sync is idempotent.
func Sync(target, source *axtree.Node) (*axtree.Node, error) {
	if source == nil {
		return target, nil
	}
	if target == nil {
		return nil, &InconsistencyError{
			Role:   source.Role,
			Name:   source.Name,
			Reason: "target tree is empty",
		}
	}

	out := target.Clone()
	index := make(map[string][]*axtree.Node)
	indexPaths(out, nil, index)

	var syncErr error
	walkWithPath(source, nil, func(n *axtree.Node, structural []axtree.PathStep) bool {
		if n.ID == "" {
			return true
		}
		// Folded nodes keep the path recorded on the raw tree; that is
		// the address that still exists in target.
		path := n.EffectivePath(structural)
		matches := index[pathKey(path)]
		if len(matches) == 0 {
			syncErr = &InconsistencyError{
				Role:   n.Role,
				Name:   n.Name,
				Path:   axtree.PathString(path),
				Reason: "no node on this path in target",
			}
			return false
		}
		var unlabeled *axtree.Node
		for _, m := range matches {
			if m.ID == n.ID {
				return true
			}
			if m.ID == "" && unlabeled == nil {
				unlabeled = m
			}
		}
		if unlabeled == nil {
			syncErr = &InconsistencyError{
				Role:   n.Role,
				Name:   n.Name,
				Path:   axtree.PathString(path),
				Reason: "every path match already carries a different id",
			}
			return false
		}
		unlabeled.ID = n.ID
		return true
	})
	if syncErr != nil {
		return nil, syncErr
	}

	out.RebuildSubtreeIDs()
	return out, nil
}

// walkWithPath visits pre-order with the node's own step included in
// path. Returning false from visit stops the walk.
func walkWithPath(n *axtree.Node, prefix []axtree.PathStep, visit func(*axtree.Node, []axtree.PathStep) bool) bool {
	path := append(prefix, n.Step())
	if !visit(n, path) {
		return false
	}
	for _, ch := range n.Children {
		if !walkWithPath(ch, path, visit) {
			return false
		}
	}
	return true
}

// indexPaths records every node of the tree under its full path key, in
// pre-order, so "first match" has a stable meaning. Stamped paths win
// over structural ones for the same reason as in the source walk.
func indexPaths(n *axtree.Node, prefix []axtree.PathStep, index map[string][]*axtree.Node) {
	structural := append(prefix, n.Step())
	key := pathKey(n.EffectivePath(structural))
	index[key] = append(index[key], n)
	for _, ch := range n.Children {
		indexPaths(ch, structural, index)
	}
}

func pathKey(path []axtree.PathStep) string {
	var b strings.Builder
	for i, s := range path {
		if i > 0 {
			b.WriteByte('\x1e')
		}
		b.WriteString(string(s.Role))
		b.WriteByte('\x1f')
		b.WriteString(s.Name)
	}
	return b.String()
}
