// Package prune removes uninteresting nodes from an accessibility tree
// according to a policy, and applies a small set of fixed rewrite
// passes that densify common markup patterns (link wrapping a button,
// decorative links, labeled controls with redundant text subtrees).
package prune

import "github.com/polzovatel/a11y-action-space/internal/axtree"

// Prune returns a new tree with the policy applied bottom-up, or nil
// when nothing survives. The input tree is never modified.
func Prune(root *axtree.Node, cfg Config) *axtree.Node {
	if root == nil {
		return nil
	}
	out := pruneNode(root, cfg)
	if out == nil {
		return nil
	}
	if cfg.Texts && out.Role.Category() == axtree.CategoryText {
		if len(out.Children) == 0 {
			return nil
		}
		group := &axtree.Node{Role: axtree.RoleGroup, Children: out.Children}
		return group
	}
	return out
}

func pruneNode(n *axtree.Node, cfg Config) *axtree.Node {
	// prune_roles fires before anything else, subtree included.
	if cfg.Roles[n.Role] {
		return nil
	}
	if cfg.Iframes && n.Role == axtree.RoleIframe {
		return nil
	}

	// Children first: a parent is judged against its surviving children.
	kept := make([]*axtree.Node, 0, len(n.Children))
	for _, ch := range n.Children {
		sub := pruneNode(ch, cfg)
		if sub == nil {
			continue
		}
		if cfg.Texts && sub.Role.Category() == axtree.CategoryText {
			// The text node itself goes, but anything interactive it
			// wrapped (a link inside a heading) is hoisted to keep it
			// reachable.
			kept = append(kept, sub.Children...)
			continue
		}
		kept = append(kept, sub)
	}
	if len(kept) == 0 {
		kept = nil
	}
	out := n.WithChildren(kept)

	for _, pass := range rewritePasses {
		out = pass(out, cfg)
		if out == nil {
			return nil
		}
	}

	if len(out.Children) > 0 {
		// Nodes with surviving children are never pruned outright.
		return out
	}
	if shouldPrune(out, cfg) {
		return nil
	}
	return out
}

// shouldPrune is the per-node policy decision for childless nodes (or
// nodes whose whole subtree was already removed).
func shouldPrune(n *axtree.Node, cfg Config) bool {
	switch n.Role.Category() {
	case axtree.CategoryInteraction:
		return false
	case axtree.CategoryImage:
		return cfg.Images
	case axtree.CategoryText:
		return cfg.Texts || (n.Name == "" && len(n.Children) == 0)
	default:
		// Structural wrappers and the table/list/parameter containers
		// carry no content of their own once their children are gone.
		return cfg.EmptyStructural && len(n.Children) == 0
	}
}
