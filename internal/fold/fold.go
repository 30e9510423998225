// Package fold collapses structurally redundant wrappers and merges
// semantically duplicate nodes into a denser tree. It runs after
// pruning and before ID assignment; it is deterministic and never
// reorders siblings, since consumers read pre-order as reading order.
package fold

import (
	"github.com/polzovatel/a11y-action-space/internal/axtree"
	"github.com/polzovatel/a11y-action-space/internal/prune"
)

// minGroupChildren is the tuned threshold for marking a parent as a
// homogeneous group of its dominant child role.
const minGroupChildren = 2

// Fold returns a new, denser tree. The input is not modified.
func Fold(root *axtree.Node, cfg prune.Config) *axtree.Node {
	if root == nil {
		return nil
	}
	return foldNode(root, cfg, nil, true)
}

// foldNode rebuilds bottom-up. labels carries the names of text and
// heading ancestors for name de-duplication; ancestor context is always
// an explicit parameter, never a parent pointer. The root is never
// merged into its only child so every observation keeps its document
// node.
func foldNode(n *axtree.Node, cfg prune.Config, labels map[string]bool, isRoot bool) *axtree.Node {
	childLabels := labels
	if isLabelBearer(n) {
		childLabels = make(map[string]bool, len(labels)+1)
		for k := range labels {
			childLabels[k] = true
		}
		childLabels[n.Name] = true
	}

	kept := make([]*axtree.Node, 0, len(n.Children))
	for _, ch := range n.Children {
		f := foldNode(ch, cfg, childLabels, false)
		if f == nil {
			continue
		}
		if absorbedByAncestor(f, childLabels) {
			// The child only repeats an ancestor label; keep whatever it
			// wrapped, drop the doubled text itself.
			kept = append(kept, f.Children...)
			continue
		}
		kept = append(kept, f)
	}

	switch len(kept) {
	case 0:
		if len(n.Children) > 0 && cfg.EmptyStructural &&
			n.Role.Category() == axtree.CategoryStructural {
			// Folding emptied the wrapper entirely.
			return nil
		}
		return n.WithChildren(nil)
	case 1:
		if isRoot || !foldable(n, kept[0]) {
			return n.WithChildren(kept)
		}
		return foldPair(n, kept[0])
	default:
		out := n.WithChildren(kept)
		if n.Role.IsLowPriority() {
			out.Role = axtree.RoleGroup
		}
		out.GroupRole = dominantChildRole(kept)
		return out
	}
}

// foldable rejects only the merges that would lose information: two
// distinctly named nodes of equal precedence stay separate. When the
// precedence contest has a winner the fold proceeds; the loser's role
// lands in GroupRoles and the winner's name stands.
func foldable(parent, child *axtree.Node) bool {
	if parent.Name == "" || child.Name == "" || parent.Name == child.Name {
		return true
	}
	return rolePrecedence(parent.Role) != rolePrecedence(child.Role)
}

// foldPair merges a parent with its only surviving child into one node.
func foldPair(parent, child *axtree.Node) *axtree.Node {
	parentWins := rolePrecedence(parent.Role) > rolePrecedence(child.Role) ||
		(parent.Name != "" && rolePrecedence(parent.Role) == rolePrecedence(child.Role))

	out := &axtree.Node{
		Children: child.Children,
		Modal:    parent.Modal || child.Modal,
		Required: parent.Required || child.Required,
		Selected: parent.Selected || child.Selected,
		Checked:  parent.Checked || child.Checked,
		Disabled: parent.Disabled || child.Disabled,
		Editable: parent.Editable || child.Editable,
	}

	var winner, loser *axtree.Node
	if parentWins {
		winner, loser = parent, child
	} else {
		winner, loser = child, parent
	}
	out.Role = winner.Role

	// The winner's name stands; an empty one is inherited from the loser.
	out.Name = winner.Name
	if out.Name == "" {
		out.Name = loser.Name
	}

	out.GroupRoles = append(append([]axtree.Role(nil), child.GroupRoles...), parent.GroupRoles...)
	out.GroupRoles = append(out.GroupRoles, loser.Role)
	out.GroupRole = child.GroupRole

	out.DOM = winner.DOM
	if out.DOM == nil {
		out.DOM = loser.DOM
	}

	// The merged node answers for the winner's raw-tree position.
	out.Path = winner.Path
	if len(out.Path) == 0 {
		out.Path = loser.Path
	}
	return out
}

// rolePrecedence orders roles for fold contests. Placeholders always
// lose; interaction outranks everything else; text, image and parameter
// containers outrank list/paragraph/structural wrappers.
func rolePrecedence(r axtree.Role) int {
	if r.IsLowPriority() {
		return 0
	}
	switch r.Category() {
	case axtree.CategoryInteraction:
		return 3
	case axtree.CategoryText:
		if r == axtree.RoleParagraph {
			return 1
		}
		return 2
	case axtree.CategoryImage, axtree.CategoryParameters:
		return 2
	case axtree.CategoryTable:
		return 2
	default:
		// Structural and list wrappers, plus unknown roles.
		if r.Category() == axtree.CategoryOther {
			return 2
		}
		return 1
	}
}

func isLabelBearer(n *axtree.Node) bool {
	return n.Name != "" && (n.Role == axtree.RoleText || n.Role == axtree.RoleHeading)
}

// absorbedByAncestor reports whether a folded child is a text node whose
// name only duplicates a text/heading ancestor.
func absorbedByAncestor(n *axtree.Node, labels map[string]bool) bool {
	if n.Role.Category() != axtree.CategoryText || n.Name == "" {
		return false
	}
	return labels[n.Name]
}

// dominantChildRole returns the role shared by at least minGroupChildren
// children, when one exists.
func dominantChildRole(children []*axtree.Node) axtree.Role {
	counts := make(map[axtree.Role]int, len(children))
	var best axtree.Role
	bestCount := 0
	for _, ch := range children {
		counts[ch.Role]++
		if counts[ch.Role] > bestCount {
			best, bestCount = ch.Role, counts[ch.Role]
		}
	}
	if bestCount >= minGroupChildren {
		return best
	}
	return ""
}
