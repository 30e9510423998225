package actionspace

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// addressable reports whether a node contributes an action: it must
// carry an ID and sit in the interaction category. Image IDs stay
// reference-only; watching a picture is not an operation.
func addressable(n *axtree.Node) bool {
	return n.ID != "" && n.Role.Category() == axtree.CategoryInteraction
}

// Build lists the tree's addressable nodes as actions in pre-order,
// which is also the page's reading order.
func Build(root *axtree.Node) []Action {
	if root == nil {
		return nil
	}
	nodes := root.Flatten(addressable)
	out := make([]Action, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fromNode(n))
	}
	return out
}

// DiffUncovered cuts the tree down to the part not yet explained by
// known action IDs. Ancestors of an uncovered node are kept so the
// result stays a rooted tree; nil means everything is covered.
func DiffUncovered(root *axtree.Node, known mapset.Set[string]) *axtree.Node {
	if root == nil {
		return nil
	}
	return root.SubtreeFilter(func(n *axtree.Node) bool {
		return addressable(n) && (known == nil || !known.Contains(n.ID))
	})
}

// Merge reconciles a fresh pass with previously known actions. Known
// actions are kept verbatim, in their original order, even when the
// new pass no longer sees them; newly discovered IDs are appended.
func Merge(known, discovered []Action) []Action {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]Action, 0, len(known)+len(discovered))
	for _, a := range known {
		seen.Add(a.ID)
		out = append(out, a)
	}
	for _, a := range discovered {
		if seen.Contains(a.ID) {
			continue
		}
		seen.Add(a.ID)
		out = append(out, a)
	}
	return out
}

// IDs collects the action IDs as a set, the shape DiffUncovered wants
// its known argument in.
func IDs(actions []Action) mapset.Set[string] {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, a := range actions {
		s.Add(a.ID)
	}
	return s
}
