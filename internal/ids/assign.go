// Package ids stamps eligible accessibility nodes with stable,
// role-prefixed identifiers and propagates those identifiers across
// structurally equivalent trees.
package ids

import (
	"strconv"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// Assign returns a copy of the tree in which every eligible node carries
// an ID of the form <RolePrefix><N>. N is a 1-based counter scoped per
// prefix, assigned in left-to-right pre-order, so re-running on an
// unchanged tree reproduces identical IDs.
//
// A node that already carries an ID was labeled outside this pass; that
// is an invariant breach and yields an EligibilityError.
func Assign(root *axtree.Node) (*axtree.Node, error) {
	return assign(root, false)
}

// Resume assigns IDs to eligible nodes that are still unlabeled,
// continuing every prefix counter past the highest index already in the
// tree. Used when a fresh snapshot inherited known IDs through sync and
// only the new parts of the page need labels.
func Resume(root *axtree.Node) (*axtree.Node, error) {
	return assign(root, true)
}

func assign(root *axtree.Node, resume bool) (*axtree.Node, error) {
	if root == nil {
		return nil, nil
	}
	out := root.Clone()

	// Explicit stack instead of recursion: page trees can be deep. The
	// counters live per call so independent trees assign concurrently.
	counters := make(map[string]int)
	if resume {
		seedCounters(out, counters)
	}
	stack := []*axtree.Node{out}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.ID != "" {
			if !resume {
				return nil, &EligibilityError{
					Role:   n.Role,
					Name:   n.Name,
					ID:     n.ID,
					Reason: "node labeled outside the assignment pass",
				}
			}
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, n.Children[i])
			}
			continue
		}
		if n.Eligible() {
			prefix, ok := n.Role.Prefix()
			if !ok {
				return nil, &EligibilityError{
					Role:   n.Role,
					Name:   n.Name,
					Reason: "eligible role has no ID prefix",
				}
			}
			counters[prefix]++
			n.ID = prefix + strconv.Itoa(counters[prefix])
		}

		// Push children in reverse so traversal pops left-to-right.
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	out.RebuildSubtreeIDs()
	return out, nil
}

// seedCounters walks existing IDs and records the highest index per
// prefix so resumed assignment never reuses a label.
func seedCounters(root *axtree.Node, counters map[string]int) {
	for _, n := range root.Flatten(func(n *axtree.Node) bool { return n.ID != "" }) {
		if len(n.ID) < 2 {
			continue
		}
		prefix := n.ID[:1]
		if idx, err := strconv.Atoi(n.ID[1:]); err == nil && idx > counters[prefix] {
			counters[prefix] = idx
		}
	}
}
