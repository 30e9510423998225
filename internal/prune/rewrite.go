package prune

import "github.com/polzovatel/a11y-action-space/internal/axtree"

// rewritePass runs after a node's children were pruned. A nil result
// removes the node from its parent.
type rewritePass func(*axtree.Node, Config) *axtree.Node

var rewritePasses = []rewritePass{
	mergeLinkButton,
	dropDecorativeLink,
	collapseLabeledControl,
}

// mergeLinkButton folds a link whose sole child is a button with the
// identical name into the link itself. The doubled node is a styling
// artifact; the link carries the semantics.
func mergeLinkButton(n *axtree.Node, _ Config) *axtree.Node {
	if n.Role != axtree.RoleLink || len(n.Children) != 1 {
		return n
	}
	child := n.Children[0]
	if child.Role != axtree.RoleButton || child.Name != n.Name {
		return n
	}
	out := n.WithChildren(nil)
	out.GroupRoles = append(append([]axtree.Role(nil), n.GroupRoles...), child.Role)
	return out
}

// dropDecorativeLink removes links with an empty or "#" name unless the
// link shelters a surviving image, which keeps icon links addressable.
func dropDecorativeLink(n *axtree.Node, _ Config) *axtree.Node {
	if n.Role != axtree.RoleLink {
		return n
	}
	if n.Name != "" && n.Name != "#" {
		return n
	}
	if containsImage(n) {
		return n
	}
	return nil
}

// collapseLabeledControl empties the subtree of an interaction node
// whose descendants are pure text, or text plus images: the node's own
// name already carries the label, so the subtree only repeats it.
func collapseLabeledControl(n *axtree.Node, _ Config) *axtree.Node {
	if n.Role.Category() != axtree.CategoryInteraction || n.Name == "" {
		return n
	}
	if len(n.Children) == 0 {
		return n
	}
	for _, ch := range n.Children {
		if !textOrImageSubtree(ch) {
			return n
		}
	}
	return n.WithChildren(nil)
}

func containsImage(n *axtree.Node) bool {
	if n.IsImage() {
		return true
	}
	for _, ch := range n.Children {
		if containsImage(ch) {
			return true
		}
	}
	return false
}

func textOrImageSubtree(n *axtree.Node) bool {
	cat := n.Role.Category()
	if cat != axtree.CategoryText && cat != axtree.CategoryImage {
		return false
	}
	for _, ch := range n.Children {
		if !textOrImageSubtree(ch) {
			return false
		}
	}
	return true
}
