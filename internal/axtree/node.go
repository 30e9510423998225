package axtree

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Node is one accessibility-tree node. A raw capture attaches a DOM
// payload (see DomInfo); derived trees produced by pruning and folding
// usually carry only the semantic fields.
//
// Trees are treated as immutable snapshots: pipeline stages build new
// nodes instead of mutating their input, and children never hold a
// pointer back to their parent. Ancestor context is always passed as an
// explicit path during traversal.
type Node struct {
	Role     Role    `json:"role"`
	Name     string  `json:"name,omitempty"`
	Children []*Node `json:"children,omitempty"`

	Modal    bool `json:"modal,omitempty"`
	Required bool `json:"required,omitempty"`
	Selected bool `json:"selected,omitempty"`
	Checked  bool `json:"checked,omitempty"`
	Disabled bool `json:"disabled,omitempty"`
	Editable bool `json:"editable,omitempty"`

	// ID is assigned by the ids package; empty means not addressable.
	ID string `json:"id,omitempty"`

	// Path is the (role, name) chain from the capture root down to this
	// node, stamped once on the raw tree. Pruning and folding carry it
	// along so derived nodes stay addressable in the raw tree.
	Path []PathStep `json:"path,omitempty"`

	// GroupRole marks a parent whose children are dominated by one role.
	GroupRole Role `json:"group_role,omitempty"`

	// GroupRoles records the roles folded into this node, oldest first.
	GroupRoles []Role `json:"group_roles,omitempty"`

	// DOM is the attribute-rich payload present on raw capture trees.
	DOM *DomInfo `json:"dom,omitempty"`

	// SubtreeIDs holds every ID assigned within this subtree, own ID
	// included. Populated by RebuildSubtreeIDs after assignment or sync;
	// nil on trees that never carried IDs.
	SubtreeIDs mapset.Set[string] `json:"-"`
}

// DomInfo carries the driver-side attributes of a captured node, used
// once an element must be located and acted on.
type DomInfo struct {
	Tag       string            `json:"tag,omitempty"`
	Href      string            `json:"href,omitempty"`
	Src       string            `json:"src,omitempty"`
	InputType string            `json:"input_type,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`

	// Computed at capture time.
	InShadow  bool       `json:"in_shadow,omitempty"`
	InFrame   bool       `json:"in_frame,omitempty"`
	FramePath []FrameHop `json:"frame_path,omitempty"`
}

// FrameHop is one boundary on the way to a hosted element: the selector
// of an iframe or, when Shadow is set, of a shadow host.
type FrameHop struct {
	Shadow   bool   `json:"shadow,omitempty"`
	Selector string `json:"selector"`
}

// PathStep is the (role, name) pair used to address nodes across trees.
type PathStep struct {
	Role Role
	Name string
}

func (s PathStep) String() string {
	if s.Name == "" {
		return string(s.Role)
	}
	return fmt.Sprintf("%s[%s]", s.Role, s.Name)
}

// PathString renders an ancestor path for error messages.
func PathString(path []PathStep) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = s.String()
	}
	return strings.Join(parts, " > ")
}

// Step returns the node's own path step.
func (n *Node) Step() PathStep {
	return PathStep{Role: n.Role, Name: n.Name}
}

// Eligible reports whether the node qualifies for an ID: it must be an
// interaction- or image-category node, and must have a name unless it is
// an image.
func (n *Node) Eligible() bool {
	cat := n.Role.Category()
	if cat != CategoryInteraction && cat != CategoryImage {
		return false
	}
	return n.Name != "" || cat == CategoryImage
}

// IsImage reports whether the node belongs to the image category.
func (n *Node) IsImage() bool {
	return n.Role.Category() == CategoryImage
}

// Clone deep-copies the node. The DOM payload is copied too so derived
// trees never alias capture state.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.SubtreeIDs != nil {
		c.SubtreeIDs = n.SubtreeIDs.Clone()
	}
	if n.GroupRoles != nil {
		c.GroupRoles = append([]Role(nil), n.GroupRoles...)
	}
	if n.Path != nil {
		c.Path = append([]PathStep(nil), n.Path...)
	}
	if n.DOM != nil {
		d := *n.DOM
		if n.DOM.Attrs != nil {
			d.Attrs = make(map[string]string, len(n.DOM.Attrs))
			for k, v := range n.DOM.Attrs {
				d.Attrs[k] = v
			}
		}
		if n.DOM.FramePath != nil {
			d.FramePath = append([]FrameHop(nil), n.DOM.FramePath...)
		}
		c.DOM = &d
	}
	c.Children = make([]*Node, 0, len(n.Children))
	for _, ch := range n.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	if len(c.Children) == 0 {
		c.Children = nil
	}
	return &c
}

// WithChildren returns a shallow copy carrying the given children, used
// by copy-on-write rebuilds that share untouched subtrees.
func (n *Node) WithChildren(children []*Node) *Node {
	c := *n
	c.Children = children
	return &c
}

// ChildrenRoleCount tallies direct children per role.
func (n *Node) ChildrenRoleCount() map[Role]int {
	if len(n.Children) == 0 {
		return nil
	}
	counts := make(map[Role]int, len(n.Children))
	for _, ch := range n.Children {
		counts[ch.Role]++
	}
	return counts
}

// Size returns the number of nodes in the subtree, self included.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, ch := range n.Children {
		total += ch.Size()
	}
	return total
}

func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n *Node) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.ID != "" {
		fmt.Fprintf(b, "[%s] ", n.ID)
	}
	b.WriteString(string(n.Role))
	if n.Name != "" {
		fmt.Fprintf(b, " %q", n.Name)
	}
	b.WriteByte('\n')
	for _, ch := range n.Children {
		ch.write(b, depth+1)
	}
}
