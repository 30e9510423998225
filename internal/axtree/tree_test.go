package axtree

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(role Role, name string, children ...*Node) *Node {
	return &Node{Role: role, Name: name, Children: children}
}

func mapsetOf(ids ...string) mapset.Set[string] {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, id := range ids {
		if id != "" {
			s.Add(id)
		}
	}
	return s
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
	}{
		{"button", RoleButton},
		{"StaticText", RoleText},
		{"WebArea", RoleDocument},
		{"RootWebArea", RoleDocument},
		{"IMG", RoleImage},
		{"presentation", RoleNone},
		{"ToggleButton", RoleButton},
		{"", RoleGeneric},
		{"blink-marquee", Role("blink-marquee")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeRole(tc.raw), "raw=%q", tc.raw)
	}
}

func TestRoleCategories(t *testing.T) {
	assert.Equal(t, CategoryInteraction, RoleButton.Category())
	assert.Equal(t, CategoryInteraction, RoleOption.Category())
	assert.Equal(t, CategoryText, RoleHeading.Category())
	assert.Equal(t, CategoryImage, RoleFigure.Category())
	assert.Equal(t, CategoryTable, RoleGridCell.Category())
	assert.Equal(t, CategoryList, RoleListMarker.Category())
	assert.Equal(t, CategoryParameters, RoleListbox.Category())
	assert.Equal(t, CategoryStructural, RoleIframe.Category())
	assert.Equal(t, CategoryOther, Role("marquee").Category())
}

func TestPrefixes(t *testing.T) {
	for role, want := range map[Role]string{
		RoleButton:     "B",
		RoleCheckbox:   "B",
		RoleLink:       "L",
		RoleTextbox:    "I",
		RoleCombobox:   "I",
		RoleImage:      "F",
		RoleOption:     "O",
		RoleTab:        "T",
	} {
		got, ok := role.Prefix()
		require.True(t, ok, "role %s", role)
		assert.Equal(t, want, got, "role %s", role)
	}
	_, ok := RoleHeading.Prefix()
	assert.False(t, ok)
	_, ok = RoleGeneric.Prefix()
	assert.False(t, ok)
}

func TestEligibility(t *testing.T) {
	assert.True(t, n(RoleButton, "Login").Eligible())
	assert.False(t, n(RoleButton, "").Eligible(), "unnamed interaction node")
	assert.True(t, n(RoleImage, "").Eligible(), "images need no name")
	assert.False(t, n(RoleHeading, "Title").Eligible())
	assert.False(t, n(RoleGeneric, "x").Eligible())
}

func TestFindAndPathTo(t *testing.T) {
	leaf := n(RoleButton, "OK")
	leaf.ID = "B1"
	root := n(RoleDocument, "page", n(RoleGroup, "", leaf), n(RoleLink, "Home"))

	assert.Same(t, leaf, root.Find("B1"))
	assert.Nil(t, root.Find("B9"))

	path := root.PathTo("B1")
	require.Len(t, path, 3)
	assert.Same(t, root, path[0])
	assert.Same(t, leaf, path[2])
}

func TestFlattenPreOrder(t *testing.T) {
	root := n(RoleDocument, "",
		n(RoleButton, "a"),
		n(RoleGroup, "", n(RoleButton, "b")),
		n(RoleButton, "c"),
	)
	got := root.Flatten(func(node *Node) bool { return node.Role == RoleButton })
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, "c", got[2].Name)
}

func TestSubtreeFilterKeepsAncestors(t *testing.T) {
	root := n(RoleDocument, "",
		n(RoleGroup, "", n(RoleButton, "keep")),
		n(RoleGroup, "", n(RoleText, "drop")),
	)
	got := root.SubtreeFilter(func(node *Node) bool { return node.Name == "keep" })
	require.NotNil(t, got)
	require.Len(t, got.Children, 1)
	assert.Equal(t, RoleGroup, got.Children[0].Role, "ancestor kept structurally")
	require.Len(t, got.Children[0].Children, 1)
	assert.Equal(t, "keep", got.Children[0].Children[0].Name)

	// Input tree untouched.
	assert.Len(t, root.Children, 2)
}

func TestSubtreeFilterNothingSurvives(t *testing.T) {
	root := n(RoleDocument, "", n(RoleText, "x"))
	assert.Nil(t, root.SubtreeFilter(func(node *Node) bool { return false }))
}

func TestSubtreeFilterSharesUntouchedSubtrees(t *testing.T) {
	kept := n(RoleGroup, "", n(RoleButton, "keep"))
	root := n(RoleDocument, "", kept, n(RoleText, "drop"))
	got := root.SubtreeFilter(func(node *Node) bool { return node.Role == RoleButton })
	require.NotNil(t, got)
	require.Len(t, got.Children, 1)
	assert.Same(t, kept, got.Children[0], "unchanged subtree shared, not copied")
}

func TestSubtreeWithout(t *testing.T) {
	root := n(RoleDocument, "",
		n(RoleIframe, "", n(RoleButton, "inside")),
		n(RoleButton, "outside"),
	)
	got := root.SubtreeWithout(map[Role]bool{RoleIframe: true})
	require.NotNil(t, got)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "outside", got.Children[0].Name)
}

func TestCloneIsDeep(t *testing.T) {
	root := n(RoleDocument, "", n(RoleButton, "a"))
	root.Children[0].DOM = &DomInfo{Tag: "button", Attrs: map[string]string{"type": "submit"}}
	c := root.Clone()
	c.Children[0].Name = "b"
	c.Children[0].DOM.Attrs["type"] = "reset"

	assert.Equal(t, "a", root.Children[0].Name)
	assert.Equal(t, "submit", root.Children[0].DOM.Attrs["type"])
}

func TestSubtreeIDs(t *testing.T) {
	b := n(RoleButton, "ok")
	b.ID = "B1"
	l := n(RoleLink, "home")
	l.ID = "L1"
	root := n(RoleDocument, "", n(RoleGroup, "", b), l)

	set := root.RebuildSubtreeIDs()
	assert.True(t, set.Contains("B1"))
	assert.True(t, set.Contains("L1"))
	assert.Equal(t, 2, set.Cardinality())

	// Per-node invariant.
	var check func(node *Node)
	check = func(node *Node) {
		want := mapsetOf(node.ID)
		for _, ch := range node.Children {
			want = want.Union(ch.SubtreeIDs)
			check(ch)
		}
		assert.True(t, want.Equal(node.SubtreeIDs), "node %s", node.Role)
	}
	check(root)

	chain := root.DescendTo("B1")
	require.Len(t, chain, 3)
	assert.Same(t, b, chain[2])
	assert.Nil(t, root.DescendTo("X9"))
}

func TestChildrenRoleCount(t *testing.T) {
	root := n(RoleList, "", n(RoleListItem, "a"), n(RoleListItem, "b"), n(RoleLink, "c"))
	counts := root.ChildrenRoleCount()
	assert.Equal(t, 2, counts[RoleListItem])
	assert.Equal(t, 1, counts[RoleLink])
	assert.Nil(t, n(RoleText, "leaf").ChildrenRoleCount())
}
