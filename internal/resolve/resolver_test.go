package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// -- fake page capability --

type scope struct {
	role  axtree.Role
	name  string
	texts []string
}

type pageElem struct {
	role   axtree.Role
	name   string
	attrs  map[string]string
	scopes []scope // outermost first
	framed []PathSegment
}

type fakePage struct {
	elems []pageElem
	err   error // injected capability failure
}

type fakeLocator struct {
	sel   string
	count int
	attr  map[string]string
}

func (l *fakeLocator) Count(context.Context) (int, error) { return l.count, nil }
func (l *fakeLocator) Attribute(_ context.Context, name string) (string, error) {
	return l.attr[name], nil
}
func (l *fakeLocator) Editable(context.Context) (bool, error) { return true, nil }
func (l *fakeLocator) Enabled(context.Context) (bool, error)  { return true, nil }
func (l *fakeLocator) Visible(context.Context) (bool, error)  { return true, nil }
func (l *fakeLocator) Selector() string                       { return l.sel }

func (p *fakePage) CountByRoleName(_ context.Context, q Query) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	n := 0
	for _, e := range p.elems {
		if e.framed == nil && matchElem(e, q) {
			n++
		}
	}
	return n, nil
}

func (p *fakePage) LocatorsByRoleName(_ context.Context, q Query) ([]Locator, error) {
	if p.err != nil {
		return nil, p.err
	}
	var out []Locator
	for i, e := range p.elems {
		if e.framed == nil && matchElem(e, q) {
			out = append(out, &fakeLocator{
				sel:   fmt.Sprintf("%s >> nth=%d", renderStep(q), i),
				count: 1,
				attr:  e.attrs,
			})
		}
	}
	return out, nil
}

func (p *fakePage) QueryPath(_ context.Context, steps []Query) (Locator, error) {
	if p.err != nil {
		return nil, p.err
	}
	n := 0
	for _, e := range p.elems {
		if e.framed == nil && matchChain(e, steps) {
			n++
		}
	}
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = renderStep(s)
	}
	return &fakeLocator{sel: strings.Join(parts, " >> "), count: n}, nil
}

func (p *fakePage) ResolveFramed(_ context.Context, segments []PathSegment, q Query) (Locator, error) {
	if p.err != nil {
		return nil, p.err
	}
	n := 0
	for _, e := range p.elems {
		if len(e.framed) == len(segments) && matchElem(e, q) {
			same := true
			for i := range segments {
				if e.framed[i] != segments[i] {
					same = false
				}
			}
			if same {
				n++
			}
		}
	}
	sel := renderStep(q)
	for i := len(segments) - 1; i >= 0; i-- {
		sel = segments[i].Selector + " >> " + sel
	}
	return &fakeLocator{sel: sel, count: n}, nil
}

func matchElem(e pageElem, q Query) bool {
	if e.role != q.Role {
		return false
	}
	if q.Name != "" {
		if q.Exact && e.name != q.Name {
			return false
		}
		if !q.Exact && !strings.Contains(e.name, q.Name) {
			return false
		}
	}
	if q.Selected != nil && (e.attrs["selected"] == "true") != *q.Selected {
		return false
	}
	if q.Checked != nil && (e.attrs["checked"] == "true") != *q.Checked {
		return false
	}
	return true
}

func matchChain(e pageElem, steps []Query) bool {
	if len(steps) == 0 {
		return false
	}
	if !matchElem(e, steps[len(steps)-1]) {
		return false
	}
	si := 0
	for _, step := range steps[:len(steps)-1] {
		found := false
		for ; si < len(e.scopes); si++ {
			if matchScope(e.scopes[si], step) {
				found = true
				si++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchScope(s scope, q Query) bool {
	if s.role != q.Role {
		return false
	}
	if q.Name != "" && s.name != q.Name {
		return false
	}
	for _, frag := range q.ContainsText {
		ok := false
		for _, t := range s.texts {
			if strings.Contains(t, frag) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func renderStep(q Query) string {
	s := fmt.Sprintf("role=%s", q.Role)
	if q.Name != "" {
		s += fmt.Sprintf("[name=%q]", q.Name)
	}
	for _, frag := range q.ContainsText {
		s += fmt.Sprintf("[text*=%q]", frag)
	}
	return s
}

// -- fixtures --

func n(role axtree.Role, name string, children ...*axtree.Node) *axtree.Node {
	return &axtree.Node{Role: role, Name: name, Children: children}
}

func withID(node *axtree.Node, id string) *axtree.Node {
	node.ID = id
	return node
}

func newResolver(p PageQuery) *Resolver {
	return New(p, zerolog.Nop())
}

// -- tests --

func TestResolveDirect(t *testing.T) {
	tree := n(axtree.RoleDocument, "",
		withID(n(axtree.RoleButton, "Login"), "B1"),
	)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{{role: axtree.RoleButton, name: "Login"}}}

	sel, err := newResolver(page).Resolve(context.Background(), "B1", tree)
	require.NoError(t, err)
	assert.Equal(t, "B1", sel.ID)
	assert.Equal(t, `role=button[name="Login"]`, sel.Selector)
	assert.Empty(t, sel.Segments)
}

func TestResolveDuplicateButtonsViaClimbing(t *testing.T) {
	tree := n(axtree.RoleDocument, "",
		n(axtree.RoleDialog, "Save changes", withID(n(axtree.RoleButton, "OK"), "B1")),
		n(axtree.RoleDialog, "Delete file", withID(n(axtree.RoleButton, "OK"), "B2")),
	)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{
		{role: axtree.RoleButton, name: "OK", scopes: []scope{{role: axtree.RoleDialog, name: "Save changes"}}},
		{role: axtree.RoleButton, name: "OK", scopes: []scope{{role: axtree.RoleDialog, name: "Delete file"}}},
	}}
	r := newResolver(page)

	selA, err := r.Resolve(context.Background(), "B1", tree)
	require.NoError(t, err)
	selB, err := r.Resolve(context.Background(), "B2", tree)
	require.NoError(t, err)

	assert.NotEqual(t, selA.Selector, selB.Selector)
	assert.Contains(t, selA.Selector, "Save changes")
	assert.Contains(t, selB.Selector, "Delete file")
	assert.NotEmpty(t, selA.Fallbacks, "broader fallback recorded for climbed selectors")
}

func TestResolveLinkByCommonHref(t *testing.T) {
	tree := n(axtree.RoleDocument, "",
		withID(n(axtree.RoleLink, "Docs"), "L1"),
	)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{
		{role: axtree.RoleLink, name: "Docs", attrs: map[string]string{"href": "https://example.com/docs#top"}},
		{role: axtree.RoleLink, name: "Docs", attrs: map[string]string{"href": "/docs"}},
	}}

	sel, err := newResolver(page).Resolve(context.Background(), "L1", tree)
	require.NoError(t, err)
	assert.Contains(t, sel.Selector, "nth=0", "any candidate acceptable, first picked")
}

func TestResolveLinkDivergentHrefsFallsThrough(t *testing.T) {
	tree := n(axtree.RoleDocument, "",
		n(axtree.RoleNavigation, "Main", withID(n(axtree.RoleLink, "Docs"), "L1")),
	)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{
		{role: axtree.RoleLink, name: "Docs", attrs: map[string]string{"href": "/docs"},
			scopes: []scope{{role: axtree.RoleNavigation, name: "Main"}}},
		{role: axtree.RoleLink, name: "Docs", attrs: map[string]string{"href": "/blog"}},
	}}

	sel, err := newResolver(page).Resolve(context.Background(), "L1", tree)
	require.NoError(t, err)
	assert.Contains(t, sel.Selector, "navigation", "climbed past divergent hrefs")
}

func TestResolveTextContext(t *testing.T) {
	tree := n(axtree.RoleDocument, "",
		n(axtree.RoleGeneric, "",
			n(axtree.RoleText, "Apples"),
			n(axtree.RoleText, "Green and crisp"),
			withID(n(axtree.RoleButton, "Add"), "B1"),
		),
		n(axtree.RoleGeneric, "",
			n(axtree.RoleText, "Oranges"),
			n(axtree.RoleText, "Juicy and sweet"),
			withID(n(axtree.RoleButton, "Add"), "B2"),
		),
	)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{
		{role: axtree.RoleButton, name: "Add",
			scopes: []scope{{role: axtree.RoleGeneric, texts: []string{"Apples", "Green and crisp"}}}},
		{role: axtree.RoleButton, name: "Add",
			scopes: []scope{{role: axtree.RoleGeneric, texts: []string{"Oranges", "Juicy and sweet"}}}},
	}}
	r := newResolver(page)

	selA, err := r.Resolve(context.Background(), "B1", tree)
	require.NoError(t, err)
	selB, err := r.Resolve(context.Background(), "B2", tree)
	require.NoError(t, err)
	assert.NotEqual(t, selA.Selector, selB.Selector)

	// The fragments must reach the driver as structured steps, not just
	// as selector-string decoration.
	require.Len(t, selA.Steps, 2)
	assert.Equal(t, []string{"Apples", "Green and crisp"}, selA.Steps[0].ContainsText)
	assert.Equal(t, axtree.RoleButton, selA.Steps[1].Role)
}

func TestResolveShadowHosted(t *testing.T) {
	btn := withID(n(axtree.RoleButton, "Pay"), "B1")
	btn.DOM = &axtree.DomInfo{
		InShadow:  true,
		FramePath: []axtree.FrameHop{{Shadow: true, Selector: "x-checkout"}},
	}
	tree := n(axtree.RoleDocument, "", btn)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{
		{role: axtree.RoleButton, name: "Pay",
			framed: []PathSegment{{Kind: SegmentShadow, Selector: "x-checkout"}}},
	}}

	sel, err := newResolver(page).Resolve(context.Background(), "B1", tree)
	require.NoError(t, err)
	require.Len(t, sel.Segments, 1)
	assert.Equal(t, SegmentShadow, sel.Segments[0].Kind)
	assert.Contains(t, sel.Selector, "x-checkout")
}

func TestResolveElementGone(t *testing.T) {
	tree := n(axtree.RoleDocument, "", withID(n(axtree.RoleButton, "Ghost"), "B1"))
	tree.RebuildSubtreeIDs()
	page := &fakePage{}

	_, err := newResolver(page).Resolve(context.Background(), "B1", tree)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "B1", rerr.ID)
}

func TestResolveExhaustedStrategies(t *testing.T) {
	tree := n(axtree.RoleDocument, "",
		withID(n(axtree.RoleButton, "OK"), "B1"),
		withID(n(axtree.RoleButton, "OK"), "B2"),
	)
	tree.RebuildSubtreeIDs()
	page := &fakePage{elems: []pageElem{
		{role: axtree.RoleButton, name: "OK"},
		{role: axtree.RoleButton, name: "OK"},
	}}

	_, err := newResolver(page).Resolve(context.Background(), "B1", tree)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Tried, "direct")
	assert.Contains(t, rerr.Tried, "text-context")
}

func TestResolveUnknownID(t *testing.T) {
	tree := n(axtree.RoleDocument, "")
	tree.RebuildSubtreeIDs()
	_, err := newResolver(&fakePage{}).Resolve(context.Background(), "Z9", tree)
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
}

func TestCapabilityErrorsPropagate(t *testing.T) {
	tree := n(axtree.RoleDocument, "", withID(n(axtree.RoleButton, "Go"), "B1"))
	tree.RebuildSubtreeIDs()
	boom := errors.New("target closed")
	page := &fakePage{err: boom}

	_, err := newResolver(page).Resolve(context.Background(), "B1", tree)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom, "capability errors pass through unchanged")
	var rerr *ResolutionError
	assert.False(t, errors.As(err, &rerr), "capability failure is not a resolution failure")
}

func TestNormalizeHref(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://example.com/docs#top", "/docs"},
		{"/docs", "/docs"},
		{"//cdn.example.com/docs", "/docs"},
		{"http://example.com/a?b=1#frag", "/a?b=1"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeHref(tc.in), "input %q", tc.in)
	}
}
