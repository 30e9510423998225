package resolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// Tuned upstream; escalating the fragment threshold on every failed
// round forces the text-context search to converge.
const (
	minTextFragments = 2
	maxTextFragments = 3
	minFragmentLen   = 3
)

// Resolver finds unique selectors for action IDs through an ordered
// fallback of query strategies.
type Resolver struct {
	page PageQuery
	log  zerolog.Logger
}

func New(page PageQuery, log zerolog.Logger) *Resolver {
	return &Resolver{page: page, log: log}
}

// Resolve maps an action ID from the synced raw tree to a selector
// matching exactly one live element. It stops at the first strategy
// that yields a single match; exhaustion returns a ResolutionError,
// never a guessed selector. Capability errors pass through wrapped.
func (r *Resolver) Resolve(ctx context.Context, id string, root *axtree.Node) (UniqueSelector, error) {
	chain := root.DescendTo(id)
	if len(chain) == 0 {
		return UniqueSelector{}, &ResolutionError{ID: id, Reason: "id not present in tree"}
	}
	node := chain[len(chain)-1]

	if node.DOM != nil && (node.DOM.InShadow || node.DOM.InFrame) {
		return r.resolveFramed(ctx, id, node)
	}

	var tried []string
	q := queryFor(node)

	// Strategy 1: direct role+name query.
	tried = append(tried, "direct")
	count, err := r.page.CountByRoleName(ctx, q)
	if err != nil {
		return UniqueSelector{}, fmt.Errorf("count %s: %w", q.Role, err)
	}
	if count == 0 {
		relaxed := q
		relaxed.Exact = false
		count, err = r.page.CountByRoleName(ctx, relaxed)
		if err != nil {
			return UniqueSelector{}, fmt.Errorf("count %s: %w", q.Role, err)
		}
		if count == 0 {
			return UniqueSelector{}, &ResolutionError{ID: id, Tried: tried, Reason: "element not found on page"}
		}
		q = relaxed
	}
	if count == 1 {
		return r.finish(ctx, id, "direct", []Query{q}, nil)
	}

	// Strategy 2: links whose candidates all share one target.
	if node.Role == axtree.RoleLink {
		tried = append(tried, "href")
		sel, ok, err := r.resolveByHref(ctx, id, q)
		if err != nil {
			return UniqueSelector{}, err
		}
		if ok {
			return sel, nil
		}
	}

	ancestors := usableAncestors(chain)

	// Strategy 3: climb the ancestor chain with a growing window.
	tried = append(tried, "climb")
	for k := 1; k <= len(ancestors); k++ {
		steps := climbSteps(ancestors, k, q)
		loc, err := r.page.QueryPath(ctx, steps)
		if err != nil {
			return UniqueSelector{}, fmt.Errorf("query path: %w", err)
		}
		n, err := loc.Count(ctx)
		if err != nil {
			return UniqueSelector{}, fmt.Errorf("count path: %w", err)
		}
		if n == 1 {
			return r.finish(ctx, id, "climb", steps, []Query{q})
		}
	}

	// Strategy 4: disambiguate by surrounding text content. Unlike
	// climbing this may scope through unnamed wrappers: the text
	// fragments carry the specificity the wrapper lacks.
	tried = append(tried, "text-context")
	threshold := minTextFragments
	for _, anc := range textAncestors(chain) {
		frags := textFragments(anc.node, maxTextFragments)
		if len(frags) < threshold {
			// Not enough context at this level; climb further.
			continue
		}
		ancQ := queryFor(anc.node)
		ancQ.ContainsText = frags
		steps := []Query{ancQ, q}
		loc, err := r.page.QueryPath(ctx, steps)
		if err != nil {
			return UniqueSelector{}, fmt.Errorf("query path: %w", err)
		}
		n, err := loc.Count(ctx)
		if err != nil {
			return UniqueSelector{}, fmt.Errorf("count path: %w", err)
		}
		if n == 1 {
			return r.finish(ctx, id, "text-context", steps, []Query{q})
		}
		threshold++
	}

	return UniqueSelector{}, &ResolutionError{ID: id, Tried: tried, Reason: "every strategy left multiple candidates"}
}

// finish materializes the winning query chain into a UniqueSelector.
func (r *Resolver) finish(ctx context.Context, id, strategy string, steps []Query, fallback []Query) (UniqueSelector, error) {
	loc, err := r.page.QueryPath(ctx, steps)
	if err != nil {
		return UniqueSelector{}, fmt.Errorf("build selector: %w", err)
	}
	sel := UniqueSelector{ID: id, Selector: loc.Selector(), Steps: steps}
	if len(fallback) > 0 {
		if fb, err := r.page.QueryPath(ctx, fallback); err == nil {
			sel.Fallbacks = append(sel.Fallbacks, fb.Selector())
		}
	}
	r.log.Debug().Str("id", id).Str("strategy", strategy).Str("selector", sel.Selector).Msg("resolved")
	return sel, nil
}

// resolveByHref accepts any candidate when every matching link points at
// the same normalized target.
func (r *Resolver) resolveByHref(ctx context.Context, id string, q Query) (UniqueSelector, bool, error) {
	locs, err := r.page.LocatorsByRoleName(ctx, q)
	if err != nil {
		return UniqueSelector{}, false, fmt.Errorf("locators for %s: %w", q.Role, err)
	}
	if len(locs) == 0 {
		return UniqueSelector{}, false, nil
	}
	var want string
	for i, loc := range locs {
		href, err := loc.Attribute(ctx, "href")
		if err != nil {
			return UniqueSelector{}, false, fmt.Errorf("href of candidate %d: %w", i, err)
		}
		norm := normalizeHref(href)
		if i == 0 {
			want = norm
			continue
		}
		if norm != want {
			return UniqueSelector{}, false, nil
		}
	}
	r.log.Debug().Str("id", id).Str("strategy", "href").Msg("resolved")
	return UniqueSelector{ID: id, Selector: locs[0].Selector()}, true, nil
}

// resolveFramed handles elements hosted behind shadow-root or iframe
// boundaries, which need a chained selector instead of a flat query.
// Ambiguity inside the innermost frame is reported rather than climbed;
// frame subtrees are small enough that role+name collisions within one
// are treated as structural inconsistency of the page.
func (r *Resolver) resolveFramed(ctx context.Context, id string, node *axtree.Node) (UniqueSelector, error) {
	segments := make([]PathSegment, 0, len(node.DOM.FramePath))
	for _, hop := range node.DOM.FramePath {
		kind := SegmentFrame
		if hop.Shadow {
			kind = SegmentShadow
		}
		segments = append(segments, PathSegment{Kind: kind, Selector: hop.Selector})
	}
	q := queryFor(node)
	loc, err := r.page.ResolveFramed(ctx, segments, q)
	if err != nil {
		return UniqueSelector{}, fmt.Errorf("framed query: %w", err)
	}
	n, err := loc.Count(ctx)
	if err != nil {
		return UniqueSelector{}, fmt.Errorf("count framed: %w", err)
	}
	if n != 1 {
		return UniqueSelector{}, &ResolutionError{
			ID:     id,
			Tried:  []string{"framed"},
			Reason: fmt.Sprintf("%d matches behind frame boundary", n),
		}
	}
	r.log.Debug().Str("id", id).Str("strategy", "framed").Msg("resolved")
	return UniqueSelector{ID: id, Selector: loc.Selector(), Segments: segments}, nil
}

// queryFor derives the node's own query step. Selected/checked only
// narrow the query when asserted, mirroring how pages mark state.
func queryFor(n *axtree.Node) Query {
	q := Query{Role: n.Role, Name: n.Name, Exact: true}
	if n.Selected {
		v := true
		q.Selected = &v
	}
	if n.Checked {
		v := true
		q.Checked = &v
	}
	return q
}

type ancestorStep struct {
	node *axtree.Node
}

// usableAncestors filters the root-to-node chain down to ancestors a
// driver can actually query: named, non-placeholder, not the document
// itself. Closest first.
func usableAncestors(chain []*axtree.Node) []ancestorStep {
	var out []ancestorStep
	for i := len(chain) - 2; i >= 0; i-- {
		a := chain[i]
		if a.Role == axtree.RoleDocument || a.Role.IsLowPriority() {
			continue
		}
		if a.Name == "" {
			continue
		}
		out = append(out, ancestorStep{node: a})
	}
	return out
}

// textAncestors is every non-document ancestor, closest first; the
// text-context strategy scopes by content rather than by name.
func textAncestors(chain []*axtree.Node) []ancestorStep {
	var out []ancestorStep
	for i := len(chain) - 2; i >= 0; i-- {
		if chain[i].Role == axtree.RoleDocument {
			continue
		}
		out = append(out, ancestorStep{node: chain[i]})
	}
	return out
}

// climbSteps builds the compound query for a window of the k closest
// usable ancestors, ordered outermost first, ending at the node itself.
func climbSteps(ancestors []ancestorStep, k int, nodeQ Query) []Query {
	steps := make([]Query, 0, k+1)
	for i := k - 1; i >= 0; i-- {
		steps = append(steps, queryFor(ancestors[i].node))
	}
	return append(steps, nodeQ)
}

// textFragments collects up to max non-trivial text names from the
// subtree, pre-order.
func textFragments(n *axtree.Node, max int) []string {
	var out []string
	nodes := n.Flatten(func(node *axtree.Node) bool {
		return node.Role.Category() == axtree.CategoryText && len(node.Name) >= minFragmentLen
	})
	for _, t := range nodes {
		out = append(out, t.Name)
		if len(out) == max {
			break
		}
	}
	return out
}

// normalizeHref strips scheme, host and fragment so relative and
// absolute spellings of one target compare equal.
func normalizeHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	u.Scheme = ""
	u.Host = ""
	u.User = nil
	u.Fragment = ""
	out := u.String()
	return strings.TrimPrefix(out, "//")
}
