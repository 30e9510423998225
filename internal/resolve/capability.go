// Package resolve turns an assigned action ID back into a selector that
// uniquely identifies the underlying element on the live page. It only
// ever reads through the page-query capability; no strategy mutates the
// DOM. Resolving distinct IDs concurrently is safe; resolving the same
// ID from two callers at once is not; callers serialize per ID.
package resolve

import (
	"context"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// Query describes one role/name step of a page query. Steps compose:
// each one is scoped inside the match of the previous step.
type Query struct {
	Role  axtree.Role
	Name  string
	Exact bool

	// Set when the node asserts the state; nil means "don't filter".
	Selected *bool
	Checked  *bool

	// ContainsText narrows the step to matches whose subtree contains
	// every fragment.
	ContainsText []string
}

// SegmentKind distinguishes the boundary a framed query crosses.
type SegmentKind int

const (
	SegmentFrame SegmentKind = iota
	SegmentShadow
)

// PathSegment is one shadow-root or iframe boundary on the way to an
// element hosted outside the main document.
type PathSegment struct {
	Kind     SegmentKind
	Selector string
}

// PageQuery is the read-only capability the driver exposes to the
// resolver. Timeouts and retries live inside the implementation; errors
// are propagated to the caller unchanged.
type PageQuery interface {
	// CountByRoleName counts elements matching a single query.
	CountByRoleName(ctx context.Context, q Query) (int, error)
	// LocatorsByRoleName returns a handle per match, in document order.
	LocatorsByRoleName(ctx context.Context, q Query) ([]Locator, error)
	// QueryPath builds a compound locator: each step scoped within the
	// previous one, ending at the target element.
	QueryPath(ctx context.Context, steps []Query) (Locator, error)
	// ResolveFramed builds a locator that first crosses the given
	// shadow-root/iframe boundaries, then applies the query inside.
	ResolveFramed(ctx context.Context, segments []PathSegment, q Query) (Locator, error)
}

// Locator is a live, read-only handle onto matching page elements.
type Locator interface {
	Count(ctx context.Context) (int, error)
	Attribute(ctx context.Context, name string) (string, error)
	Editable(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Visible(ctx context.Context) (bool, error)
	// Selector renders the driver-syntax selector string this locator
	// was built from.
	Selector() string
}

// UniqueSelector addresses exactly one element. Fallbacks are broader
// selectors a driver may retry when the primary goes stale; Segments is
// non-empty for elements behind shadow or iframe boundaries. Steps
// carries the winning query chain: text-containment filters have no
// flat selector-string form, so drivers rebuild the live locator from
// Steps when present and treat Selector as a rendering.
type UniqueSelector struct {
	ID        string        `json:"id"`
	Selector  string        `json:"selector"`
	Steps     []Query       `json:"steps,omitempty"`
	Fallbacks []string      `json:"fallbacks,omitempty"`
	Segments  []PathSegment `json:"segments,omitempty"`
}
