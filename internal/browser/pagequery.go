package browser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/a11y-action-space/internal/resolve"
)

// PageAdapter implements resolve.PageQuery on a live playwright page.
// Every method is a read; the adapter never mutates the DOM.
type PageAdapter struct {
	page playwright.Page
}

func NewPageAdapter(page playwright.Page) *PageAdapter {
	return &PageAdapter{page: page}
}

func (a *PageAdapter) CountByRoleName(ctx context.Context, q resolve.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := chainLocator(a.page, nil, []resolve.Query{q}).Count()
	if err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

func (a *PageAdapter) LocatorsByRoleName(ctx context.Context, q resolve.Query) ([]resolve.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := stepSelector(q)
	all, err := chainLocator(a.page, nil, []resolve.Query{q}).All()
	if err != nil {
		return nil, wrap(err)
	}
	out := make([]resolve.Locator, 0, len(all))
	for i, loc := range all {
		out = append(out, &pwLocator{
			loc: loc,
			sel: fmt.Sprintf("%s >> nth=%d", sel, i),
		})
	}
	return out, nil
}

func (a *PageAdapter) QueryPath(ctx context.Context, steps []resolve.Query) (resolve.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = stepSelector(s)
	}
	sel := strings.Join(parts, " >> ")
	return &pwLocator{loc: chainLocator(a.page, nil, steps), sel: sel}, nil
}

func (a *PageAdapter) ResolveFramed(ctx context.Context, segments []resolve.PathSegment, q resolve.Query) (resolve.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var frame playwright.FrameLocator
	for _, seg := range segments {
		// Shadow hops are pierced by the selector engine itself; only
		// frame boundaries need explicit traversal.
		if seg.Kind != resolve.SegmentFrame {
			continue
		}
		if frame == nil {
			frame = a.page.FrameLocator(seg.Selector)
		} else {
			frame = frame.FrameLocator(seg.Selector)
		}
	}
	return &pwLocator{
		loc: chainLocator(a.page, frame, []resolve.Query{q}),
		sel: stepSelector(q),
	}, nil
}

// pwLocator adapts a playwright locator to the read-only handle the
// resolver works with.
type pwLocator struct {
	loc playwright.Locator
	sel string
}

func (l *pwLocator) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := l.loc.Count()
	if err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

func (l *pwLocator) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	val, err := l.loc.First().GetAttribute(name)
	if err != nil {
		return "", wrap(err)
	}
	return val, nil
}

func (l *pwLocator) Editable(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := l.loc.First().IsEditable()
	return ok, wrap(err)
}

func (l *pwLocator) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := l.loc.First().IsEnabled()
	return ok, wrap(err)
}

func (l *pwLocator) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := l.loc.First().IsVisible()
	return ok, wrap(err)
}

func (l *pwLocator) Selector() string { return l.sel }

// stepBase renders the executable part of one query step: the role
// engine for named steps, a bare css universal for unnamed text scopes.
// Text fragments are not rendered here; chainLocator enforces them as
// locator filters.
func stepBase(q resolve.Query) string {
	if q.Name == "" && len(q.ContainsText) > 0 {
		return "css=*"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "role=%s", q.Role)
	if q.Name != "" {
		if q.Exact {
			fmt.Fprintf(&b, "[name=%q]", q.Name)
		} else {
			fmt.Fprintf(&b, "[name=/%s/i]", regexp.QuoteMeta(q.Name))
		}
	}
	if q.Selected != nil {
		fmt.Fprintf(&b, "[selected=%t]", *q.Selected)
	}
	if q.Checked != nil {
		fmt.Fprintf(&b, "[checked=%t]", *q.Checked)
	}
	return b.String()
}

// stepSelector renders one query step for recorded selector strings.
// The :has-text suffix keeps text-scoped steps distinguishable; the
// role engine has no string form for containment, so matching always
// runs through chainLocator and the string stays a rendering.
func stepSelector(q resolve.Query) string {
	var b strings.Builder
	b.WriteString(stepBase(q))
	for _, frag := range q.ContainsText {
		fmt.Fprintf(&b, ":has-text(%q)", frag)
	}
	return b.String()
}

// chainLocator composes the live locator for a query chain, rooted at
// the page or at an already-entered frame. Each step's text fragments
// become HasText filters on the step's locator.
func chainLocator(page playwright.Page, frame playwright.FrameLocator, steps []resolve.Query) playwright.Locator {
	var loc playwright.Locator
	for _, s := range steps {
		base := stepBase(s)
		switch {
		case loc != nil:
			loc = loc.Locator(base)
		case frame != nil:
			loc = frame.Locator(base)
		default:
			loc = page.Locator(base)
		}
		for _, frag := range s.ContainsText {
			loc = loc.Filter(playwright.LocatorFilterOptions{HasText: frag})
		}
	}
	return loc
}
