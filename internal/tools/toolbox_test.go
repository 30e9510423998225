package tools

import (
	"context"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/a11y-action-space/internal/actionspace"
	"github.com/polzovatel/a11y-action-space/internal/axtree"
	"github.com/polzovatel/a11y-action-space/internal/resolve"
)

// fakeCtrl records which browser operation ran.
type fakeCtrl struct {
	clicked  []resolve.UniqueSelector
	filled   map[string]string
	selected map[string]string
	checked  map[string]bool
}

func newFakeCtrl() *fakeCtrl {
	return &fakeCtrl{
		filled:   map[string]string{},
		selected: map[string]string{},
		checked:  map[string]bool{},
	}
}

func (f *fakeCtrl) Close(context.Context) error                           { return nil }
func (f *fakeCtrl) Navigate(context.Context, string) error                { return nil }
func (f *fakeCtrl) GoBack(context.Context) error                          { return nil }
func (f *fakeCtrl) WaitForStableDOM(context.Context, time.Duration) error { return nil }
func (f *fakeCtrl) SaveState(context.Context, string) error               { return nil }
func (f *fakeCtrl) Page() playwright.Page                                 { return nil }

func (f *fakeCtrl) Click(_ context.Context, target resolve.UniqueSelector) error {
	f.clicked = append(f.clicked, target)
	return nil
}

func (f *fakeCtrl) Fill(_ context.Context, target resolve.UniqueSelector, text string) error {
	f.filled[target.ID] = text
	return nil
}

func (f *fakeCtrl) SelectOption(_ context.Context, target resolve.UniqueSelector, option string) error {
	f.selected[target.ID] = option
	return nil
}

func (f *fakeCtrl) SetChecked(_ context.Context, target resolve.UniqueSelector, checked bool) error {
	f.checked[target.ID] = checked
	return nil
}

// uniquePage answers every query with exactly one match, so resolution
// always succeeds on the direct strategy.
type uniquePage struct{}

type uniqueLocator struct{ sel string }

func (l uniqueLocator) Count(context.Context) (int, error)                { return 1, nil }
func (l uniqueLocator) Attribute(context.Context, string) (string, error) { return "", nil }
func (l uniqueLocator) Editable(context.Context) (bool, error)            { return true, nil }
func (l uniqueLocator) Enabled(context.Context) (bool, error)             { return true, nil }
func (l uniqueLocator) Visible(context.Context) (bool, error)             { return true, nil }
func (l uniqueLocator) Selector() string                                  { return l.sel }

func (uniquePage) CountByRoleName(context.Context, resolve.Query) (int, error) { return 1, nil }
func (uniquePage) LocatorsByRoleName(context.Context, resolve.Query) ([]resolve.Locator, error) {
	return []resolve.Locator{uniqueLocator{sel: "one"}}, nil
}
func (uniquePage) QueryPath(_ context.Context, steps []resolve.Query) (resolve.Locator, error) {
	return uniqueLocator{sel: "one"}, nil
}
func (uniquePage) ResolveFramed(context.Context, []resolve.PathSegment, resolve.Query) (resolve.Locator, error) {
	return uniqueLocator{sel: "one"}, nil
}

func observedToolbox(t *testing.T, ctrl *fakeCtrl) *Toolbox {
	t.Helper()
	tree := &axtree.Node{Role: axtree.RoleDocument, Children: []*axtree.Node{
		{Role: axtree.RoleButton, Name: "Login", ID: "B1"},
		{Role: axtree.RoleTextbox, Name: "Email", ID: "I1"},
		{Role: axtree.RoleCombobox, Name: "Country", ID: "I2"},
		{Role: axtree.RoleCheckbox, Name: "Remember", ID: "B2"},
	}}
	tree.RebuildSubtreeIDs()

	tb := New(ctrl, resolve.New(uniquePage{}, zerolog.Nop()), zerolog.Nop())
	tb.SetObservation(tree, actionspace.Build(tree))
	return tb
}

func TestDescribeMirrorsActions(t *testing.T) {
	tb := observedToolbox(t, newFakeCtrl())
	tools := tb.Describe()
	require.Len(t, tools, 4)

	byName := map[string]Tool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	require.Contains(t, byName, "I1")
	props := byName["I1"].InputSchema["properties"].(schema)
	assert.Contains(t, props, "text")
	assert.Contains(t, byName["B1"].Description, "Login")
}

func TestDescribeOrderStable(t *testing.T) {
	tb := observedToolbox(t, newFakeCtrl())
	names := func() []string {
		tools := tb.Describe()
		out := make([]string, len(tools))
		for i, tool := range tools {
			out[i] = tool.Name
		}
		return out
	}
	first := names()
	assert.Equal(t, []string{"B1", "B2", "I1", "I2"}, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, names())
	}
}

func TestInvokeClick(t *testing.T) {
	ctrl := newFakeCtrl()
	tb := observedToolbox(t, ctrl)

	res, err := tb.Invoke(context.Background(), "B1", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Observation, "clicked")
	require.Len(t, ctrl.clicked, 1)
	assert.Equal(t, "B1", ctrl.clicked[0].ID)
}

func TestInvokeFill(t *testing.T) {
	ctrl := newFakeCtrl()
	tb := observedToolbox(t, ctrl)

	_, err := tb.Invoke(context.Background(), "I1", map[string]any{"text": "me@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", ctrl.filled["I1"])

	_, err = tb.Invoke(context.Background(), "I1", nil)
	require.Error(t, err, "text is required")
}

func TestInvokeSelect(t *testing.T) {
	ctrl := newFakeCtrl()
	tb := observedToolbox(t, ctrl)

	_, err := tb.Invoke(context.Background(), "I2", map[string]any{"option": "Latvia"})
	require.NoError(t, err)
	assert.Equal(t, "Latvia", ctrl.selected["I2"])
}

func TestInvokeCheckbox(t *testing.T) {
	ctrl := newFakeCtrl()
	tb := observedToolbox(t, ctrl)

	_, err := tb.Invoke(context.Background(), "B2", map[string]any{"state": true})
	require.NoError(t, err)
	assert.True(t, ctrl.checked["B2"])

	_, err = tb.Invoke(context.Background(), "B2", nil)
	require.NoError(t, err)
	require.Len(t, ctrl.clicked, 1, "no state given, plain toggle click")
}

func TestInvokeUnknownAction(t *testing.T) {
	tb := observedToolbox(t, newFakeCtrl())
	_, err := tb.Invoke(context.Background(), "Z9", nil)
	require.Error(t, err)
}

func TestInvokeWithoutObservation(t *testing.T) {
	tb := New(newFakeCtrl(), resolve.New(uniquePage{}, zerolog.Nop()), zerolog.Nop())
	_, err := tb.Invoke(context.Background(), "B1", nil)
	require.Error(t, err)
}
