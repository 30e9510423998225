// Package observe runs the observation pipeline: capture a raw tree,
// derive the simplified view, stamp IDs, and sync them back so both
// representations share one ID space.
package observe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/polzovatel/a11y-action-space/internal/actionspace"
	"github.com/polzovatel/a11y-action-space/internal/axtree"
	"github.com/polzovatel/a11y-action-space/internal/browser"
	"github.com/polzovatel/a11y-action-space/internal/fold"
	"github.com/polzovatel/a11y-action-space/internal/ids"
	"github.com/polzovatel/a11y-action-space/internal/prune"
	"github.com/polzovatel/a11y-action-space/internal/snapshot"
)

const stabilizeTimeout = 3 * time.Second

// Observation is one processed page state. Raw keeps full capture
// detail for locating; Simple is the pruned and folded view sent to the
// decision-maker; both carry the same IDs.
type Observation struct {
	URL     string
	Title   string
	Raw     *axtree.Node
	Simple  *axtree.Node
	Actions []actionspace.Action
}

// Observer drives repeated observations of one page.
type Observer struct {
	ctrl browser.Controller
	log  zerolog.Logger
	prev *Observation
}

func New(ctrl browser.Controller, log zerolog.Logger) *Observer {
	return &Observer{
		ctrl: ctrl,
		log:  log.With().Str("comp", "observe").Logger(),
	}
}

// Observe captures the page and runs the full pipeline from scratch.
func (o *Observer) Observe(ctx context.Context) (*Observation, error) {
	sum, err := o.capture(ctx)
	if err != nil {
		return nil, err
	}
	obs, err := Process(sum.Tree)
	if err != nil {
		return nil, err
	}
	obs.URL, obs.Title = sum.URL, sum.Title
	o.prev = obs
	o.log.Info().Str("url", obs.URL).Int("actions", len(obs.Actions)).Msg("observed")
	return obs, nil
}

// Update captures a fresh snapshot and reconciles it with the previous
// observation: IDs known from before stay valid where their ancestor
// paths still match, new page regions get fresh labels, and the action
// list is the merge of known plus newly discovered actions.
//
// A structural inconsistency means the page changed under us beyond
// reconciliation; the typed error surfaces so the caller can fall back
// to a full Observe.
func (o *Observer) Update(ctx context.Context, known []actionspace.Action) (*Observation, error) {
	if o.prev == nil {
		return o.Observe(ctx)
	}
	sum, err := o.capture(ctx)
	if err != nil {
		return nil, err
	}
	obs, err := Reconcile(sum.Tree, o.prev.Simple, known)
	if err != nil {
		return nil, err
	}
	obs.URL, obs.Title = sum.URL, sum.Title
	o.prev = obs
	o.log.Info().Str("url", obs.URL).Int("actions", len(obs.Actions)).Msg("updated")
	return obs, nil
}

// Reconcile folds a fresh raw capture, inherits IDs from the previous
// simplified tree by ancestor path, labels whatever is new, and merges
// the action lists. Pure; both inputs stay untouched.
func Reconcile(raw, prevSimple *axtree.Node, known []actionspace.Action) (*Observation, error) {
	cfg := prune.DefaultConfig()
	simple := fold.Fold(prune.Prune(raw, cfg), cfg)
	if simple == nil {
		return nil, fmt.Errorf("page reduced to nothing")
	}
	simple, err := ids.Sync(simple, prevSimple)
	if err != nil {
		return nil, fmt.Errorf("reconcile with previous observation: %w", err)
	}
	simple, err = ids.Resume(simple)
	if err != nil {
		return nil, fmt.Errorf("label new regions: %w", err)
	}
	rawSynced, err := ids.Sync(raw, simple)
	if err != nil {
		return nil, fmt.Errorf("sync raw tree: %w", err)
	}

	// Re-list only the region no known action explains, then merge.
	uncovered := actionspace.DiffUncovered(simple, actionspace.IDs(known))
	var discovered []actionspace.Action
	if uncovered != nil {
		discovered = actionspace.Build(prune.Prune(uncovered, prune.ActionConfig()))
	}
	return &Observation{
		Raw:     rawSynced,
		Simple:  simple,
		Actions: actionspace.Merge(known, discovered),
	}, nil
}

// IsInconsistency reports whether an Update failure was a cross-tree
// consistency violation, the signal to retake a full observation.
func IsInconsistency(err error) bool {
	var ierr *ids.InconsistencyError
	return errors.As(err, &ierr)
}

func (o *Observer) capture(ctx context.Context) (snapshot.Summary, error) {
	if err := o.ctrl.WaitForStableDOM(ctx, stabilizeTimeout); err != nil {
		o.log.Warn().Err(err).Msg("page did not settle, capturing anyway")
	}
	cctx, cancel := snapshot.WithDeadline(ctx, 15*time.Second)
	defer cancel()
	return snapshot.Collect(cctx, o.ctrl)
}

// Process is the pure pipeline core: prune for display, fold, assign
// IDs on the simplified tree, then sync them onto the raw tree. Both
// returned trees are fresh; the input is not modified.
func Process(raw *axtree.Node) (*Observation, error) {
	if raw == nil {
		return nil, fmt.Errorf("empty capture")
	}
	cfg := prune.DefaultConfig()
	simple := fold.Fold(prune.Prune(raw, cfg), cfg)
	if simple == nil {
		return nil, fmt.Errorf("page reduced to nothing")
	}
	simple, err := ids.Assign(simple)
	if err != nil {
		return nil, fmt.Errorf("assign ids: %w", err)
	}
	rawSynced, err := ids.Sync(raw, simple)
	if err != nil {
		return nil, fmt.Errorf("sync raw tree: %w", err)
	}
	actions := actionspace.Build(prune.Prune(simple, prune.ActionConfig()))
	return &Observation{Raw: rawSynced, Simple: simple, Actions: actions}, nil
}
