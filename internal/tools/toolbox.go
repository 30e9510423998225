// Package tools turns the current action space into invokable tools:
// each action ID becomes one tool whose invocation resolves the ID
// against the live page and performs the matching interaction.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/polzovatel/a11y-action-space/internal/actionspace"
	"github.com/polzovatel/a11y-action-space/internal/axtree"
	"github.com/polzovatel/a11y-action-space/internal/browser"
	"github.com/polzovatel/a11y-action-space/internal/resolve"
)

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type Result struct {
	Observation string
}

// Toolbox binds the latest observation to the browser. SetObservation
// swaps in a fresh tree and action list after every pipeline run;
// Invoke resolves one action ID and acts on it.
type Toolbox struct {
	ctrl     browser.Controller
	resolver *resolve.Resolver
	log      zerolog.Logger

	mu      sync.Mutex
	tree    *axtree.Node
	actions map[string]actionspace.Action
}

func New(ctrl browser.Controller, resolver *resolve.Resolver, log zerolog.Logger) *Toolbox {
	return &Toolbox{
		ctrl:     ctrl,
		resolver: resolver,
		log:      log.With().Str("comp", "tools").Logger(),
		actions:  map[string]actionspace.Action{},
	}
}

// SetObservation replaces the tree and actions the toolbox works from.
// The tree must be the synced raw tree so IDs resolve against capture
// detail, not against the simplified view.
func (t *Toolbox) SetObservation(tree *axtree.Node, actions []actionspace.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree = tree
	t.actions = make(map[string]actionspace.Action, len(actions))
	for _, a := range actions {
		t.actions[a.ID] = a
	}
}

// Describe lists the current actions as tool declarations, ordered by
// action ID so repeated calls declare tools identically.
func (t *Toolbox) Describe() []Tool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ordered := make([]actionspace.Action, 0, len(t.actions))
	for _, a := range t.actions {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return actionspace.IDLess(ordered[i].ID, ordered[j].ID)
	})
	out := make([]Tool, 0, len(ordered))
	for _, a := range ordered {
		props := schema{}
		var required []string
		for _, p := range a.Parameters {
			props[p.Name] = map[string]any{"type": p.Type, "description": p.Name}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, newTool(a.ID, a.Description, props, required))
	}
	return out
}

// Invoke performs the action behind an ID. A ResolutionError comes back
// typed so the caller can degrade that single action instead of
// aborting the step.
func (t *Toolbox) Invoke(ctx context.Context, actionID string, input map[string]any) (Result, error) {
	t.mu.Lock()
	action, known := t.actions[actionID]
	tree := t.tree
	t.mu.Unlock()
	if !known {
		return Result{}, fmt.Errorf("unknown action %s", actionID)
	}
	if tree == nil {
		return Result{}, fmt.Errorf("no observation loaded")
	}

	target, err := t.resolver.Resolve(ctx, actionID, tree)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", actionID, err)
	}

	switch action.Role {
	case axtree.RoleTextbox, axtree.RoleSearchbox:
		text, err := requiredString(input, "text")
		if err != nil {
			return Result{}, err
		}
		if err := t.ctrl.Fill(ctx, target, text); err != nil {
			return Result{}, err
		}
		t.log.Info().Str("id", actionID).Msg("filled")
		return Result{Observation: fmt.Sprintf("filled %s", action.Description)}, nil

	case axtree.RoleCombobox:
		option, err := requiredString(input, "option")
		if err != nil {
			return Result{}, err
		}
		if err := t.ctrl.SelectOption(ctx, target, option); err != nil {
			return Result{}, err
		}
		t.log.Info().Str("id", actionID).Str("option", option).Msg("selected")
		return Result{Observation: fmt.Sprintf("selected %q in %s", option, action.Description)}, nil

	case axtree.RoleSlider, axtree.RoleSpinbutton:
		value, err := requiredNumber(input, "value")
		if err != nil {
			return Result{}, err
		}
		text := strconv.FormatFloat(value, 'f', -1, 64)
		if err := t.ctrl.Fill(ctx, target, text); err != nil {
			return Result{}, err
		}
		t.log.Info().Str("id", actionID).Float64("value", value).Msg("set")
		return Result{Observation: fmt.Sprintf("set %s to %s", action.Description, text)}, nil

	case axtree.RoleCheckbox, axtree.RoleSwitch:
		if state, ok := input["state"]; ok {
			checked, ok := state.(bool)
			if !ok {
				return Result{}, fmt.Errorf("field state must be boolean")
			}
			if err := t.ctrl.SetChecked(ctx, target, checked); err != nil {
				return Result{}, err
			}
			return Result{Observation: fmt.Sprintf("set %s checked=%t", action.Description, checked)}, nil
		}
		if err := t.ctrl.Click(ctx, target); err != nil {
			return Result{}, err
		}
		return Result{Observation: fmt.Sprintf("toggled %s", action.Description)}, nil

	default:
		if err := t.ctrl.Click(ctx, target); err != nil {
			return Result{}, err
		}
		t.log.Info().Str("id", actionID).Msg("clicked")
		return Result{Observation: fmt.Sprintf("clicked %s", action.Description)}, nil
	}
}

// Helpers for schema and extraction.
type schema map[string]any

func newTool(name, desc string, props schema, required []string) Tool {
	return Tool{
		Name:        name,
		Description: desc,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

func requiredString(input map[string]any, key string) (string, error) {
	val, ok := input[key]
	if !ok {
		return "", fmt.Errorf("field %s required", key)
	}
	switch v := val.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("field %s empty", key)
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("field %s must be string", key)
	}
}

func requiredNumber(input map[string]any, key string) (float64, error) {
	val, ok := input[key]
	if !ok {
		return 0, fmt.Errorf("field %s required", key)
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %s must be number: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %s must be number", key)
	}
}
