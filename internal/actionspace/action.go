// Package actionspace projects a processed accessibility tree into the
// ordered list of addressable actions an agent can pick from, and
// supports incremental re-listing against a set of already-known IDs.
package actionspace

import (
	"fmt"
	"strings"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// Param describes one typed input an action accepts.
type Param struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Action is one addressable operation on the page.
type Action struct {
	ID          string      `json:"id"`
	Role        axtree.Role `json:"role"`
	Description string      `json:"description"`
	Parameters  []Param     `json:"parameters,omitempty"`
}

// paramsFor maps a role to the inputs its operation needs. Clicks take
// nothing; value-bearing controls take exactly one typed argument.
func paramsFor(role axtree.Role) []Param {
	switch role {
	case axtree.RoleTextbox, axtree.RoleSearchbox:
		return []Param{{Name: "text", Type: "string", Required: true}}
	case axtree.RoleCombobox:
		return []Param{{Name: "option", Type: "string", Required: true}}
	case axtree.RoleSlider, axtree.RoleSpinbutton:
		return []Param{{Name: "value", Type: "number", Required: true}}
	default:
		return nil
	}
}

// describe renders a human-readable one-liner for the node. Fold
// history and state flags are included so the agent sees what the
// merged node stands for.
func describe(n *axtree.Node) string {
	var b strings.Builder
	b.WriteString(string(n.Role))
	if n.Name != "" {
		fmt.Fprintf(&b, " %q", n.Name)
	}
	if len(n.GroupRoles) > 0 {
		parts := make([]string, len(n.GroupRoles))
		for i, r := range n.GroupRoles {
			parts[i] = string(r)
		}
		fmt.Fprintf(&b, " (merged: %s)", strings.Join(parts, ", "))
	}
	var flags []string
	if n.Selected {
		flags = append(flags, "selected")
	}
	if n.Checked {
		flags = append(flags, "checked")
	}
	if n.Disabled {
		flags = append(flags, "disabled")
	}
	if n.Required {
		flags = append(flags, "required")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
	}
	return b.String()
}

func fromNode(n *axtree.Node) Action {
	return Action{
		ID:          n.ID,
		Role:        n.Role,
		Description: describe(n),
		Parameters:  paramsFor(n.Role),
	}
}
