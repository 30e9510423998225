package resolve

import (
	"fmt"
	"strings"
)

// ResolutionError means no strategy converged on exactly one element
// for the given action ID. It is local to that one action: the caller
// reports the action as unresolvable and keeps the rest of the space.
type ResolutionError struct {
	ID     string
	Tried  []string
	Reason string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("no unique selector for %s", e.ID)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Tried) > 0 {
		msg += " (tried " + strings.Join(e.Tried, ", ") + ")"
	}
	return msg
}
