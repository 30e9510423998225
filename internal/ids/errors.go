package ids

import (
	"fmt"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
)

// InconsistencyError reports that two trees asserted to represent the
// same page disagree structurally. It aborts the current observation;
// the caller should retake a fresh snapshot.
type InconsistencyError struct {
	Role   axtree.Role
	Name   string
	Path   string
	Reason string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("tree inconsistency at %s: %s (path %s)",
		axtree.PathStep{Role: e.Role, Name: e.Name}, e.Reason, e.Path)
}

// EligibilityError reports an ID invariant breach, such as a node that
// already carried an ID before the assignment pass ran.
type EligibilityError struct {
	Role   axtree.Role
	Name   string
	ID     string
	Reason string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("eligibility violation at %s (id %q): %s",
		axtree.PathStep{Role: e.Role, Name: e.Name}, e.ID, e.Reason)
}
