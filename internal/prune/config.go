package prune

import "github.com/polzovatel/a11y-action-space/internal/axtree"

// Config selects which node classes the pruning pass removes.
type Config struct {
	// Images drops image-category nodes.
	Images bool
	// Texts drops every text-category node regardless of content.
	Texts bool
	// EmptyStructural drops structural wrappers left childless after
	// their subtree was pruned.
	EmptyStructural bool
	// Iframes drops iframe nodes together with their subtree.
	Iframes bool
	// Roles lists known-noisy roles that are always removed.
	Roles map[axtree.Role]bool
}

// noisyRoles are browser artifacts with no information content.
func noisyRoles() map[axtree.Role]bool {
	return map[axtree.Role]bool{
		axtree.RoleLineBreak:  true,
		axtree.RoleListMarker: true,
	}
}

// DefaultConfig is the display-oriented policy: keep text and images so
// the tree still reads like the page, drop empty wrappers and noise.
func DefaultConfig() Config {
	return Config{
		EmptyStructural: true,
		Roles:           noisyRoles(),
	}
}

// ActionConfig is the resolution-oriented policy: only nodes that can
// carry an action matter, so text and images go too.
func ActionConfig() Config {
	return Config{
		Images:          true,
		Texts:           true,
		EmptyStructural: true,
		Roles:           noisyRoles(),
	}
}
