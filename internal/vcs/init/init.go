// Package vcsinit registers all built-in VCS providers via side effects.
// Import it for its blank identifier from any binary that needs the full
// provider set.
package vcsinit

import (
	_ "github.com/whatthepatch/wtp/internal/vcs/bitbucket"
	_ "github.com/whatthepatch/wtp/internal/vcs/github"
)
