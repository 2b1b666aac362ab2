package session

import (
	"path/filepath"

	"go.uber.org/zap"
)

// Context bundles everything a tool handler needs beyond its own arguments:
// the mutable session state and the process logger.
// It is constructed once in main and passed by pointer to every dispatcher
// call — the explicit-threading alternative to the mutable globals spec.md
// §9 describes as a valid but less type-safe option.
type Context struct {
	State  *State
	Logger *zap.Logger

	// VillageBase is the hub base directory (<BASE> in spec.md §6),
	// e.g. "$HOME/.beads-village". It does not change after process start.
	VillageBase string
}

// TeamDir returns the hub directory for the session's current team:
// <VillageBase>/<team>/.
func (c *Context) TeamDir() string {
	return filepath.Join(c.VillageBase, c.State.Team())
}
