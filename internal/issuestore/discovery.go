package issuestore

import (
	"os"
	"path/filepath"
	"runtime"
)

// markerDir is the well-known directory discovery walks upward looking for
// (spec.md §4.F "Discovery"): the external issue-store's own private state
// directory, documented in spec.md §6. Its presence means a daemon for this
// workspace tree may be running; socketName names the daemon's endpoint
// file inside it.
const markerDir = ".beads"
const socketName = "daemon.sock"

// DiscoverSocket walks upward from workspace looking for markerDir, falling
// back to a global per-user socket if no workspace-local daemon directory is
// found. The global fallback lets a single daemon serve every workspace for
// a user that never runs a per-workspace one.
func DiscoverSocket(workspace string) string {
	dir, err := filepath.Abs(workspace)
	if err != nil {
		dir = workspace
	}

	for {
		candidate := filepath.Join(dir, markerDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Join(candidate, socketName)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return globalSocketPath()
}

func globalSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\bv-issued`
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".beads-village", "issued.sock")
}
