// Package config resolves process configuration from environment variables
// and cobra flags, environment-first, flag-overridable — the same
// envOrDefault pattern server/cmd/server/main.go uses for every setting.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds every value either transport entrypoint needs to start.
type Config struct {
	AgentID       string
	Workspace     string
	Team          string
	Role          string
	Leader        bool
	VillageBase   string
	UseDaemon     bool
	IssueStoreBin string
	LogLevel      string
	HTTPAddr      string
}

// Defaults resolves every field from its environment variable, falling back
// to spec.md §6's documented default when unset.
func Defaults() Config {
	workspace := EnvOrDefault("BEADS_WS", "")
	if workspace == "" {
		if wd, err := os.Getwd(); err == nil {
			workspace = wd
		} else {
			workspace = "."
		}
	}

	villageBase := EnvOrDefault("BEADS_VILLAGE_BASE", "")
	if villageBase == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		villageBase = filepath.Join(home, ".beads-village")
	}

	return Config{
		AgentID:       EnvOrDefault("BEADS_AGENT", fmt.Sprintf("agent-%d", os.Getpid())),
		Workspace:     workspace,
		Team:          EnvOrDefault("BEADS_TEAM", "default"),
		VillageBase:   villageBase,
		UseDaemon:     EnvOrDefault("BEADS_USE_DAEMON", "1") == "1",
		IssueStoreBin: EnvOrDefault("BV_ISSUE_STORE_BIN", "bd"),
		LogLevel:      EnvOrDefault("BV_LOG_LEVEL", "info"),
		HTTPAddr:      EnvOrDefault("BV_HTTP_ADDR", ":8765"),
	}
}

// EnvOrDefault mirrors server/cmd/server/main.go's envOrDefault.
func EnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
