package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefaultReturnsEnvWhenSet(t *testing.T) {
	t.Setenv("BV_TEST_KEY", "custom")
	assert.Equal(t, "custom", EnvOrDefault("BV_TEST_KEY", "fallback"))
}

func TestEnvOrDefaultReturnsDefaultWhenUnset(t *testing.T) {
	os.Unsetenv("BV_TEST_KEY_UNSET")
	assert.Equal(t, "fallback", EnvOrDefault("BV_TEST_KEY_UNSET", "fallback"))
}

func TestDefaultsAppliesDocumentedFallbacks(t *testing.T) {
	t.Setenv("BEADS_AGENT", "agent-test")
	t.Setenv("BEADS_WS", "/tmp/ws")
	t.Setenv("BEADS_TEAM", "team-x")
	t.Setenv("BEADS_VILLAGE_BASE", "/tmp/village")
	t.Setenv("BEADS_USE_DAEMON", "0")
	t.Setenv("BV_ISSUE_STORE_BIN", "bd-custom")
	t.Setenv("BV_LOG_LEVEL", "debug")
	t.Setenv("BV_HTTP_ADDR", ":9999")

	cfg := Defaults()

	assert.Equal(t, "agent-test", cfg.AgentID)
	assert.Equal(t, "/tmp/ws", cfg.Workspace)
	assert.Equal(t, "team-x", cfg.Team)
	assert.Equal(t, "/tmp/village", cfg.VillageBase)
	assert.False(t, cfg.UseDaemon)
	assert.Equal(t, "bd-custom", cfg.IssueStoreBin)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestDefaultsFallsBackToWorkingDirectoryWhenWorkspaceUnset(t *testing.T) {
	os.Unsetenv("BEADS_WS")

	cfg := Defaults()

	assert.NotEmpty(t, cfg.Workspace)
}
