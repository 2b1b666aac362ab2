package issuestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCClientAvailableReflectsSocketPresence(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()

	c := NewRPCClient(ws, "agent-a")
	assert.False(t, c.Available(), "no marker directory exists yet")

	markerPath := filepath.Join(ws, markerDir)
	require.NoError(t, os.MkdirAll(markerPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(markerPath, socketName), []byte{}, 0o644))
	assert.True(t, c.Available())
}

func TestRPCClientAvailableCachesAbsence(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewRPCClient(ws, "agent-a")
	c.now = func() time.Time { return now }

	assert.False(t, c.Available())

	// Socket appears, but the absence cache hasn't expired yet.
	markerPath := filepath.Join(ws, markerDir)
	require.NoError(t, os.MkdirAll(markerPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(markerPath, socketName), []byte{}, 0o644))
	c.now = func() time.Time { return now.Add(presenceCacheTTL / 2) }
	assert.False(t, c.Available(), "cached absence should still apply before the TTL elapses")

	c.now = func() time.Time { return now.Add(presenceCacheTTL + time.Second) }
	assert.True(t, c.Available(), "cache should have expired and re-checked the filesystem")
}
