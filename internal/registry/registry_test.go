package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRegisterThenHeartbeatPreservesRegisteredTime(t *testing.T) {
	t.Parallel()
	teamDir := t.TempDir()
	registered := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r := New(teamDir, "agent-a")
	r.now = fixedClock(registered)
	entry, err := r.Register("/ws", []string{"go"}, "builder", false)
	require.NoError(t, err)
	assert.Equal(t, registered, entry.Registered)
	assert.Equal(t, registered, entry.LastSeen)

	later := registered.Add(time.Minute)
	r.now = fixedClock(later)
	require.NoError(t, r.Heartbeat())

	entries, err := r.Active(time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, registered, entries[0].Registered)
	assert.Equal(t, later, entries[0].LastSeen)
}

func TestHeartbeatOnMissingRecordIsNoop(t *testing.T) {
	t.Parallel()
	teamDir := t.TempDir()
	r := New(teamDir, "agent-a")
	assert.NoError(t, r.Heartbeat())
}

func TestUpdateTaskSetsAndClears(t *testing.T) {
	t.Parallel()
	teamDir := t.TempDir()
	r := New(teamDir, "agent-a")
	r.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := r.Register("/ws", nil, "", false)
	require.NoError(t, err)

	require.NoError(t, r.UpdateTask("bd-42"))
	entries, err := r.Active(time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bd-42", entries[0].CurrentTask)

	require.NoError(t, r.UpdateTask(""))
	entries, err = r.Active(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, entries[0].CurrentTask)
}

func TestActiveExcludesStaleEntries(t *testing.T) {
	t.Parallel()
	teamDir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fresh := New(teamDir, "agent-fresh")
	fresh.now = fixedClock(now)
	_, err := fresh.Register("/ws", nil, "", false)
	require.NoError(t, err)

	stale := New(teamDir, "agent-stale")
	stale.now = fixedClock(now.Add(-time.Hour))
	_, err = stale.Register("/ws", nil, "", false)
	require.NoError(t, err)

	checker := New(teamDir, "agent-fresh")
	checker.now = fixedClock(now)
	active, err := checker.Active(30 * time.Minute)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "agent-fresh", active[0].Agent)
}

func TestDiscoverWorkspacesGroupsByWorkspace(t *testing.T) {
	t.Parallel()
	teamDir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := New(teamDir, "agent-a")
	a.now = fixedClock(now)
	_, err := a.Register("/ws1", nil, "", false)
	require.NoError(t, err)

	b := New(teamDir, "agent-b")
	b.now = fixedClock(now)
	_, err = b.Register("/ws1", nil, "", false)
	require.NoError(t, err)

	c := New(teamDir, "agent-c")
	c.now = fixedClock(now)
	_, err = c.Register("/ws2", nil, "", false)
	require.NoError(t, err)

	groups, err := a.DiscoverWorkspaces(time.Hour)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byWS := make(map[string]WorkspaceGroup)
	for _, g := range groups {
		byWS[g.Workspace] = g
	}
	assert.Equal(t, 2, byWS["/ws1"].Count)
	assert.Equal(t, 1, byWS["/ws2"].Count)
}

func TestIsOnline(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsOnline(Entry{LastSeen: now}, now))
	assert.False(t, IsOnline(Entry{LastSeen: now.Add(-FreshnessWindow - time.Second)}, now))
}
