package mailbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSendAndRecvLocal(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mb := New(filepath.Join(ws, ".mail"), "", "agent-a")
	mb.now = fixedClock(now)

	require.NoError(t, mb.Send(Local, SendRequest{From: "agent-a", Subject: "hello", Body: "world", Workspace: ws}))

	got, err := mb.Recv(RecvOptions{MaxN: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Subject)
	assert.Equal(t, "all", got[0].To)
	assert.False(t, got[0].Global)
}

func TestRecvFiltersByRecipient(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sender := New(filepath.Join(ws, ".mail"), "", "agent-a")
	sender.now = fixedClock(now)
	require.NoError(t, sender.Send(Local, SendRequest{From: "agent-a", To: "agent-b", Subject: "for b", Workspace: ws}))
	require.NoError(t, sender.Send(Local, SendRequest{From: "agent-a", To: "agent-c", Subject: "for c", Workspace: ws}))

	reader := New(filepath.Join(ws, ".mail"), "", "agent-b")
	reader.now = fixedClock(now.Add(time.Second))

	got, err := reader.Recv(RecvOptions{MaxN: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "for b", got[0].Subject)
}

func TestRecvUnreadOnlyAdvancesCursor(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sender := New(filepath.Join(ws, ".mail"), "", "agent-a")
	sender.now = fixedClock(t0)
	require.NoError(t, sender.Send(Local, SendRequest{From: "agent-a", Subject: "first", Workspace: ws}))

	reader := New(filepath.Join(ws, ".mail"), "", "agent-b")
	reader.now = fixedClock(t0.Add(time.Second))

	first, err := reader.Recv(RecvOptions{MaxN: 5, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second unread-only read, with no new messages, returns nothing: the
	// cursor has advanced past the message already delivered.
	reader.now = fixedClock(t0.Add(2 * time.Second))
	second, err := reader.Recv(RecvOptions{MaxN: 5, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestRecvBoundsToMaxN(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mb := New(filepath.Join(ws, ".mail"), "", "agent-a")
	for i := 0; i < 10; i++ {
		mb.now = fixedClock(base.Add(time.Duration(i) * time.Second))
		require.NoError(t, mb.Send(Local, SendRequest{From: "agent-a", Subject: "msg", Workspace: ws}))
	}

	mb.now = fixedClock(base.Add(100 * time.Second))
	got, err := mb.Recv(RecvOptions{MaxN: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSendRequiresTeamDirForTeamScope(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	mb := New(filepath.Join(ws, ".mail"), "", "agent-a")

	err := mb.Send(Team, SendRequest{From: "agent-a", Subject: "broadcast"})
	require.Error(t, err)
}

func TestRecvIncludesTeamScopeWhenConfigured(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	teamDir := t.TempDir()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sender := New(filepath.Join(ws, ".mail"), filepath.Join(teamDir, "mail"), "agent-a")
	sender.now = fixedClock(now)
	require.NoError(t, sender.Send(Team, SendRequest{From: "agent-a", Subject: "team-wide", Workspace: ws}))

	reader := New(filepath.Join(ws, ".mail"), filepath.Join(teamDir, "mail"), "agent-b")
	reader.now = fixedClock(now.Add(time.Second))

	got, err := reader.Recv(RecvOptions{MaxN: 5, IncludeTeam: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Global)
}

func TestRecvPreservesFIFOOrderWithinSameSecond(t *testing.T) {
	t.Parallel()
	ws := t.TempDir()
	// Same wall-clock second for both sends: only the filename's microsecond
	// epoch can distinguish send order.
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mb := New(filepath.Join(ws, ".mail"), "", "agent-a")
	mb.now = fixedClock(t0)
	require.NoError(t, mb.Send(Local, SendRequest{From: "agent-a", Subject: "first", Workspace: ws}))
	mb.now = fixedClock(t0.Add(200 * time.Millisecond))
	require.NoError(t, mb.Send(Local, SendRequest{From: "agent-a", Subject: "second", Workspace: ws}))

	mb.now = fixedClock(t0.Add(time.Second))
	got, err := mb.Recv(RecvOptions{MaxN: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Subject)
	assert.Equal(t, "second", got[1].Subject)
}

func TestEpochFromFilename(t *testing.T) {
	t.Parallel()
	epoch, ok := epochFromFilename("1735732800.123456_abcdef.json")
	require.True(t, ok)
	assert.InDelta(t, 1735732800.123456, epoch, 1e-6)

	_, ok = epochFromFilename("not-a-message.json")
	assert.False(t, ok)
}
