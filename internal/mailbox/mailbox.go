// Package mailbox implements a file-backed, append-only, multi-reader
// message log with per-reader read cursors. Each message is one JSON file
// created via atomicfile.Publish; the filename convention
// (<epoch-with-microseconds>_<6-hex>.json) gives both sortability across
// concurrent writers and uniqueness without any coordination between them.
package mailbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beads-village/bv/internal/atomicfile"
)

// Mailbox operates on one workspace's local mailbox directory and, when a
// team is configured, the team hub's mailbox directory.
type Mailbox struct {
	localDir string // <W>/.mail
	teamDir  string // <BASE>/<T>/mail, "" if no team context
	agentID  string
	now      func() time.Time
}

// New creates a Mailbox. teamDir may be empty if the caller has no active
// team (local-only operation).
func New(localDir, teamDir, agentID string) *Mailbox {
	return &Mailbox{localDir: localDir, teamDir: teamDir, agentID: agentID, now: time.Now}
}

func dirFor(base string, scope Scope, teamDir string) string {
	if scope == Team {
		return teamDir
	}
	return base
}

// Send writes one message into the chosen scope's mailbox directory.
func (m *Mailbox) Send(scope Scope, req SendRequest) error {
	dir := dirFor(m.localDir, scope, m.teamDir)
	if dir == "" {
		return fmt.Errorf("mailbox: no team directory configured for team-scoped send")
	}

	to := req.To
	if to == "" {
		to = "all"
	}
	importance := req.Importance
	if importance == "" {
		importance = ImportanceNormal
	}

	msg := Message{
		From:        req.From,
		To:          to,
		Subject:     req.Subject,
		Body:        req.Body,
		Timestamp:   m.now().UTC().Format(time.RFC3339),
		Thread:      req.Thread,
		Importance:  importance,
		RelatedTask: req.RelatedTask,
		Workspace:   req.Workspace,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mailbox: marshal message: %w", err)
	}

	now := m.now()
	epoch := float64(now.UnixNano()) / 1e9
	filename := fmt.Sprintf("%.6f_%s.json", epoch, atomicfile.RandomSuffix(6))

	if err := atomicfile.Publish(dir, filename, data); err != nil {
		return fmt.Errorf("mailbox: publish: %w", err)
	}
	return nil
}

// RecvOptions configures Recv.
type RecvOptions struct {
	MaxN        int
	UnreadOnly  bool
	IncludeTeam bool
}

// Recv implements spec.md §4.D: enumerate each in-scope directory, filter by
// recipient and (optionally) unread status, merge, sort by filename epoch,
// bound to MaxN, and — on a non-empty read — advance the cursor
// for every scanned scope to "now".
func (m *Mailbox) Recv(opts RecvOptions) ([]Summary, error) {
	if opts.MaxN <= 0 {
		opts.MaxN = 5
	}

	var all []Summary

	local, err := m.scanScope(Local, opts.UnreadOnly)
	if err != nil {
		return nil, err
	}
	all = append(all, local...)

	var teamScanned bool
	if opts.IncludeTeam && m.teamDir != "" {
		team, err := m.scanScope(Team, opts.UnreadOnly)
		if err != nil {
			return nil, err
		}
		all = append(all, team...)
		teamScanned = true
	}

	// Sort by the microsecond filename epoch, not the second-precision
	// Timestamp field: two messages from the same writer in the same second
	// carry equal Timestamp values, and sorting on that would let a stable
	// sort's tie-break on scan order invert their actual send order.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Epoch < all[j].Epoch
	})

	if len(all) > opts.MaxN {
		all = all[len(all)-opts.MaxN:]
	}

	if len(all) > 0 {
		now := m.now()
		if err := m.advanceCursor(Local, now); err != nil {
			return nil, err
		}
		if teamScanned {
			if err := m.advanceCursor(Team, now); err != nil {
				return nil, err
			}
		}
	}

	return all, nil
}

// scanScope reads the last recvWindow files from one mailbox directory,
// filters by recipient and unreadOnly, and tags team messages as global.
func (m *Mailbox) scanScope(scope Scope, unreadOnly bool) ([]Summary, error) {
	dir := dirFor(m.localDir, scope, m.teamDir)
	if dir == "" {
		return nil, nil
	}

	files, err := listJSONFilesDesc(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mailbox: list %q: %w", dir, err)
	}
	if len(files) > recvWindow {
		files = files[:recvWindow]
	}

	cursor, err := m.loadCursor(scope)
	if err != nil {
		return nil, err
	}

	var out []Summary
	for _, f := range files {
		epoch, ok := epochFromFilename(f.Name())
		if !ok {
			continue
		}
		if unreadOnly && epoch <= cursor {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			continue // best-effort: tolerate a file removed mid-scan
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // malformed message, skip silently (spec.md §7)
		}
		if msg.To != "all" && msg.To != m.agentID {
			continue
		}

		out = append(out, Summary{
			Message: msg,
			Global:  scope == Team,
			Epoch:   epoch,
		})
	}
	return out, nil
}

func (m *Mailbox) cursorPath(scope Scope) string {
	dir := dirFor(m.localDir, scope, m.teamDir)
	return filepath.Join(dir, ".read_"+m.agentID)
}

func (m *Mailbox) loadCursor(scope Scope) (float64, error) {
	data, err := atomicfile.Read(m.cursorPath(scope))
	if err != nil {
		if err == atomicfile.ErrNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("mailbox: read cursor: %w", err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, nil // corrupted cursor, treat as never-read
	}
	return v, nil
}

// advanceCursor writes the cursor forward to now. spec.md §4.D and §9
// document this as the "advance to wall-clock now, not max message
// timestamp" weakness: a message landing between the read and this write is
// missed by a future unread_only Recv. The original_source "advance to max
// observed epoch" alternative is noted as a strict improvement but left
// optional per spec.md §9 — this implementation keeps the documented
// wall-clock behavior for interoperability with other implementations.
func (m *Mailbox) advanceCursor(scope Scope, t time.Time) error {
	dir := dirFor(m.localDir, scope, m.teamDir)
	if dir == "" {
		return nil
	}
	epoch := float64(t.UnixNano()) / 1e9
	return atomicfile.Publish(dir, ".read_"+m.agentID, []byte(strconv.FormatFloat(epoch, 'f', 6, 64)))
}

func listJSONFilesDesc(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []os.DirEntry
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".read_") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, e)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() > files[j].Name() })
	return files, nil
}

func epochFromFilename(name string) (float64, bool) {
	base := strings.TrimSuffix(name, ".json")
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(base[:idx], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
