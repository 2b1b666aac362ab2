// Package registry tracks agent liveness across workspaces within a team.
// One JSON file per agent per team, <BASE>/<team>/agents/<agent-id>.json,
// owned exclusively by that agent — writes are last-writer-wins by
// convention, mirroring the teacher's agentmanager.Manager registry shape
// but persisted to disk instead of kept in memory, so a daemon restart does
// not lose who is online.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beads-village/bv/internal/atomicfile"
)

const dirName = "agents"

// Registry operates on one team hub directory.
type Registry struct {
	teamDir string // <BASE>/<team>
	agentID string
	now     func() time.Time
}

// New creates a Registry bound to teamDir, acting on behalf of agentID.
func New(teamDir, agentID string) *Registry {
	return &Registry{teamDir: teamDir, agentID: agentID, now: time.Now}
}

func (r *Registry) dir() string {
	return filepath.Join(r.teamDir, dirName)
}

func (r *Registry) path(agentID string) string {
	return filepath.Join(r.dir(), agentID+".json")
}

func (r *Registry) load(agentID string) (Entry, bool, error) {
	data, err := atomicfile.Read(r.path(agentID))
	if err != nil {
		if err == atomicfile.ErrNotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, nil // malformed record, discard silently (spec.md §5)
	}
	return e, true, nil
}

func (r *Registry) save(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("registry: marshal entry: %w", err)
	}
	return atomicfile.Publish(r.dir(), r.agentID+".json", data)
}

// Register publishes this agent's record with registered = last_seen = now.
func (r *Registry) Register(workspace string, capabilities []string, role string, leader bool) (Entry, error) {
	now := r.now()
	e := Entry{
		Agent:        r.agentID,
		Workspace:    workspace,
		Team:         filepath.Base(r.teamDir),
		Capabilities: capabilities,
		Registered:   now,
		LastSeen:     now,
		Role:         role,
		Leader:       leader,
	}
	if existing, ok, err := r.load(r.agentID); err == nil && ok {
		e.Registered = existing.Registered
	}
	if err := r.save(e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Heartbeat refreshes last_seen. A no-op, not an error, if the record has
// vanished (e.g. a cleanup race).
func (r *Registry) Heartbeat() error {
	e, ok, err := r.load(r.agentID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	e.LastSeen = r.now()
	return r.save(e)
}

// UpdateTask sets or clears (taskID == "") the current task, and refreshes
// last_seen in the same write.
func (r *Registry) UpdateTask(taskID string) error {
	e, ok, err := r.load(r.agentID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	e.CurrentTask = taskID
	e.LastSeen = r.now()
	return r.save(e)
}

// Active enumerates every record in the team whose last_seen falls within
// window of now. window <= 0 uses ActiveWindow.
func (r *Registry) Active(window time.Duration) ([]Entry, error) {
	if window <= 0 {
		window = ActiveWindow
	}
	entries, err := os.ReadDir(r.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("registry: list %q: %w", r.dir(), err)
	}

	now := r.now()
	var out []Entry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir(), entry.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if now.Sub(e.LastSeen) <= window {
			out = append(out, e)
		}
	}
	return out, nil
}

// DiscoverWorkspaces groups active records by workspace.
func (r *Registry) DiscoverWorkspaces(window time.Duration) ([]WorkspaceGroup, error) {
	active, err := r.Active(window)
	if err != nil {
		return nil, err
	}

	byWorkspace := make(map[string][]string)
	var order []string
	for _, e := range active {
		if _, seen := byWorkspace[e.Workspace]; !seen {
			order = append(order, e.Workspace)
		}
		byWorkspace[e.Workspace] = append(byWorkspace[e.Workspace], e.Agent)
	}

	groups := make([]WorkspaceGroup, 0, len(order))
	for _, ws := range order {
		ids := byWorkspace[ws]
		groups = append(groups, WorkspaceGroup{Workspace: ws, AgentIDs: ids, Count: len(ids)})
	}
	return groups, nil
}

// IsOnline reports whether entry's last_seen falls within FreshnessWindow of
// now (spec.md §3's online/working/offline derivation).
func IsOnline(e Entry, now time.Time) bool {
	return now.Sub(e.LastSeen) <= FreshnessWindow
}
