// Package session holds the per-process agent identity and mutable
// coordination state that every tool handler reads or writes.
//
// spec.md §9 notes that a strongly-typed implementation should thread this
// state through as a context value passed to every handler rather than via
// mutable globals. State therefore has no package-level instance; callers
// construct one in main and pass it explicitly to the dispatcher, which in
// turn passes it to every handler.
package session

import (
	"sync"
	"time"
)

// State is process-local and never persisted; it is rebuilt from scratch
// (and re-registered) on every process start via init.
type State struct {
	mu sync.RWMutex

	agentID   string
	workspace string
	team      string
	role      string
	isLeader  bool

	currentTask string // empty when no task is held

	startTime     time.Time
	completed     int
	reservedPaths map[string]struct{} // normalized, workspace-relative paths currently held
}

// New creates a State for the given agent identity. Workspace and team may
// be empty until the first init call sets them.
func New(agentID, workspace, team string) *State {
	return &State{
		agentID:       agentID,
		workspace:     workspace,
		team:          team,
		startTime:     time.Now(),
		reservedPaths: make(map[string]struct{}),
	}
}

// AgentID returns the process's agent identifier.
func (s *State) AgentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentID
}

// Workspace returns the currently active workspace path.
func (s *State) Workspace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspace
}

// Team returns the currently active team identifier.
func (s *State) Team() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.team
}

// Role returns the agent's capability-filter role tag, or "" if unset.
func (s *State) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// IsLeader reports whether this session holds the leader flag.
func (s *State) IsLeader() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLeader
}

// CurrentTask returns the currently held task id, or "" if none.
func (s *State) CurrentTask() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTask
}

// StartTime returns the time this session was constructed.
func (s *State) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// CompletedCount returns the number of tasks this session has closed via
// `done` since process start.
func (s *State) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

// ReservedPaths returns a snapshot of the normalized paths currently held by
// this session. The returned slice is a copy.
func (s *State) ReservedPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.reservedPaths))
	for p := range s.reservedPaths {
		out = append(out, p)
	}
	return out
}

// Init switches the active workspace/team/role and leader flag. Called by
// the `init` tool; may be called more than once per process (re-init).
func (s *State) Init(workspace, team, role string, leader bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace = workspace
	s.team = team
	s.role = role
	s.isLeader = leader
}

// SetCurrentTask sets or clears (id == "") the currently held task.
func (s *State) SetCurrentTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTask = id
}

// IncrementCompleted bumps the completed-task counter by one. Called by the
// `done` handler after a successful close.
func (s *State) IncrementCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
}

// AddReservedPath records that this session now holds p.
func (s *State) AddReservedPath(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservedPaths[p] = struct{}{}
}

// RemoveReservedPath forgets that this session holds p. Safe to call for a
// path that was never held.
func (s *State) RemoveReservedPath(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservedPaths, p)
}

// ClearReservedPaths empties the held-reservations set and returns the
// paths that were held, for use by release() with no explicit paths.
func (s *State) ClearReservedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reservedPaths))
	for p := range s.reservedPaths {
		out = append(out, p)
	}
	s.reservedPaths = make(map[string]struct{})
	return out
}
