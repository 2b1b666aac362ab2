package registry

import "time"

// Entry is the on-disk, wire-exact representation of one agent's record
// within a team (spec.md §6 "Registry entry" schema), stored as
// <BASE>/<team>/agents/<agent-id>.json.
type Entry struct {
	Agent        string    `json:"agent"`
	Workspace    string    `json:"ws"`
	Team         string    `json:"team"`
	Capabilities []string  `json:"capabilities"`
	Registered   time.Time `json:"registered"`
	LastSeen     time.Time `json:"last_seen"`
	CurrentTask  string    `json:"current_task,omitempty"`
	Role         string    `json:"role,omitempty"`
	Leader       bool      `json:"leader,omitempty"`
}

// FreshnessWindow is the default window within which an entry's last_seen
// must fall for the agent to be considered online (spec.md §3).
const FreshnessWindow = 5 * time.Minute

// ActiveWindow is the default window used by Active() (spec.md §4.E).
const ActiveWindow = 30 * time.Minute

// WorkspaceGroup is one element of DiscoverWorkspaces' result.
type WorkspaceGroup struct {
	Workspace string   `json:"workspace"`
	AgentIDs  []string `json:"agent_ids"`
	Count     int      `json:"count"`
}
