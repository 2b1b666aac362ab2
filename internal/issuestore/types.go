// Package issuestore abstracts the external issue-store collaborator
// (spec.md §1 calls it the "embedded issue tracker", deliberately out of
// core scope) behind the capability set spec.md §4.F names:
// init/create/list/ready/show/update/close/sync/stats/cleanup/doctor/dep_add.
//
// Two drivers exist for the same capability set — a long-lived RPC daemon
// and a short-lived child process — because the daemon is faster when
// present but is not guaranteed to be running in every environment. The
// abstraction is per-operation dispatch with fallback, not a long-lived
// choice (spec.md §9).
package issuestore

import (
	"context"
	"encoding/json"
)

// CreateArgs carries the inputs to Create. Tags and Deps are optional.
type CreateArgs struct {
	Title       string
	Type        string
	Priority    string
	Description string
	Deps        []string
	Tags        []string
}

// RPCRequest is the wire shape of a call to the long-lived daemon
// (spec.md §4.F): "Requests carry operation, args, cwd, actor."
type RPCRequest struct {
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args"`
	Cwd       string          `json:"cwd"`
	Actor     string          `json:"actor"`
}

// RPCResponse is the wire shape of the daemon's reply: "{success, data} or
// {success: false, error}".
type RPCResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Driver is the capability set every issue-store backend implements.
// On success every method returns the normalized result shape spec.md §4.F
// describes: a verbatim JSON array, a parsed JSON string, or {output: raw}
// when unparseable. On failure it returns a non-nil Go error and no data;
// the dispatcher turns that error into the {error, hint} envelope. Callers
// do not need to special-case which backend answered.
type Driver interface {
	Init(ctx context.Context) (json.RawMessage, error)
	Create(ctx context.Context, args CreateArgs) (json.RawMessage, error)
	List(ctx context.Context, status string, limit, offset int) (json.RawMessage, error)
	Ready(ctx context.Context, limit int) (json.RawMessage, error)
	Show(ctx context.Context, id string) (json.RawMessage, error)
	Update(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error)
	Close(ctx context.Context, id, reason string) (json.RawMessage, error)
	Sync(ctx context.Context) (json.RawMessage, error)
	Stats(ctx context.Context) (json.RawMessage, error)
	Cleanup(ctx context.Context, days int) (json.RawMessage, error)
	Doctor(ctx context.Context, fix bool) (json.RawMessage, error)
	DepAdd(ctx context.Context, from, to, depType string) (json.RawMessage, error)
}

// Issue is a best-effort typed projection of a raw issue-store record, used
// by handlers (claim's role filtering, ls's item shape) that need to look at
// specific fields rather than pass the payload through verbatim. Unknown
// fields are preserved in Raw.
type Issue struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Type     string          `json:"issue_type,omitempty"`
	Priority string          `json:"priority,omitempty"`
	Status   string          `json:"status,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// DecodeIssues best-effort decodes a normalized list result (a JSON array,
// or {items:[...]}) into []Issue. Malformed entries are skipped, per
// spec.md §7's defensive read policy.
func DecodeIssues(data json.RawMessage) []Issue {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil
		}
		arr = wrapped.Items
	}

	out := make([]Issue, 0, len(arr))
	for _, raw := range arr {
		var iss Issue
		if err := json.Unmarshal(raw, &iss); err != nil {
			continue
		}
		iss.Raw = raw
		out = append(out, iss)
	}
	return out
}
