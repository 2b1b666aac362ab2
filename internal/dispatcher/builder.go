package dispatcher

import "encoding/json"

func schema(properties map[string]any, required ...string) json.RawMessage {
	obj := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		obj["required"] = required
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

// buildTools assembles the fixed operation set spec.md §4.H names, each
// carrying its behavior annotations for a tool-calling client deciding how
// cautiously to invoke it.
func buildTools(h *Handlers) []Tool {
	return []Tool{
		{
			Name:        "init",
			Description: "Switch workspace/team, initialize the issue store, and register this agent.",
			InputSchema: schema(map[string]any{
				"ws":     prop("string", "workspace path"),
				"team":   prop("string", "team hub name"),
				"role":   prop("string", "role tag this agent claims issues for"),
				"leader": prop("boolean", "grant this agent the assign operation"),
			}),
			Behavior: Behavior{Idempotent: true},
			Handler:  h.handleInit,
		},
		{
			Name:        "claim",
			Description: "Claim the next ready issue matching this agent's role.",
			InputSchema: schema(map[string]any{}),
			Behavior:    Behavior{Destructive: true},
			Handler:     h.handleClaim,
		},
		{
			Name:        "done",
			Description: "Close an issue, release held reservations, and clear the current task.",
			InputSchema: schema(map[string]any{
				"id":  prop("string", "issue id"),
				"msg": prop("string", "closing note"),
			}, "id"),
			Behavior: Behavior{Destructive: true},
			Handler:  h.handleDone,
		},
		{
			Name:        "add",
			Description: "Create a new issue.",
			InputSchema: schema(map[string]any{
				"title":  prop("string", "issue title"),
				"desc":   prop("string", "issue description"),
				"typ":    prop("string", "issue type"),
				"pri":    prop("string", "priority"),
				"tags":   prop("array", "role/topic tags"),
				"deps":   prop("array", "dependency issue ids"),
				"parent": prop("string", "parent issue id for a discovered-from dependency"),
			}, "title"),
			Behavior: Behavior{Destructive: true},
			Handler:  h.handleAdd,
		},
		{
			Name:        "assign",
			Description: "Assign an issue to a role. Requires team leadership.",
			InputSchema: schema(map[string]any{
				"id":     prop("string", "issue id"),
				"role":   prop("string", "role to assign"),
				"notify": prop("boolean", "broadcast the assignment team-wide"),
			}, "id", "role"),
			Behavior: Behavior{Destructive: true},
			Handler:  h.handleAssign,
		},
		{
			Name:        "ls",
			Description: "List issues, optionally filtered by status.",
			InputSchema: schema(map[string]any{
				"status": prop("string", "status filter, default open"),
				"limit":  prop("integer", "max results, 1-50, default 10"),
				"offset": prop("integer", "pagination offset"),
			}),
			Behavior: Behavior{ReadOnly: true, Idempotent: true},
			Handler:  h.handleLs,
		},
		{
			Name:        "ready",
			Description: "List issues ready to be claimed.",
			InputSchema: schema(map[string]any{
				"limit": prop("integer", "max results, 1-20, default 5"),
			}),
			Behavior: Behavior{ReadOnly: true, Idempotent: true},
			Handler:  h.handleReady,
		},
		{
			Name:        "show",
			Description: "Show the full record for one issue.",
			InputSchema: schema(map[string]any{"id": prop("string", "issue id")}, "id"),
			Behavior:    Behavior{ReadOnly: true, Idempotent: true},
			Handler:     h.handleShowIssue,
		},
		{
			Name:        "cleanup",
			Description: "Remove issues closed more than the given number of days ago.",
			InputSchema: schema(map[string]any{
				"days": prop("integer", "age threshold in days, default 2"),
			}),
			Behavior: Behavior{Destructive: true},
			Handler:  h.handleCleanup,
		},
		{
			Name:        "doctor",
			Description: "Run the issue store's health check, optionally applying fixes.",
			InputSchema: schema(map[string]any{"fix": prop("boolean", "apply fixes")}),
			Behavior:    Behavior{},
			Handler:     h.handleDoctor,
		},
		{
			Name:        "sync",
			Description: "Sync the issue store.",
			InputSchema: schema(map[string]any{}),
			Behavior:    Behavior{Idempotent: true},
			Handler:     h.handleSync,
		},
		{
			Name:        "reserve",
			Description: "Exclusively reserve one or more paths for a bounded time.",
			InputSchema: schema(map[string]any{
				"paths":  prop("array", "paths to reserve"),
				"ttl":    prop("integer", "reservation lifetime in seconds, default 600"),
				"reason": prop("string", "reason recorded on the reservation"),
			}, "paths"),
			Behavior: Behavior{OpenWorld: true},
			Handler:  h.handleReserve,
		},
		{
			Name:        "release",
			Description: "Release reserved paths. Empty paths releases everything this agent holds.",
			InputSchema: schema(map[string]any{"paths": prop("array", "paths to release")}),
			Behavior:    Behavior{Idempotent: true},
			Handler:     h.handleRelease,
		},
		{
			Name:        "reservations",
			Description: "List all active reservations in the workspace.",
			InputSchema: schema(map[string]any{}),
			Behavior:    Behavior{ReadOnly: true, Idempotent: true},
			Handler:     h.handleReservations,
		},
		{
			Name:        "msg",
			Description: "Send a message to the local workspace or, with global, the team hub.",
			InputSchema: schema(map[string]any{
				"subj":       prop("string", "subject"),
				"body":       prop("string", "message body"),
				"to":         prop("string", "recipient agent id, default all"),
				"thread":     prop("string", "thread id"),
				"importance": prop("string", "low, normal, or high"),
				"global":     prop("boolean", "send to the team hub instead of the local workspace"),
			}, "subj"),
			Behavior: Behavior{OpenWorld: true},
			Handler:  h.handleMsg,
		},
		{
			Name:        "inbox",
			Description: "Receive unread or recent messages.",
			InputSchema: schema(map[string]any{
				"n":      prop("integer", "max messages, default 5"),
				"unread": prop("boolean", "only unread messages"),
				"global": prop("boolean", "include the team hub, default true"),
			}),
			Behavior: Behavior{ReadOnly: true},
			Handler:  h.handleInbox,
		},
		{
			Name:        "broadcast",
			Description: "Send a high-importance message to the entire team.",
			InputSchema: schema(map[string]any{
				"subj":       prop("string", "subject"),
				"body":       prop("string", "message body"),
				"importance": prop("string", "default high"),
			}, "subj"),
			Behavior: Behavior{OpenWorld: true},
			Handler:  h.handleBroadcast,
		},
		{
			Name:        "discover",
			Description: "List active agents and the workspaces they're working in.",
			InputSchema: schema(map[string]any{}),
			Behavior:    Behavior{ReadOnly: true},
			Handler:     h.handleDiscover,
		},
		{
			Name:        "status",
			Description: "Summarize this agent's session: open issues, active workspace reservations, team size.",
			InputSchema: schema(map[string]any{}),
			Behavior:    Behavior{ReadOnly: true},
			Handler:     h.handleStatus,
		},
	}
}
