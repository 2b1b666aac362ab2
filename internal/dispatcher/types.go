// Package dispatcher is the named-operation registry spec.md §4.H describes:
// one entry per tool, each carrying its handler, a short description, an
// input schema, and the behavior annotations (read_only, destructive,
// idempotent, open_world) a tool-calling client uses to decide how
// cautiously to invoke it. Both transports (stdio, HTTP+SSE) are thin
// wrappers around Registry.Dispatch.
package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/beads-village/bv/internal/session"
)

// Args is the decoded JSON object passed to a tool call, after input
// coercion has run.
type Args map[string]any

// Result is whatever a handler returns on success — an object for most
// operations, but a bare JSON array for the handful (inbox, reservations)
// whose contract in spec.md §4.H is "list". Handlers signal failure by
// returning a non-nil error instead of shaping Result themselves — Dispatch
// is the only place that turns an error into the {error, hint} envelope.
type Result = any

// Handler implements one named operation's behavior, given the session
// context and coerced arguments.
type Handler func(ctx context.Context, sctx *session.Context, args Args) (Result, error)

// HandlerError carries an operator-facing hint alongside the error message,
// per spec.md §4.H's error envelope contract. Handlers that want a specific
// hint return this instead of a bare error; Dispatch falls back to a generic
// hint for any other error type.
type HandlerError struct {
	Message string
	Hint    string
}

func (e *HandlerError) Error() string { return e.Message }

// Fail constructs a HandlerError.
func Fail(message, hint string) error {
	return &HandlerError{Message: message, Hint: hint}
}

// Behavior captures the annotations spec.md §4.H requires be declared
// alongside every operation.
type Behavior struct {
	ReadOnly    bool
	Destructive bool
	Idempotent  bool
	OpenWorld   bool
}

// Tool is one entry in the registry.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Behavior    Behavior
	Handler     Handler
}
