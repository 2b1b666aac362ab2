package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/metrics"
	"github.com/beads-village/bv/internal/session"
)

// Registry holds every registered Tool, keyed by name.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry builds the registry with every operation spec.md §4.H names,
// wired against deps.
func NewRegistry(deps *Handlers) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range buildTools(deps) {
		r.register(t)
	}
	return r
}

func (r *Registry) register(t Tool) {
	tt := t
	r.tools[tt.Name] = &tt
	r.order = append(r.order, tt.Name)
}

// List returns every registered tool in registration order, for tools/list.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Lookup returns the tool registered under name, if any.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Dispatch coerces arguments, invokes the named tool's handler, recovers
// from a panic (spec.md §4.H: "Handlers MUST NOT raise through the
// dispatcher"), and records the Prometheus outcome. It never returns a Go
// error for a missing tool or a failed handler — both become an
// {error, hint} Result with isError set, so transports can render every
// outcome uniformly. The bool return is isError.
func (r *Registry) Dispatch(ctx context.Context, sctx *session.Context, name string, rawArgs Args) (Result, bool) {
	started := time.Now()

	tool, ok := r.Lookup(name)
	if !ok {
		result := map[string]any{"error": "unknown operation", "hint": fmt.Sprintf("no such tool %q; call tools/list", name)}
		metrics.ObserveToolCall(name, started, true)
		return result, true
	}

	result, isError := r.invoke(ctx, sctx, tool, coerceArgs(rawArgs))
	metrics.ObserveToolCall(name, started, isError)
	return result, isError
}

func (r *Registry) invoke(ctx context.Context, sctx *session.Context, tool *Tool, args Args) (result Result, isError bool) {
	defer func() {
		if rec := recover(); rec != nil {
			sctx.Logger.Error("tool handler panicked", zap.String("tool", tool.Name), zap.Any("recover", rec))
			result = map[string]any{"error": "internal error", "hint": "retry; if this persists run doctor"}
			isError = true
		}
	}()

	out, err := tool.Handler(ctx, sctx, args)
	if err != nil {
		if he, ok := err.(*HandlerError); ok {
			return map[string]any{"error": he.Message, "hint": he.Hint}, true
		}
		return map[string]any{"error": err.Error(), "hint": "retry; if this persists run doctor"}, true
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, false
}

// coerceArgs applies spec.md §4.H's uniform input coercion (paths/deps/tags
// JSON-string-to-array, ttl suffix parsing) before a handler ever sees the
// arguments.
func coerceArgs(args Args) Args {
	if args == nil {
		return Args{}
	}
	out := make(Args, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, key := range []string{"paths", "deps", "tags"} {
		if v, ok := out[key]; ok {
			out[key] = coerceStringList(v)
		}
	}
	if v, ok := out["ttl"]; ok {
		if n, ok := coerceTTLSeconds(v); ok {
			out["ttl"] = n
		}
	}
	return out
}
