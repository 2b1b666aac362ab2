package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/session"
)

func newTestSession() *session.Context {
	st := session.New("agent-a", "/ws", "")
	return &session.Context{State: st, Logger: zap.NewNop(), VillageBase: "/base"}
}

func newTestRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range tools {
		r.register(t)
	}
	return r
}

func TestDispatchUnknownOperation(t *testing.T) {
	t.Parallel()
	r := newTestRegistry()
	sctx := newTestSession()

	result, isError := r.Dispatch(context.Background(), sctx, "nope", Args{})
	assert.True(t, isError)

	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unknown operation", m["error"])
}

func TestDispatchSuccessReturnsHandlerResult(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(Tool{
		Name: "echo",
		Handler: func(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
			return map[string]any{"got": args["msg"]}, nil
		},
	})
	sctx := newTestSession()

	result, isError := r.Dispatch(context.Background(), sctx, "echo", Args{"msg": "hi"})
	assert.False(t, isError)
	m := result.(map[string]any)
	assert.Equal(t, "hi", m["got"])
}

func TestDispatchHandlerErrorUsesHint(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(Tool{
		Name: "boom",
		Handler: func(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
			return nil, Fail("permission denied", "ask the leader")
		},
	})
	sctx := newTestSession()

	result, isError := r.Dispatch(context.Background(), sctx, "boom", Args{})
	assert.True(t, isError)
	m := result.(map[string]any)
	assert.Equal(t, "permission denied", m["error"])
	assert.Equal(t, "ask the leader", m["hint"])
}

func TestDispatchPlainErrorGetsGenericHint(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(Tool{
		Name: "boom",
		Handler: func(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
			return nil, assertError{}
		},
	})
	sctx := newTestSession()

	result, isError := r.Dispatch(context.Background(), sctx, "boom", Args{})
	assert.True(t, isError)
	m := result.(map[string]any)
	assert.Equal(t, "boom", m["error"])
	assert.Contains(t, m["hint"], "doctor")
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func TestDispatchRecoversFromPanic(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(Tool{
		Name: "panicky",
		Handler: func(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
			panic("unexpected")
		},
	})
	sctx := newTestSession()

	result, isError := r.Dispatch(context.Background(), sctx, "panicky", Args{})
	assert.True(t, isError)
	m := result.(map[string]any)
	assert.Equal(t, "internal error", m["error"])
}

func TestDispatchNilResultBecomesEmptyObject(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(Tool{
		Name: "nada",
		Handler: func(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
			return nil, nil
		},
	})
	sctx := newTestSession()

	result, isError := r.Dispatch(context.Background(), sctx, "nada", Args{})
	assert.False(t, isError)
	assert.Equal(t, map[string]any{}, result)
}

func TestDispatchCoercesListAndTTLArgsBeforeHandler(t *testing.T) {
	t.Parallel()
	var captured Args
	r := newTestRegistry(Tool{
		Name: "capture",
		Handler: func(ctx context.Context, sctx *session.Context, args Args) (Result, error) {
			captured = args
			return map[string]any{}, nil
		},
	})
	sctx := newTestSession()

	_, isError := r.Dispatch(context.Background(), sctx, "capture", Args{
		"paths": "src/main.go",
		"ttl":   "5m",
	})
	require.False(t, isError)
	assert.Equal(t, []string{"src/main.go"}, captured["paths"])
	assert.Equal(t, 300, captured["ttl"])
}

func TestListReturnsToolsInRegistrationOrder(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(Tool{Name: "a"}, Tool{Name: "b"}, Tool{Name: "c"})

	names := make([]string, 0, 3)
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
