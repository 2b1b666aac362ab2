package stdio

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/dispatcher"
	"github.com/beads-village/bv/internal/jsonrpc"
	"github.com/beads-village/bv/internal/rpcengine"
	"github.com/beads-village/bv/internal/session"
)

func newTestSession() *session.Context {
	st := session.New("agent-a", "/ws", "")
	return &session.Context{State: st, Logger: zap.NewNop(), VillageBase: "/base"}
}

func TestRunEchoesOneResponsePerRequestLine(t *testing.T) {
	t.Parallel()
	engine := rpcengine.New(dispatcher.NewRegistry(&dispatcher.Handlers{}), "beads-village", "dev")
	srv := New(engine, zap.NewNop())

	input := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n")
	var out bytes.Buffer

	err := srv.Run(context.Background(), newTestSession(), input, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var resp1, resp2 jsonrpc.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp1))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp2))
	assert.Equal(t, json.RawMessage("1"), resp1.ID)
	assert.Equal(t, json.RawMessage("2"), resp2.ID)
}

func TestRunSkipsBlankLines(t *testing.T) {
	t.Parallel()
	engine := rpcengine.New(dispatcher.NewRegistry(&dispatcher.Handlers{}), "beads-village", "dev")
	srv := New(engine, zap.NewNop())

	input := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer

	err := srv.Run(context.Background(), newTestSession(), input, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
}

func TestRunWritesParseErrorForMalformedJSON(t *testing.T) {
	t.Parallel()
	engine := rpcengine.New(dispatcher.NewRegistry(&dispatcher.Handlers{}), "beads-village", "dev")
	srv := New(engine, zap.NewNop())

	input := strings.NewReader(`not json` + "\n")
	var out bytes.Buffer

	err := srv.Run(context.Background(), newTestSession(), input, &out)
	require.NoError(t, err)

	var resp jsonrpc.Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeParseError, resp.Error.Code)
}

func TestRunProducesNoOutputForNotification(t *testing.T) {
	t.Parallel()
	engine := rpcengine.New(dispatcher.NewRegistry(&dispatcher.Handlers{}), "beads-village", "dev")
	srv := New(engine, zap.NewNop())

	input := strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n")
	var out bytes.Buffer

	err := srv.Run(context.Background(), newTestSession(), input, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()
	engine := rpcengine.New(dispatcher.NewRegistry(&dispatcher.Handlers{}), "beads-village", "dev")
	srv := New(engine, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer

	err := srv.Run(ctx, newTestSession(), input, &out)
	assert.ErrorIs(t, err, context.Canceled)
}
