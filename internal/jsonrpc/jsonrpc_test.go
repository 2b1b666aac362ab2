package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultSetsJSONRPCVersionAndID(t *testing.T) {
	t.Parallel()
	id := json.RawMessage(`7`)
	resp := NewResult(id, map[string]any{"ok": 1})

	assert.Equal(t, Version, resp.JSONRPC)
	assert.Equal(t, id, resp.ID)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"ok": 1}, resp.Result)
}

func TestNewErrorSetsCodeAndMessage(t *testing.T) {
	t.Parallel()
	id := json.RawMessage(`3`)
	resp := NewError(id, CodeMethodNotFound, "method not found: bogus")

	assert.Equal(t, Version, resp.JSONRPC)
	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "method not found: bogus", resp.Error.Message)
}

func TestNewToolCallResultMarshalsResultIntoTextBlock(t *testing.T) {
	t.Parallel()
	result := NewToolCallResult(map[string]any{"id": "bd-1"}, false)

	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.JSONEq(t, `{"id":"bd-1"}`, result.Content[0].Text)
	assert.False(t, result.IsError)
}

func TestNewToolCallResultPropagatesIsError(t *testing.T) {
	t.Parallel()
	result := NewToolCallResult(map[string]any{"error": "boom"}, true)
	assert.True(t, result.IsError)
}

func TestNewToolCallResultFallsBackOnMarshalFailure(t *testing.T) {
	t.Parallel()
	unmarshalable := map[string]any{"bad": make(chan int)}
	result := NewToolCallResult(unmarshalable, false)

	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "failed to encode result")
}
