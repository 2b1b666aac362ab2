// Package rpcengine implements the JSON-RPC method table shared by both
// transports (spec.md §4.I, §4.J): initialize, notifications/initialized,
// tools/list, tools/call, ping, and the -32601 fallback for anything else.
// Both transports differ only in how they frame bytes on the wire — the
// request/response semantics live here once.
package rpcengine

import (
	"context"
	"encoding/json"

	"github.com/beads-village/bv/internal/dispatcher"
	"github.com/beads-village/bv/internal/jsonrpc"
	"github.com/beads-village/bv/internal/session"
)

// Engine evaluates one JSON-RPC request against a tool registry and session.
type Engine struct {
	Registry      *dispatcher.Registry
	ServerName    string
	ServerVersion string
}

// New creates an Engine bound to registry.
func New(registry *dispatcher.Registry, name, version string) *Engine {
	return &Engine{Registry: registry, ServerName: name, ServerVersion: version}
}

// Handle evaluates one request and returns the response to write back, or
// nil if the method is a notification that produces no response body
// (notifications/initialized over stdio).
func (e *Engine) Handle(ctx context.Context, sctx *session.Context, req jsonrpc.Request) *jsonrpc.Response {
	switch req.Method {
	case "initialize":
		result := jsonrpc.InitializeResult{
			ProtocolVersion: jsonrpc.ProtocolVersion,
			ServerInfo:      jsonrpc.ServerInfo{Name: e.ServerName, Version: e.ServerVersion},
			Instructions:    "Filesystem-coordinated multi-agent workspace. Call init first to register this agent, then claim/reserve/msg as needed.",
			Capabilities:    map[string]any{"tools": map[string]any{}},
		}
		resp := jsonrpc.NewResult(req.ID, result)
		return &resp

	case "notifications/initialized":
		return nil

	case "ping":
		resp := jsonrpc.NewResult(req.ID, map[string]any{})
		return &resp

	case "tools/list":
		tools := e.Registry.List()
		descriptors := make([]jsonrpc.ToolDescriptor, 0, len(tools))
		for _, t := range tools {
			descriptors = append(descriptors, jsonrpc.ToolDescriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
		resp := jsonrpc.NewResult(req.ID, jsonrpc.ToolsListResult{Tools: descriptors})
		return &resp

	case "tools/call":
		var params jsonrpc.ToolCallParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				resp := jsonrpc.NewError(req.ID, jsonrpc.CodeInvalidParams, "malformed tools/call params")
				return &resp
			}
		}
		result, isError := e.Registry.Dispatch(ctx, sctx, params.Name, dispatcher.Args(params.Arguments))
		resp := jsonrpc.NewResult(req.ID, jsonrpc.NewToolCallResult(result, isError))
		return &resp

	default:
		resp := jsonrpc.NewError(req.ID, jsonrpc.CodeMethodNotFound, "method not found: "+req.Method)
		return &resp
	}
}
