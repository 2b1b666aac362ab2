package issuestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"
)

// presenceCacheTTL bounds how long an RPCClient trusts a "daemon absent"
// verdict before DiscoverSocket and the socket check run again. The verdict
// lives on the client instance; the dispatcher builds a new client for every
// tool call, so it is shared only by the issue-store calls made within one
// tool call, not carried over to the next one.
const presenceCacheTTL = 30 * time.Second

const dialTimeout = 2 * time.Second

// RPCClient talks to the long-lived issue-store daemon over a Unix domain
// socket, one connection per call — no persistent connection is kept, so a
// daemon restart never leaves the caller holding a dead socket.
type RPCClient struct {
	workspace string
	actor     string
	now       func() time.Time

	lastAbsent time.Time
	hasAbsent  bool
}

// NewRPCClient creates a client that discovers the daemon socket relative to
// workspace on every call (cheap: a handful of os.Stat calls up the tree).
func NewRPCClient(workspace, actor string) *RPCClient {
	return &RPCClient{workspace: workspace, actor: actor, now: time.Now}
}

// Available reports whether a daemon looks reachable, without making a full
// RPC round trip. It is used by the selecting Driver to decide whether to
// try the RPC path at all for this call.
func (c *RPCClient) Available() bool {
	if c.hasAbsent && c.now().Sub(c.lastAbsent) < presenceCacheTTL {
		return false
	}
	sock := DiscoverSocket(c.workspace)
	if _, err := os.Stat(sock); err != nil {
		c.hasAbsent = true
		c.lastAbsent = c.now()
		return false
	}
	return true
}

func (c *RPCClient) markAbsent() {
	c.hasAbsent = true
	c.lastAbsent = c.now()
}

// call dials the daemon socket fresh, writes one line-delimited JSON
// request, reads one line-delimited JSON response, and closes the
// connection (spec.md §4.F: "fresh connection per call").
func (c *RPCClient) call(ctx context.Context, operation string, args any) (json.RawMessage, error) {
	sock := DiscoverSocket(c.workspace)

	var d net.Dialer
	d.Timeout = dialTimeout
	conn, err := d.DialContext(ctx, "unix", sock)
	if err != nil {
		c.markAbsent()
		return nil, fmt.Errorf("issuestore: daemon unreachable: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("issuestore: marshal args: %w", err)
	}

	req := RPCRequest{
		Operation: operation,
		Args:      argsJSON,
		Cwd:       c.workspace,
		Actor:     c.actor,
	}
	reqLine, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("issuestore: marshal request: %w", err)
	}
	reqLine = append(reqLine, '\n')

	if _, err := conn.Write(reqLine); err != nil {
		c.markAbsent()
		return nil, fmt.Errorf("issuestore: write request: %w", err)
	}

	reader := bufio.NewReaderSize(conn, 64*1024)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		c.markAbsent()
		return nil, fmt.Errorf("issuestore: read response: %w", err)
	}

	var resp RPCResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("issuestore: malformed daemon response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("issuestore: %s: %s", operation, resp.Error)
	}
	return resp.Data, nil
}

func (c *RPCClient) Create(ctx context.Context, args CreateArgs) (json.RawMessage, error) {
	return c.call(ctx, "create", map[string]any{
		"title":       args.Title,
		"issue_type":  args.Type,
		"priority":    args.Priority,
		"description": args.Description,
		"deps":        args.Deps,
		"tags":        args.Tags,
	})
}

func (c *RPCClient) List(ctx context.Context, status string, limit, offset int) (json.RawMessage, error) {
	return c.call(ctx, "list", map[string]any{"status": status, "limit": limit, "offset": offset})
}

func (c *RPCClient) Ready(ctx context.Context, limit int) (json.RawMessage, error) {
	return c.call(ctx, "ready", map[string]any{"limit": limit})
}

func (c *RPCClient) Show(ctx context.Context, id string) (json.RawMessage, error) {
	return c.call(ctx, "show", map[string]any{"id": id})
}

func (c *RPCClient) Update(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error) {
	args := map[string]any{"id": id}
	for k, v := range fields {
		args[k] = v
	}
	return c.call(ctx, "update", args)
}

func (c *RPCClient) Close(ctx context.Context, id, reason string) (json.RawMessage, error) {
	return c.call(ctx, "close", map[string]any{"id": id, "reason": reason})
}

func (c *RPCClient) Sync(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "sync", struct{}{})
}

func (c *RPCClient) Stats(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, "stats", struct{}{})
}

func (c *RPCClient) Cleanup(ctx context.Context, days int) (json.RawMessage, error) {
	return c.call(ctx, "cleanup", map[string]any{"days": days})
}

func (c *RPCClient) Doctor(ctx context.Context, fix bool) (json.RawMessage, error) {
	return c.call(ctx, "doctor", map[string]any{"fix": fix})
}

func (c *RPCClient) DepAdd(ctx context.Context, from, to, depType string) (json.RawMessage, error) {
	return c.call(ctx, "dep_add", map[string]any{"from": from, "to": to, "type": depType})
}
