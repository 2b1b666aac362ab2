package issuestore

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Selecting is the Driver every handler actually depends on: it prefers the
// daemon when Available() says one looks present, and falls back to the
// child process for that single call on any RPC failure — the daemon's
// absence or a transient hiccup never surfaces as a dispatcher error by
// itself (spec.md §4.F).
type Selecting struct {
	rpc       *RPCClient
	child     *ChildProcess
	log       *zap.Logger
	useDaemon bool
}

// NewSelecting builds the default two-driver dispatch used by the tool
// handlers. bin is the issue-store CLI binary name (e.g. "bd") invoked by
// the child-process fallback. useDaemon corresponds to spec.md §6's
// BEADS_USE_DAEMON: when false, the RPC path is never attempted and every
// call goes straight to the child process.
func NewSelecting(workspace, actor, bin string, useDaemon bool, log *zap.Logger) *Selecting {
	return &Selecting{
		rpc:       NewRPCClient(workspace, actor),
		child:     NewChildProcess(bin, workspace, actor),
		log:       log.Named("issuestore"),
		useDaemon: useDaemon,
	}
}

// dispatch tries rpcCall when the daemon looks present, falling back to
// childCall on any error from it (including the daemon having gone away
// between Available() and the call itself).
func (s *Selecting) dispatch(
	rpcCall func() (json.RawMessage, error),
	childCall func() (json.RawMessage, error),
) (json.RawMessage, error) {
	if s.useDaemon && s.rpc.Available() {
		data, err := rpcCall()
		if err == nil {
			return data, nil
		}
		s.log.Debug("issue-store daemon call failed, falling back to child process", zap.Error(err))
	}
	return childCall()
}

// Init always uses the child process, never the daemon (spec.md §4.F):
// initializing the issue store is what brings the daemon's backing state
// into existence, so there is nothing for an RPC call to reach yet.
func (s *Selecting) Init(ctx context.Context) (json.RawMessage, error) {
	return s.child.Init(ctx)
}

func (s *Selecting) Create(ctx context.Context, args CreateArgs) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Create(ctx, args) },
		func() (json.RawMessage, error) { return s.child.Create(ctx, args) },
	)
}

func (s *Selecting) List(ctx context.Context, status string, limit, offset int) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.List(ctx, status, limit, offset) },
		func() (json.RawMessage, error) { return s.child.List(ctx, status, limit, offset) },
	)
}

func (s *Selecting) Ready(ctx context.Context, limit int) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Ready(ctx, limit) },
		func() (json.RawMessage, error) { return s.child.Ready(ctx, limit) },
	)
}

func (s *Selecting) Show(ctx context.Context, id string) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Show(ctx, id) },
		func() (json.RawMessage, error) { return s.child.Show(ctx, id) },
	)
}

func (s *Selecting) Update(ctx context.Context, id string, fields map[string]any) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Update(ctx, id, fields) },
		func() (json.RawMessage, error) { return s.child.Update(ctx, id, fields) },
	)
}

func (s *Selecting) Close(ctx context.Context, id, reason string) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Close(ctx, id, reason) },
		func() (json.RawMessage, error) { return s.child.Close(ctx, id, reason) },
	)
}

func (s *Selecting) Sync(ctx context.Context) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Sync(ctx) },
		func() (json.RawMessage, error) { return s.child.Sync(ctx) },
	)
}

func (s *Selecting) Stats(ctx context.Context) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Stats(ctx) },
		func() (json.RawMessage, error) { return s.child.Stats(ctx) },
	)
}

func (s *Selecting) Cleanup(ctx context.Context, days int) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Cleanup(ctx, days) },
		func() (json.RawMessage, error) { return s.child.Cleanup(ctx, days) },
	)
}

func (s *Selecting) Doctor(ctx context.Context, fix bool) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.Doctor(ctx, fix) },
		func() (json.RawMessage, error) { return s.child.Doctor(ctx, fix) },
	)
}

func (s *Selecting) DepAdd(ctx context.Context, from, to, depType string) (json.RawMessage, error) {
	return s.dispatch(
		func() (json.RawMessage, error) { return s.rpc.DepAdd(ctx, from, to, depType) },
		func() (json.RawMessage, error) { return s.child.DepAdd(ctx, from, to, depType) },
	)
}

var _ Driver = (*Selecting)(nil)
