// Package stdio implements the line-delimited JSON-RPC 2.0 transport
// (spec.md §4.I): one request per non-empty line on stdin, one response per
// line on stdout, single-threaded, in arrival order.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/jsonrpc"
	"github.com/beads-village/bv/internal/rpcengine"
	"github.com/beads-village/bv/internal/session"
)

// Server reads JSON-RPC requests from r and writes responses to w.
type Server struct {
	Engine *rpcengine.Engine
	Logger *zap.Logger
}

// New creates a Server.
func New(engine *rpcengine.Engine, logger *zap.Logger) *Server {
	return &Server{Engine: engine, Logger: logger.Named("stdio")}
}

// Run blocks, reading one JSON-RPC request per line until r is exhausted or
// ctx is cancelled. Byte-mode scanning is used throughout — no platform
// line-ending translation — since the protocol is defined over raw bytes.
func (s *Server) Run(ctx context.Context, sctx *session.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var req jsonrpc.Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp := jsonrpc.NewError(nil, jsonrpc.CodeParseError, "invalid JSON")
			if writeErr := writeResponse(writer, resp); writeErr != nil {
				return writeErr
			}
			continue
		}

		resp := s.Engine.Handle(ctx, sctx, req)
		if resp == nil {
			continue // notification: no response
		}
		if err := writeResponse(writer, *resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeResponse(w *bufio.Writer, resp jsonrpc.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

