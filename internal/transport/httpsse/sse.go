package httpsse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/jsonrpc"
)

const pingInterval = 15 * time.Second

// serveSSE implements GET /mcp: emit one endpoint event carrying the POST
// URI as a literal string, then ping events every 15 seconds until the
// client disconnects. No tool results are pushed on this stream (spec.md
// §4.J) — it exists purely for protocol compliance and liveness.
func (h *handler) serveSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

// servePost implements POST /mcp: decode one JSON-RPC request, run it
// through the same engine the stdio transport uses, and write back one
// response — except notifications/initialized, which returns an empty
// HTTP 200 body (spec.md §4.J).
func (h *handler) servePost(w http.ResponseWriter, r *http.Request) {
	var req jsonrpc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONRPC(w, jsonrpc.NewError(nil, jsonrpc.CodeParseError, "invalid JSON"))
		return
	}

	sctx := h.cfg.SessionFunc(r)
	resp := h.cfg.Engine.Handle(r.Context(), sctx, req)
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONRPC(w, *resp)
}

// writeJSONRPC always answers HTTP 200 — spec.md §4.J: "Protocol-level error
// responses use HTTP 200 with a JSON-RPC error body."
func writeJSONRPC(w http.ResponseWriter, resp jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Debug("httpsse: failed to encode response", zap.Error(err))
	}
}
