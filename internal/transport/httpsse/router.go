// Package httpsse implements the HTTP + Server-Sent-Events transport
// (spec.md §4.J): GET /mcp opens a liveness stream, POST /mcp carries
// JSON-RPC requests with the same semantics as the stdio transport, plus
// GET /health and GET /metrics.
package httpsse

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/rpcengine"
	"github.com/beads-village/bv/internal/session"
)

// RouterConfig holds the dependencies NewRouter needs, mirroring the
// teacher's RouterConfig-as-single-struct constructor pattern.
type RouterConfig struct {
	Engine        *rpcengine.Engine
	SessionFunc   func(r *http.Request) *session.Context
	Logger        *zap.Logger
	ServerName    string
	ServerVersion string
}

// NewRouter builds the chi router for the HTTP+SSE transport. CORS is wired
// permissively across every method and header — spec.md §4.J: "the trust
// boundary is network-level, not transport-level."
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &handler{cfg: cfg}

	r.Get("/mcp", h.serveSSE)
	r.Post("/mcp", h.servePost)
	r.Get("/health", h.serveHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type handler struct {
	cfg RouterConfig
}

func (h *handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","server":"` + h.cfg.ServerName + `","version":"` + h.cfg.ServerVersion + `"}`))
}
