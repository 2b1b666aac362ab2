// Command bv is the beads-village MCP server: a filesystem-coordinated
// multi-agent workspace exposed as a tool-calling endpoint over either
// line-delimited stdio JSON-RPC or HTTP+SSE, mirroring
// server/cmd/server/main.go's cobra-root-plus-run-function shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/config"
	"github.com/beads-village/bv/internal/dispatcher"
	"github.com/beads-village/bv/internal/logging"
	"github.com/beads-village/bv/internal/rpcengine"
	"github.com/beads-village/bv/internal/session"
	"github.com/beads-village/bv/internal/sweeper"
	"github.com/beads-village/bv/internal/transport/httpsse"
	"github.com/beads-village/bv/internal/transport/stdio"
)

var (
	version = "dev"
	commit  = "none"
)

const serverName = "beads-village"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Defaults()

	root := &cobra.Command{
		Use:   "bv",
		Short: "bv — filesystem-coordinated multi-agent workspace server",
		Long: `bv coordinates LLM worker agents over a shared filesystem workspace:
issue tracking, path reservations, mailboxes, and team presence, exposed
as an MCP tool-calling endpoint.`,
	}

	root.PersistentFlags().StringVar(&cfg.AgentID, "agent", cfg.AgentID, "agent identifier (env BEADS_AGENT)")
	root.PersistentFlags().StringVar(&cfg.Workspace, "workspace", cfg.Workspace, "workspace directory (env BEADS_WS)")
	root.PersistentFlags().StringVar(&cfg.Team, "team", cfg.Team, "team identifier (env BEADS_TEAM)")
	root.PersistentFlags().StringVar(&cfg.VillageBase, "village-base", cfg.VillageBase, "hub base directory (env BEADS_VILLAGE_BASE)")
	root.PersistentFlags().BoolVar(&cfg.UseDaemon, "use-daemon", cfg.UseDaemon, "prefer the issue-store daemon over the CLI child process (env BEADS_USE_DAEMON)")
	root.PersistentFlags().StringVar(&cfg.IssueStoreBin, "issue-store-bin", cfg.IssueStoreBin, "issue-store CLI binary name (env BV_ISSUE_STORE_BIN)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error (env BV_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP+SSE listen address (env BV_HTTP_ADDR)")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newServeHTTPCmd(&cfg))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bv %s (commit: %s)\n", version, commit)
		},
	}
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the stdio JSON-RPC transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context(), cfg)
		},
	}
}

func newServeHTTPCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-http",
		Short: "Run the HTTP+SSE transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHTTP(cmd.Context(), cfg)
		},
	}
}

// buildEngine wires a fresh session, dispatcher registry, and JSON-RPC
// engine from cfg — the entrypoint-level equivalent of the teacher's
// repository/service construction block in run().
func buildEngine(cfg *config.Config, logger *zap.Logger) (*session.Context, *rpcengine.Engine, *sweeper.Sweeper, error) {
	state := session.New(cfg.AgentID, cfg.Workspace, cfg.Team)
	sctx := &session.Context{State: state, Logger: logger, VillageBase: cfg.VillageBase}

	deps := &dispatcher.Handlers{IssueStoreBin: cfg.IssueStoreBin, UseDaemon: cfg.UseDaemon}
	reg := dispatcher.NewRegistry(deps)
	engine := rpcengine.New(reg, serverName, version)

	var teamDir string
	if cfg.Team != "" {
		teamDir = sctx.TeamDir()
	}
	sw, err := sweeper.New(cfg.Workspace, cfg.AgentID, teamDir, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create sweeper: %w", err)
	}

	return sctx, engine, sw, nil
}

func runStdio(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.BuildForStdio(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sctx, engine, sw, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	if err := sw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	defer func() {
		if err := sw.Stop(); err != nil {
			logger.Warn("sweeper shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting bv stdio server",
		zap.String("version", version),
		zap.String("agent", cfg.AgentID),
		zap.String("workspace", cfg.Workspace),
	)

	srv := stdio.New(engine, logger)
	if err := srv.Run(ctx, sctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server error: %w", err)
	}

	logger.Info("bv stdio server stopped")
	return nil
}

func runHTTP(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.Build(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sctx, engine, sw, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting bv http server",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("agent", cfg.AgentID),
		zap.String("workspace", cfg.Workspace),
	)

	if err := sw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	defer func() {
		if err := sw.Stop(); err != nil {
			logger.Warn("sweeper shutdown error", zap.Error(err))
		}
	}()

	router := httpsse.NewRouter(httpsse.RouterConfig{
		Engine:        engine,
		SessionFunc:   func(r *http.Request) *session.Context { return sctx },
		Logger:        logger,
		ServerName:    serverName,
		ServerVersion: version,
	})

	httpSrv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: GET /mcp holds its response open indefinitely,
		// pinging every 15s until the client disconnects (spec.md §4.J). A
		// fixed write deadline would tear that stream down from the server
		// side regardless of the client, which the spec doesn't allow.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down bv http server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server graceful shutdown error", zap.Error(err))
	}

	logger.Info("bv http server stopped")
	return nil
}
