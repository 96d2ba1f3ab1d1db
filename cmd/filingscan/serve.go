package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/filingscan/intel"
	"github.com/hazyhaar/filingscan/server"
)

var (
	serveMCPStdio bool
	serveNoIntel  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and MCP tools",
	Long: `Starts the HTTP API (POST /api/batches, GET /api/compliance, ...) with the MCP
streamable endpoint mounted at /mcp, and refreshes regulator feeds on the
configured cron schedule.

With --mcp-stdio the MCP tools are served over stdin/stdout instead and no
HTTP listener is started.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCPStdio, "mcp-stdio", false, "serve MCP over stdio instead of HTTP")
	serveCmd.Flags().BoolVar(&serveNoIntel, "no-intel", false, "disable scheduled intelligence refresh")
	rootCmd.AddCommand(serveCmd)
}

func newMCPServer(ws *server.Workspace) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "filingscan", Version: "1.0.0"}, nil)
	ws.RegisterMCP(srv)
	intel.RegisterMCP(srv, logger)
	return srv
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	ws := a.workspace()
	mcpSrv := newMCPServer(ws)

	if !serveNoIntel && len(cfg.Intel.Sources) > 0 {
		sched, err := intel.NewScheduler(cfg.Intel.Schedule, scheduledRefresh(ws), logger)
		if err != nil {
			return err
		}
		go func() {
			if _, err := ws.RefreshIntelligence(ctx); err != nil {
				logger.Warn("initial intelligence refresh", "error", err)
			}
		}()
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	if serveMCPStdio {
		logger.Info("MCP stdio starting")
		return mcpSrv.Run(ctx, &mcp.StdioTransport{})
	}

	api := server.New(ws, server.Config{Logger: logger})
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))
	mux.Handle("/", api.Handler())

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP starting", "addr", cfg.Listen)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// scheduledRefresh refreshes through the workspace so scheduled runs never
// overlap the initial, HTTP or MCP refreshes; a busy workspace skips the tick.
func scheduledRefresh(ws *server.Workspace) func(context.Context) {
	return func(ctx context.Context) {
		if _, err := ws.TryRefreshIntelligence(ctx); err != nil {
			if errors.Is(err, server.ErrRefreshBusy) {
				logger.Debug("scheduled intelligence refresh skipped", "reason", err)
				return
			}
			logger.Warn("scheduled intelligence refresh", "error", err)
		}
	}
}
