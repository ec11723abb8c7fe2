// main.go — Entry point for the ashfox MCP server binary.
// Serves typed modeling tools over the MCP streamable HTTP transport.
//
// Flags take precedence over environment variables:
//   --host / ASHFOX_HOST   bind address (default 127.0.0.1)
//   --port / ASHFOX_PORT   bind port (default 8787)
//   --path / ASHFOX_PATH   MCP base path (default /mcp)
//   --token                optional bearer token for all MCP requests
//   ASHFOX_LOG_LEVEL       debug|info|warn|error (default info)
//
// Exit codes:
//   0 = clean shutdown (SIGINT/SIGTERM)
//   1 = invalid configuration or serve failure
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/mcp"
	"github.com/ashfox/ashfox-mcp/internal/resources"
	"github.com/ashfox/ashfox-mcp/internal/router"
	"github.com/ashfox/ashfox-mcp/internal/session"
	"github.com/ashfox/ashfox-mcp/internal/tools"
	"github.com/ashfox/ashfox-mcp/internal/transport"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the main entry point, separated for testability.
// Returns the exit code.
func run(args []string) int {
	cfg := transport.Config{Version: version}

	root := &cobra.Command{
		Use:           "ashfox",
		Short:         "MCP server exposing typed model editing tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyEnv(cmd, &cfg)
			if cfg.Port < 1 || cfg.Port > 65535 {
				return fmt.Errorf("invalid port %d", cfg.Port)
			}
			return serve(cfg)
		},
	}
	root.Version = version
	root.Flags().StringVar(&cfg.Host, "host", "127.0.0.1", "bind address")
	root.Flags().IntVar(&cfg.Port, "port", 8787, "bind port")
	root.Flags().StringVar(&cfg.BasePath, "path", "/mcp", "MCP base path")
	root.Flags().StringVar(&cfg.Token, "token", "", "bearer token required on MCP requests")

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ashfox: %v\n", err)
		return 1
	}
	return 0
}

// applyEnv fills config values from the environment for flags the caller did
// not set explicitly.
func applyEnv(cmd *cobra.Command, cfg *transport.Config) {
	if !cmd.Flags().Changed("host") {
		if v := os.Getenv("ASHFOX_HOST"); v != "" {
			cfg.Host = v
		}
	}
	if !cmd.Flags().Changed("port") {
		if v := os.Getenv("ASHFOX_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				cfg.Port = p
			} else {
				cfg.Port = -1
			}
		}
	}
	if !cmd.Flags().Changed("path") {
		if v := os.Getenv("ASHFOX_PATH"); v != "" {
			cfg.BasePath = v
		}
	}
}

// serve wires the full stack and blocks until a shutdown signal.
func serve(cfg transport.Config) error {
	log := logging.New("ashfox", os.Getenv("ASHFOX_LOG_LEVEL"))

	store := session.NewStore(session.DefaultTTL, log.Named("session"))
	svc, err := tools.NewService(nil, nil, log.Named("tools"))
	if err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	metrics := transport.NewMetrics()
	svc.SetObserver(metrics.ObserveTool)

	rt := router.New(store, svc, resources.NewStore(), log.Named("router"),
		mcp.ServerInfo{Name: "ashfox", Version: cfg.Version})
	server := transport.NewServer(cfg, rt, metrics, log.Named("http"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx); err != nil {
		return err
	}
	log.Info("shutdown complete", nil)
	return nil
}
