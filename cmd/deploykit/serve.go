package main

import (
	"os/signal"
	"syscall"

	"github.com/aretw0/deploykit/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Serves the deployment control API:

  POST /deploy, /pause, /resume, /cancel
  GET  /state, /events (SSE), /metrics, /health`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return cli.Serve(ctx, cfg, runOptions(cmd), nil)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes deploy, status, pause, resume and cancel as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		baseURL, _ := cmd.Flags().GetString("base-url")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := ""
		if transport == "sse" {
			addr = cfg.Server.Addr
		}
		return cli.ServeMCP(ctx, cfg, runOptions(cmd), addr, baseURL)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")

	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", "", "Listen address for sse")
	mcpCmd.Flags().String("base-url", "", "Public base URL for sse clients")
}
