// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Exposes faculty matching tools to LLM agents via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs facultymatch as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to match student interests to faculty via stdio.

Configure in Claude Desktop's config file to enable the matching tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  facultymatch mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "facultymatch": {
  #       "command": "facultymatch",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	a.service.SetProgress(nil)

	server := mcpserver.NewMCPServer(
		"Faculty Match",
		versionInfo.Version,
	)
	handlers := mcp.RegisterTools(server, a.service)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	warmup := a.service.StartWarmUp(ctx)
	a.logger.Info("MCP server starting on stdio", "model", a.cfg.Model(), "preload", warmup != nil)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, waiting for background work")
		handlers.Shutdown()
		a.Close()
		a.logger.Info("shutdown complete")

	case err := <-serverErr:
		handlers.Shutdown()
		a.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
