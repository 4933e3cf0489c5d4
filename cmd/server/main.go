// ABOUTME: Standalone MCP server for faculty matching with stdio transport
// ABOUTME: Loads configuration, opens storage, preloads the model, and serves the matching tools
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/facultymatch/internal/config"
	"github.com/harper/facultymatch/internal/core"
	"github.com/harper/facultymatch/internal/mcp"
	"github.com/harper/facultymatch/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const serverVersion = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// server bundles everything one stdio session needs.
type server struct {
	store    *storage.Storage
	service  *core.Service
	handlers *mcp.Handlers
	mcp      *mcpserver.MCPServer
	warmup   <-chan error
}

// newServer opens storage, wires the service and tools, and starts the
// model warm-up when preloading is enabled.
func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server, error) {
	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	embedder, err := core.NewEmbedder(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	s := &server{
		store:   store,
		service: core.NewService(cfg, store, embedder, logger),
		mcp:     mcpserver.NewMCPServer("Faculty Match", serverVersion),
	}
	s.handlers = mcp.RegisterTools(s.mcp, s.service)
	s.warmup = s.service.StartWarmUp(ctx)
	return s, nil
}

func (s *server) close() {
	s.handlers.Shutdown()
	_ = s.service.Close()
	_ = s.store.Close()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	logger.Info("MCP server starting on stdio", "backend", cfg.Backend, "model", cfg.Model(), "preload", s.warmup != nil)
	return mcpserver.ServeStdio(s.mcp)
}
