// ABOUTME: Shared setup for commands: configuration, storage, and the matching service
// ABOUTME: Also renders progress events and JSON results
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/config"
	"github.com/harper/facultymatch/internal/core"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/storage"
)

// app bundles what a command needs. Close releases the backend then storage.
type app struct {
	cfg     *config.Config
	store   *storage.Storage
	service *core.Service
	logger  *slog.Logger
}

// openStorage loads configuration and opens the data directory without an embedding backend.
func openStorage() (*config.Config, *storage.Storage, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := setupLogger(cfg.SlogLevel())

	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, err
	}
	store.SetLogger(logger)
	return cfg, store, logger, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, store, logger, err := openStorage()
	if err != nil {
		return nil, err
	}

	embedder, err := core.NewEmbedder(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := core.NewService(cfg, store, embedder, logger)
	if !quiet && !jsonOutput() {
		svc.SetProgress(progressPrinter(cmd.ErrOrStderr()))
	}
	logger.Debug("configuration loaded", "config", cfg.String())
	return &app{cfg: cfg, store: store, service: svc, logger: logger}, nil
}

func (a *app) Close() {
	if err := a.service.Close(); err != nil {
		a.logger.Warn("failed to stop embedding backend", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
}

func progressPrinter(w io.Writer) models.ProgressFunc {
	return func(p models.Progress) {
		switch {
		case p.TotalRows > 0:
			fmt.Fprintf(w, "[%s] %s (%d/%d)\n", p.Phase, p.Message, p.ProcessedRows, p.TotalRows)
		case p.Message != "":
			fmt.Fprintf(w, "[%s] %s\n", p.Phase, p.Message)
		}
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", data)
	return nil
}
