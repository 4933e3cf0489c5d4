// ABOUTME: Service layer that owns the embedding backend and the data directory
// ABOUTME: Runs dataset analysis, index refresh, and every matching flow
package core

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/harper/facultymatch/internal/config"
	"github.com/harper/facultymatch/internal/llm"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/storage"
	"github.com/harper/facultymatch/internal/worker"
)

// Embedder is the backend contract shared by the worker and the OpenAI client.
type Embedder interface {
	Embed(ctx context.Context, model string, items []models.EmbeddingItem, label models.ItemLabel) (*models.EmbeddingBatch, error)
	Preload(ctx context.Context, model string) error
}

type progressSetter interface {
	SetProgress(fn models.ProgressFunc)
}

// Service coordinates storage and the embedding backend. One Service holds
// one backend; concurrent callers are serialized by the backend itself.
type Service struct {
	cfg      *config.Config
	store    *storage.Storage
	embedder Embedder
	logger   *slog.Logger

	mu       sync.Mutex
	progress models.ProgressFunc
}

// NewEmbedder builds the backend selected by cfg.Backend.
func NewEmbedder(cfg *config.Config, logger *slog.Logger) (Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backend == config.BackendOpenAI {
		clientCfg := llm.DefaultConfig(cfg.OpenAIKey)
		clientCfg.EmbeddingModel = cfg.OpenAIModel
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.RetryDelay = cfg.RetryDelay
		clientCfg.BatchSize = cfg.OpenAIBatchSize
		clientCfg.RequestTimeout = cfg.RequestTimeout
		clientCfg.Logger = logger
		return llm.NewOpenAIClientWithConfig(clientCfg)
	}

	strategies := worker.DefaultStrategies(cfg.ResourceDir, cfg.Interpreters)
	return worker.NewClient(strategies,
		worker.WithLogger(logger),
		worker.WithTimeout(cfg.RequestTimeout),
		worker.WithShutdownGrace(cfg.ShutdownTimeout),
		worker.WithDefaultModel(cfg.EmbeddingModel),
	), nil
}

// NewService wires a Service. A nil logger means slog.Default().
func NewService(cfg *config.Config, store *storage.Storage, embedder Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	store.SetLogger(logger)
	return &Service{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Storage exposes the underlying data directory.
func (s *Service) Storage() *storage.Storage {
	return s.store
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// SetProgress routes progress events from every flow to fn.
func (s *Service) SetProgress(fn models.ProgressFunc) {
	s.mu.Lock()
	s.progress = fn
	s.mu.Unlock()
	if setter, ok := s.embedder.(progressSetter); ok {
		setter.SetProgress(fn)
	}
}

func (s *Service) publish(p models.Progress) {
	s.mu.Lock()
	fn := s.progress
	s.mu.Unlock()
	fn.Publish(p)
}

// StartWarmUp preloads the configured model in the background when
// preloading is enabled for the worker backend. The channel is nil when no
// warm-up was started; the worker client logs failures itself.
func (s *Service) StartWarmUp(ctx context.Context) <-chan error {
	if !s.cfg.Preload || s.cfg.Backend != config.BackendWorker {
		return nil
	}
	client, ok := s.embedder.(*worker.Client)
	if !ok {
		return nil
	}
	return client.StartWarmUp(ctx, s.cfg.Model())
}

// WarmUp loads the configured model and waits for it.
func (s *Service) WarmUp(ctx context.Context) error {
	return s.embedder.Preload(ctx, s.cfg.Model())
}

// Close shuts the backend down. Storage is owned by the caller.
func (s *Service) Close() error {
	if closer, ok := s.embedder.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
