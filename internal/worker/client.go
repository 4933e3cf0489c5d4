// ABOUTME: Long-lived embedding worker client guarding one session with a mutex
// ABOUTME: Respawns the worker after failures and publishes progress to a sink
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
)

const (
	DefaultTimeout       = 30 * time.Minute
	DefaultShutdownGrace = 5 * time.Second
)

// Client owns at most one worker session. Requests are serialized.
type Client struct {
	mu      sync.Mutex
	session *session

	strategies    []Strategy
	progressMu    sync.RWMutex
	progress      models.ProgressFunc
	logger        *slog.Logger
	timeout       time.Duration
	shutdownGrace time.Duration
	defaultModel  string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress sets the progress sink.
func WithProgress(fn models.ProgressFunc) Option {
	return func(c *Client) { c.progress = fn }
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithShutdownGrace sets how long Close waits before killing the worker.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.shutdownGrace = d
		}
	}
}

// WithDefaultModel sets the model used when a caller passes none.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.defaultModel = model
		}
	}
}

// NewClient creates a client that launches workers with strategies.
func NewClient(strategies []Strategy, opts ...Option) *Client {
	c := &Client{
		strategies:    strategies,
		logger:        slog.Default(),
		timeout:       DefaultTimeout,
		shutdownGrace: DefaultShutdownGrace,
		defaultModel:  models.DefaultEmbeddingModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProgress replaces the progress sink.
func (c *Client) SetProgress(fn models.ProgressFunc) {
	c.progressMu.Lock()
	c.progress = fn
	c.progressMu.Unlock()
}

func (c *Client) publish(p models.Progress) {
	c.progressMu.RLock()
	fn := c.progress
	c.progressMu.RUnlock()
	fn.Publish(p)
}

// EnsureSession starts a worker if none is running.
func (c *Client) EnsureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.ensureLocked(ctx)
	return err
}

func (c *Client) ensureLocked(ctx context.Context) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Protocol(err, "The embedding request was cancelled")
	}
	if c.session != nil {
		if c.session.alive() {
			return c.session, nil
		}
		c.logger.Warn("embedding worker is no longer running, restarting", "session", c.session.id)
		c.teardownLocked()
	}
	s, err := startSession(c.strategies, c.publish, c.logger)
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

func (c *Client) teardownLocked() {
	if c.session == nil {
		return
	}
	c.session.close(c.shutdownGrace)
	c.session = nil
}

func (c *Client) model(model string) string {
	if model == "" {
		return c.defaultModel
	}
	return model
}

// Embed sends items to the worker and waits for their vectors. Ids are
// echoed back verbatim. Rows with empty or wrongly sized vectors are dropped.
func (c *Client) Embed(ctx context.Context, model string, items []models.EmbeddingItem, label models.ItemLabel) (*models.EmbeddingBatch, error) {
	model = c.model(model)
	if len(items) == 0 {
		return &models.EmbeddingBatch{Model: model, Rows: []models.EmbeddedRow{}}, nil
	}

	cmd := embedCommand{
		Type:            commandEmbed,
		RequestID:       uuid.NewString(),
		Model:           model,
		Texts:           items,
		ItemLabel:       label.Singular,
		ItemLabelPlural: label.Plural,
	}
	batch, err := c.do(ctx, cmd.RequestID, cmd, len(items))
	if err != nil {
		return nil, err
	}

	if dropped := sanitizeBatch(batch); dropped > 0 {
		c.logger.Warn("dropped malformed embedding rows", "rows", dropped, "dimension", batch.Dimension)
	}
	if batch.Model == "" {
		batch.Model = model
	}
	return batch, nil
}

// Preload asks the worker to load model without embedding anything.
func (c *Client) Preload(ctx context.Context, model string) error {
	cmd := preloadCommand{Type: commandPreload, RequestID: uuid.NewString(), Model: c.model(model)}
	_, err := c.do(ctx, cmd.RequestID, cmd, 0)
	return err
}

// StartWarmUp preloads model in the background. The returned channel
// yields the outcome once and is then closed.
func (c *Client) StartWarmUp(ctx context.Context, model string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := c.Preload(ctx, model)
		if err != nil {
			c.logger.Warn("embedding model warm-up failed", "model", c.model(model), "error", err)
		} else {
			c.logger.Info("embedding model ready", "model", c.model(model))
		}
		done <- err
	}()
	return done
}

func (c *Client) do(ctx context.Context, requestID string, cmd any, expected int) (*models.EmbeddingBatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fail := func(err error) error {
		c.teardownLocked()
		c.publish(models.Progress{Phase: models.PhaseError, Message: err.Error(), TotalRows: expected})
		return err
	}

	s, err := c.ensureLocked(ctx)
	if err != nil {
		return nil, fail(err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Debug("sending worker request", "session", s.id, "request", requestID, "rows", expected)
	batch, err := s.request(ctx, requestID, cmd, expected)
	if err != nil {
		return nil, fail(err)
	}
	return batch, nil
}

// Close shuts the worker down. The client may be reused afterward.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}
