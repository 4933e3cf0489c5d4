// ABOUTME: OpenAI embeddings backend with the same Embed contract as the Python worker
// ABOUTME: Batches texts, retries with backoff, and publishes embedding progress
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/util"
)

const (
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultBatchSize bounds how many texts go into one API call
	DefaultBatchSize = 256
	// DefaultRequestTimeout bounds one API call
	DefaultRequestTimeout = 60 * time.Second
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
	BatchSize      int
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		EmbeddingModel: DefaultEmbeddingModel,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
		BatchSize:      DefaultBatchSize,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel string
	maxRetries     int
	retryDelay     time.Duration
	batchSize      int
	requestTimeout time.Duration
	logger         *slog.Logger

	progressMu sync.RWMutex
	progress   models.ProgressFunc
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, errs.Configuration("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	c := &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		embeddingModel: config.EmbeddingModel,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		batchSize:      config.BatchSize,
		requestTimeout: config.RequestTimeout,
		logger:         config.Logger,
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = DefaultRequestTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// GetClient returns the underlying OpenAI client for direct use
func (c *OpenAIClient) GetClient() *openai.Client {
	return c.client
}

// Model returns the embedding model used when a request names none.
func (c *OpenAIClient) Model() string {
	return c.embeddingModel
}

// SetProgress installs the progress sink.
func (c *OpenAIClient) SetProgress(fn models.ProgressFunc) {
	c.progressMu.Lock()
	c.progress = fn
	c.progressMu.Unlock()
}

func (c *OpenAIClient) publish(p models.Progress) {
	c.progressMu.RLock()
	fn := c.progress
	c.progressMu.RUnlock()
	fn.Publish(p)
}

// Embed embeds items in batches. Blank texts are reported as skipped.
func (c *OpenAIClient) Embed(ctx context.Context, model string, items []models.EmbeddingItem, label models.ItemLabel) (*models.EmbeddingBatch, error) {
	if model == "" {
		model = c.embeddingModel
	}
	batch := &models.EmbeddingBatch{Model: model, Rows: []models.EmbeddedRow{}}

	var pending []models.EmbeddingItem
	for _, item := range items {
		text := util.CleanText(item.Text)
		if text == "" {
			batch.Skipped = append(batch.Skipped, models.SkippedItem{ID: item.ID, Reason: "empty text"})
			continue
		}
		pending = append(pending, models.EmbeddingItem{ID: item.ID, Text: text})
	}
	if len(pending) == 0 {
		return batch, nil
	}

	started := time.Now()
	total := len(pending)
	c.publish(models.Progress{
		Phase:     models.PhaseEmbedding,
		Message:   fmt.Sprintf("Embedding %d %s with %s…", total, util.Plural(total, label.Singular, label.Plural), model),
		TotalRows: total,
	})

	for start := 0; start < total; start += c.batchSize {
		end := min(start+c.batchSize, total)
		chunk := pending[start:end]

		vectors, err := c.embedChunk(ctx, model, chunk)
		if err != nil {
			c.publish(models.Progress{Phase: models.PhaseError, Message: err.Error(), TotalRows: total})
			return nil, err
		}
		for i, vector := range vectors {
			if len(vector) == 0 {
				batch.Skipped = append(batch.Skipped, models.SkippedItem{ID: chunk[i].ID, Reason: "no embedding returned"})
				continue
			}
			if batch.Dimension == 0 {
				batch.Dimension = len(vector)
			}
			if len(vector) != batch.Dimension {
				batch.Skipped = append(batch.Skipped, models.SkippedItem{ID: chunk[i].ID, Reason: "dimension mismatch"})
				continue
			}
			batch.Rows = append(batch.Rows, models.EmbeddedRow{ID: chunk[i].ID, Embedding: vector})
		}

		elapsed := time.Since(started).Seconds()
		p := models.Progress{
			Phase:          models.PhaseEmbedding,
			Message:        fmt.Sprintf("Embedded %d of %d %s", end, total, label.Plural),
			ProcessedRows:  end,
			TotalRows:      total,
			ElapsedSeconds: &elapsed,
		}
		if end < total {
			remaining := elapsed / float64(end) * float64(total-end)
			p.EstimatedRemainingSeconds = &remaining
		}
		c.publish(p)
	}

	c.logger.Debug("openai embeddings complete", "model", model, "rows", len(batch.Rows), "skipped", len(batch.Skipped))
	return batch, nil
}

// embedChunk returns one vector per chunk item, in chunk order.
func (c *OpenAIClient) embedChunk(ctx context.Context, model string, chunk []models.EmbeddingItem) ([][]float32, error) {
	input := make([]string, len(chunk))
	for i, item := range chunk {
		input[i] = item.Text
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return nil, errs.Protocol(err, "OpenAI embedding request cancelled")
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: input,
			Model: openai.EmbeddingModel(model),
		})
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil, errs.Protocol(ctx.Err(), "OpenAI embedding request cancelled")
			}
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			c.logger.Warn("openai embedding attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		vectors := make([][]float32, len(chunk))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(chunk) {
				continue
			}
			vectors[d.Index] = d.Embedding
		}
		return vectors, nil
	}

	return nil, errs.Protocol(lastErr, "failed to generate embeddings after %d attempts", c.maxRetries+1)
}

// Preload checks credentials and model availability with a tiny request.
func (c *OpenAIClient) Preload(ctx context.Context, model string) error {
	if model == "" {
		model = c.embeddingModel
	}
	_, err := c.embedChunk(ctx, model, []models.EmbeddingItem{{ID: 0, Text: "warm up"}})
	return err
}
