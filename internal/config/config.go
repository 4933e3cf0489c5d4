// ABOUTME: Centralized configuration for the faculty match CLI and MCP server
// ABOUTME: Loads .env, parses environment variables into a tagged struct, then validates
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/harper/facultymatch/internal/errs"
)

// Embedding backends.
const (
	BackendWorker = "worker"
	BackendOpenAI = "openai"
)

// Config holds all configuration for faculty matching
type Config struct {
	// Storage
	DataDir string `env:"FACMATCH_DATA_DIR"`

	// Embedding worker
	ResourceDir     string        `env:"FACMATCH_RESOURCE_DIR"`
	Interpreters    []string      `env:"FACMATCH_PYTHON" envSeparator:"," envDefault:"python3,python"`
	Backend         string        `env:"FACMATCH_EMBEDDING_BACKEND" envDefault:"worker"`
	EmbeddingModel  string        `env:"FACMATCH_EMBEDDING_MODEL" envDefault:"NeuML/pubmedbert-base-embeddings"`
	RequestTimeout  time.Duration `env:"FACMATCH_REQUEST_TIMEOUT" envDefault:"30m"`
	ShutdownTimeout time.Duration `env:"FACMATCH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	Preload         bool          `env:"FACMATCH_PRELOAD" envDefault:"true"`

	// Matching
	Recommendations int    `env:"FACMATCH_RECOMMENDATIONS" envDefault:"5"`
	LogLevel        string `env:"FACMATCH_LOG_LEVEL" envDefault:"info"`

	// OpenAI settings
	OpenAIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel     string        `env:"FACMATCH_OPENAI_MODEL" envDefault:"text-embedding-3-small"`
	MaxRetries      int           `env:"OPENAI_MAX_RETRIES" envDefault:"3"`
	RetryDelay      time.Duration `env:"OPENAI_RETRY_DELAY" envDefault:"2s"`
	OpenAIBatchSize int           `env:"OPENAI_BATCH_SIZE" envDefault:"256"`

	// Charm settings
	CharmHost   string `env:"CHARM_HOST" envDefault:"cloud.charm.sh"`
	CharmDBName string `env:"CHARM_DB" envDefault:"facultymatch"`
	AutoSync    bool   `env:"CHARM_AUTO_SYNC" envDefault:"false"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Configuration("Unable to read .env: %v", err)
	}
	return FromEnv()
}

// FromEnv parses the current environment without touching .env files.
func FromEnv() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errs.Configuration("Invalid configuration: %v", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Interpreters = trimAll(cfg.Interpreters)
	return &cfg, cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Backend != BackendWorker && c.Backend != BackendOpenAI {
		return errs.Configuration("FACMATCH_EMBEDDING_BACKEND must be %q or %q, got %q", BackendWorker, BackendOpenAI, c.Backend)
	}
	if c.Backend == BackendOpenAI && c.OpenAIKey == "" {
		return errs.Configuration("OPENAI_API_KEY is required when FACMATCH_EMBEDDING_BACKEND=openai")
	}
	if c.Backend == BackendWorker && len(c.Interpreters) == 0 {
		return errs.Configuration("FACMATCH_PYTHON must name at least one interpreter")
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return errs.Configuration("FACMATCH_EMBEDDING_MODEL cannot be empty")
	}
	if c.RequestTimeout < 0 {
		return errs.Configuration("FACMATCH_REQUEST_TIMEOUT cannot be negative, got %v", c.RequestTimeout)
	}
	if c.ShutdownTimeout < 0 {
		return errs.Configuration("FACMATCH_SHUTDOWN_TIMEOUT cannot be negative, got %v", c.ShutdownTimeout)
	}
	if c.Recommendations < 1 || c.Recommendations > 100 {
		return errs.Configuration("FACMATCH_RECOMMENDATIONS must be 1-100, got %d", c.Recommendations)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return errs.Configuration("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.OpenAIBatchSize < 1 || c.OpenAIBatchSize > 2048 {
		return errs.Configuration("OPENAI_BATCH_SIZE must be 1-2048, got %d", c.OpenAIBatchSize)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Model returns the embedding model for the configured backend.
func (c *Config) Model() string {
	if c.Backend == BackendOpenAI {
		return c.OpenAIModel
	}
	return c.EmbeddingModel
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errs.Configuration("FACMATCH_LOG_LEVEL must be debug, info, warn, or error, got %q", s)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	key := "(unset)"
	if c.OpenAIKey != "" {
		key = "(set)"
	}
	return fmt.Sprintf("backend=%s model=%s data_dir=%s recommendations=%d openai_key=%s charm=%s/%s",
		c.Backend, c.Model(), c.DataDir, c.Recommendations, key, c.CharmHost, c.CharmDBName)
}
