// ABOUTME: Storage facade over the data directory
// ABOUTME: Pairs the JSON index document with the SQLite metadata database
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/storage/sqlite"
)

// Storage owns everything persisted for one candidate pool.
type Storage struct {
	dataDir string
	db      *sqlite.Storage
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewStorage opens the data directory, creating it when missing.
func NewStorage(dataDir string) (*Storage, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errs.Resource(dataDir, err, "Unable to create the data directory")
	}
	db, err := sqlite.NewStorage(DBPath(dataDir))
	if err != nil {
		return nil, err
	}
	return &Storage{dataDir: dataDir, db: db, logger: slog.Default()}, nil
}

// NewStorageInMemory keeps metadata in memory and the index under dataDir (for testing).
func NewStorageInMemory(dataDir string) (*Storage, error) {
	db, err := sqlite.NewStorageInMemory()
	if err != nil {
		return nil, err
	}
	return &Storage{dataDir: dataDir, db: db, logger: slog.Default()}, nil
}

// SetLogger replaces the logger used for non-fatal bookkeeping failures.
func (s *Storage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// DataDir returns the storage directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// IndexPath returns where the index document lives.
func (s *Storage) IndexPath() string {
	return IndexPath(s.dataDir)
}

// DB exposes the metadata database.
func (s *Storage) DB() *sqlite.Storage {
	return s.db
}

// LoadIndex returns the current index, or nil when none was generated.
func (s *Storage) LoadIndex() (*models.EmbeddingIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadIndex(s.IndexPath())
}

// SaveIndex replaces the index document and records the build.
func (s *Storage) SaveIndex(index *models.EmbeddingIndex) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.IndexPath()
	if err := WriteIndex(path, index); err != nil {
		return "", err
	}
	if _, err := s.db.RecordBuild(context.Background(), index, path); err != nil {
		s.logger.Warn("failed to record index build", "path", path, "error", err)
	}
	return path, nil
}

// ImportIndex validates raw index JSON and saves it as the current index.
func (s *Storage) ImportIndex(data []byte) (*models.EmbeddingIndex, error) {
	index, err := DecodeIndex(data, "imported index")
	if err != nil {
		return nil, err
	}
	if _, err := s.SaveIndex(index); err != nil {
		return nil, err
	}
	return index, nil
}

// IndexJSON returns the raw current index document, or nil when absent.
func (s *Storage) IndexJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.IndexPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Resource(s.IndexPath(), err, "Unable to read faculty embeddings")
	}
	return data, nil
}

// SaveMetadata replaces the dataset analysis.
func (s *Storage) SaveMetadata(ctx context.Context, meta *models.DatasetMetadata) error {
	return s.db.SaveMetadata(ctx, meta)
}

// LoadMetadata returns the dataset analysis, or nil.
func (s *Storage) LoadMetadata(ctx context.Context) (*models.DatasetMetadata, error) {
	return s.db.LoadMetadata(ctx)
}

// MetadataJSON encodes the stored metadata, or returns nil when none exists.
func (s *Storage) MetadataJSON(ctx context.Context) ([]byte, error) {
	meta, err := s.db.LoadMetadata(ctx)
	if err != nil || meta == nil {
		return nil, err
	}
	return json.MarshalIndent(meta, "", "  ")
}

// ImportMetadata decodes metadata JSON and saves it.
func (s *Storage) ImportMetadata(ctx context.Context, data []byte) (*models.DatasetMetadata, error) {
	var meta models.DatasetMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errs.Resource("imported metadata", err, "Unable to parse dataset metadata")
	}
	if err := s.db.SaveMetadata(ctx, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Export gathers metadata, build history, and the index summary.
func (s *Storage) Export(ctx context.Context) (*sqlite.ExportData, error) {
	data, err := s.db.Export(ctx)
	if err != nil {
		return nil, err
	}
	index, err := s.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	data.Index = sqlite.SummarizeIndex(index)
	return data, nil
}
