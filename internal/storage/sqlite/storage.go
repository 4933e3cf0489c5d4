// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Dataset metadata, column choices, build history, and the prompt cache share one database
package sqlite

import (
	"context"
	"fmt"

	"github.com/harper/facultymatch/internal/models"
)

// Storage manages the SQLite side of the faculty match data directory
type Storage struct {
	db         *DB
	metadata   *MetadataStore
	builds     *BuildStore
	embeddings *EmbeddingStore
}

// NewStorage opens (or creates) the database at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:         db,
		metadata:   NewMetadataStore(db),
		builds:     NewBuildStore(db),
		embeddings: NewEmbeddingStore(db),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// --- Metadata operations ---

// SaveMetadata replaces the dataset analysis and memberships.
func (s *Storage) SaveMetadata(ctx context.Context, meta *models.DatasetMetadata) error {
	return s.metadata.Save(ctx, meta)
}

// LoadMetadata returns the stored metadata, or nil when none was saved.
func (s *Storage) LoadMetadata(ctx context.Context) (*models.DatasetMetadata, error) {
	return s.metadata.Load(ctx)
}

// ClearMetadata removes the analysis and memberships.
func (s *Storage) ClearMetadata(ctx context.Context) error {
	return s.metadata.Clear(ctx)
}

// DatasetPath returns the last analyzed dataset location.
func (s *Storage) DatasetPath(ctx context.Context) (string, error) {
	return s.metadata.DatasetPath(ctx)
}

// SaveSelection records explicit column choices.
func (s *Storage) SaveSelection(ctx context.Context, sel models.ColumnSelection) error {
	if sel.IsEmpty() {
		return s.metadata.ClearSelection(ctx)
	}
	return s.metadata.SaveSelection(ctx, sel)
}

// LoadSelection returns saved column choices, or nil.
func (s *Storage) LoadSelection(ctx context.Context) (*models.ColumnSelection, error) {
	return s.metadata.LoadSelection(ctx)
}

// --- Build history ---

// RecordBuild stores a summary of a saved index.
func (s *Storage) RecordBuild(ctx context.Context, index *models.EmbeddingIndex, path string) (*BuildRecord, error) {
	return s.builds.Record(ctx, index, path)
}

// RecentBuilds returns up to limit builds, newest first.
func (s *Storage) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	return s.builds.Recent(ctx, limit)
}

// --- Prompt cache ---

// CachedEmbedding returns a cached prompt vector, or nil.
func (s *Storage) CachedEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	return s.embeddings.Get(ctx, model, text)
}

// CacheEmbedding stores a prompt vector.
func (s *Storage) CacheEmbedding(ctx context.Context, model, text string, vector []float32) error {
	return s.embeddings.Put(ctx, model, text, vector)
}

// CacheSize returns the number of cached prompt vectors.
func (s *Storage) CacheSize(ctx context.Context) (int, error) {
	return s.embeddings.Count(ctx)
}

// PurgeCache empties the prompt cache.
func (s *Storage) PurgeCache(ctx context.Context) (int64, error) {
	return s.embeddings.Purge(ctx)
}
