// ABOUTME: Records one history row per embedding index refresh
// ABOUTME: Lets status and export show when and how the index was built
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harper/facultymatch/internal/models"
)

// BuildRecord summarizes one index refresh.
type BuildRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Model        string    `json:"model" yaml:"model"`
	Dimension    int       `json:"dimension" yaml:"dimension"`
	TotalRows    int       `json:"totalRows" yaml:"total_rows"`
	EmbeddedRows int       `json:"embeddedRows" yaml:"embedded_rows"`
	SkippedRows  int       `json:"skippedRows" yaml:"skipped_rows"`
	GeneratedAt  string    `json:"generatedAt,omitempty" yaml:"generated_at,omitempty"`
	Path         string    `json:"path,omitempty" yaml:"path,omitempty"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
}

// BuildStore handles index build history
type BuildStore struct {
	db *DB
}

// NewBuildStore creates a new BuildStore
func NewBuildStore(db *DB) *BuildStore {
	return &BuildStore{db: db}
}

// Record stores a summary of index saved at path.
func (s *BuildStore) Record(ctx context.Context, index *models.EmbeddingIndex, path string) (*BuildRecord, error) {
	rec := &BuildRecord{
		ID:           uuid.NewString(),
		Model:        index.Model,
		Dimension:    index.Dimension,
		TotalRows:    index.TotalRows,
		EmbeddedRows: index.EmbeddedRows,
		SkippedRows:  index.Skipped(),
		GeneratedAt:  index.GeneratedAt,
		Path:         path,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO index_builds (id, model, dimension, total_rows, embedded_rows, skipped_rows, generated_at, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Model, rec.Dimension, rec.TotalRows, rec.EmbeddedRows, rec.SkippedRows,
		nullString(rec.GeneratedAt), nullString(rec.Path), rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record index build: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit builds, newest first.
func (s *BuildStore) Recent(ctx context.Context, limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, model, dimension, total_rows, embedded_rows, skipped_rows, generated_at, path, created_at
		FROM index_builds
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query index builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []BuildRecord
	for rows.Next() {
		var (
			rec               BuildRecord
			generatedAt, path sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Model, &rec.Dimension, &rec.TotalRows, &rec.EmbeddedRows,
			&rec.SkippedRows, &generatedAt, &path, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.GeneratedAt = generatedAt.String
		rec.Path = path.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
