// ABOUTME: Prompt embedding cache stored as little-endian float32 BLOBs
// ABOUTME: Keyed by model and the SHA-256 of the cleaned prompt text
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"
)

// EmbeddingStore caches prompt vectors so repeated prompts skip the worker.
type EmbeddingStore struct {
	db *DB
}

// NewEmbeddingStore creates a new EmbeddingStore
func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// TextHash returns the cache key digest for text.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for model and text, or nil when absent.
func (s *EmbeddingStore) Get(ctx context.Context, model, text string) ([]float32, error) {
	var (
		dimension int
		blob      []byte
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT dimension, vector FROM prompt_embeddings WHERE model = ? AND text_hash = ?
	`, model, TextHash(text)).Scan(&dimension, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached embedding: %w", err)
	}
	vector := blobToVector(blob)
	if len(vector) != dimension {
		return nil, fmt.Errorf("cached embedding has %d values, expected %d", len(vector), dimension)
	}
	return vector, nil
}

// Put stores vector for model and text, replacing any previous entry.
func (s *EmbeddingStore) Put(ctx context.Context, model, text string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("cannot cache an empty embedding")
	}
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO prompt_embeddings (model, text_hash, dimension, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(model, text_hash) DO UPDATE SET
			dimension = excluded.dimension,
			vector = excluded.vector,
			created_at = excluded.created_at
	`, model, TextHash(text), len(vector), vectorToBlob(vector), time.Now())
	if err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	return nil
}

// Count returns the number of cached vectors.
func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM prompt_embeddings").Scan(&n)
	return n, err
}

// Purge drops every cached vector, returning how many were removed.
func (s *EmbeddingStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM prompt_embeddings")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// vectorToBlob converts a float32 slice to binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float32 slice
func blobToVector(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
