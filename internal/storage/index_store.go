// ABOUTME: Reads and writes the embedding index as one JSON document
// ABOUTME: Writes go to a temp file in the same directory and are renamed into place
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
)

// LoadIndex reads the index at path. A missing file returns nil, nil.
func LoadIndex(path string) (*models.EmbeddingIndex, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Resource(path, err, "Unable to read faculty embeddings")
	}
	return DecodeIndex(data, path)
}

// DecodeIndex parses an index document and checks its invariants.
func DecodeIndex(data []byte, source string) (*models.EmbeddingIndex, error) {
	var index models.EmbeddingIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errs.Resource(source, err, "Unable to parse faculty embeddings")
	}
	if index.Entries == nil {
		index.Entries = []models.EmbeddingEntry{}
	}
	if err := index.Validate(); err != nil {
		return nil, errs.Resource(source, err, "Faculty embeddings are inconsistent")
	}
	return &index, nil
}

// WriteIndex replaces the document at path with index.
func WriteIndex(path string, index *models.EmbeddingIndex) error {
	if index == nil {
		return fmt.Errorf("index cannot be nil")
	}
	if err := index.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid index: %w", err)
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data next to path and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.Resource(dir, err, "Unable to create the data directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.Resource(dir, err, "Unable to create a temporary file")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errs.Resource(tmpName, err, "Unable to write")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errs.Resource(tmpName, err, "Unable to flush")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errs.Resource(tmpName, err, "Unable to close")
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errs.Resource(path, err, "Unable to replace")
	}
	return nil
}
