// ABOUTME: Embedding index models persisted for the candidate pool
// ABOUTME: One versioned document of row vectors plus the column labels that produced them
package models

import "fmt"

// EmbeddingEntry is one candidate row and its vector.
type EmbeddingEntry struct {
	RowIndex    int               `json:"rowIndex"`
	Identifiers map[string]string `json:"identifiers"`
	Embedding   []float32         `json:"embedding"`
}

// EmbeddingIndex is replaced wholesale on every refresh, never patched.
type EmbeddingIndex struct {
	Model             string           `json:"model"`
	GeneratedAt       string           `json:"generatedAt,omitempty"`
	Dimension         int              `json:"dimension"`
	TotalRows         int              `json:"totalRows"`
	EmbeddedRows      int              `json:"embeddedRows"`
	SkippedRows       *int             `json:"skippedRows,omitempty"`
	EmbeddingColumns  []string         `json:"embeddingColumns"`
	IdentifierColumns []string         `json:"identifierColumns"`
	Entries           []EmbeddingEntry `json:"entries"`
}

// Validate checks the index invariants: every vector matches the dimension
// and row indexes are unique.
func (idx *EmbeddingIndex) Validate() error {
	if len(idx.Entries) > 0 && idx.Dimension <= 0 {
		return fmt.Errorf("index has %d entries but dimension %d", len(idx.Entries), idx.Dimension)
	}
	seen := make(map[int]struct{}, len(idx.Entries))
	for _, entry := range idx.Entries {
		if err := ValidateVector(entry.Embedding, idx.Dimension); err != nil {
			return fmt.Errorf("row %d: %w", entry.RowIndex, err)
		}
		if _, dup := seen[entry.RowIndex]; dup {
			return fmt.Errorf("row %d appears more than once", entry.RowIndex)
		}
		seen[entry.RowIndex] = struct{}{}
	}
	return nil
}

// Skipped returns the skipped row count, zero when unrecorded.
func (idx *EmbeddingIndex) Skipped() int {
	if idx.SkippedRows == nil {
		return 0
	}
	return *idx.SkippedRows
}

// ModelOrDefault returns the model that produced the index.
func (idx *EmbeddingIndex) ModelOrDefault() string {
	if idx.Model == "" {
		return DefaultEmbeddingModel
	}
	return idx.Model
}
