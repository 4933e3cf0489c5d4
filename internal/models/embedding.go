// ABOUTME: Wire-level embedding request and response models
// ABOUTME: Shared by the worker protocol, the OpenAI backend, and their callers
package models

import "fmt"

// DefaultEmbeddingModel is the model requested when nothing else is configured.
const DefaultEmbeddingModel = "NeuML/pubmedbert-base-embeddings"

// EmbeddingItem is one text to embed, tagged with a caller-chosen id.
type EmbeddingItem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ItemLabel names the items of a request in progress messages.
type ItemLabel struct {
	Singular string
	Plural   string
}

var (
	FacultyRowLabel     = ItemLabel{Singular: "faculty row", Plural: "faculty rows"}
	PromptLabel         = ItemLabel{Singular: "prompt", Plural: "prompts"}
	SpreadsheetRowLabel = ItemLabel{Singular: "spreadsheet row", Plural: "spreadsheet rows"}
	DocumentLabel       = ItemLabel{Singular: "document", Plural: "documents"}
)

// EmbeddedRow is one vector returned for a requested id.
type EmbeddedRow struct {
	ID        int       `json:"id"`
	Embedding []float32 `json:"embedding"`
}

// SkippedItem is an id the backend declined to embed.
type SkippedItem struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

// EmbeddingBatch is the result of one embedding request.
type EmbeddingBatch struct {
	Model     string        `json:"model"`
	Dimension int           `json:"dimension"`
	Rows      []EmbeddedRow `json:"rows"`
	Skipped   []SkippedItem `json:"skippedRows,omitempty"`
}

// Vectors demultiplexes the batch against the ids that were requested.
// Rows for ids that were never requested are ignored. Requested ids without
// a row are returned in missing, in request order.
func (b *EmbeddingBatch) Vectors(requested []int) (found map[int][]float32, missing []int) {
	wanted := make(map[int]struct{}, len(requested))
	for _, id := range requested {
		wanted[id] = struct{}{}
	}

	found = make(map[int][]float32, len(requested))
	if b != nil {
		for _, row := range b.Rows {
			if _, ok := wanted[row.ID]; !ok {
				continue
			}
			if _, dup := found[row.ID]; dup {
				continue
			}
			found[row.ID] = row.Embedding
		}
	}

	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// ValidateVector checks that a vector is non-empty and has the expected length.
func ValidateVector(vector []float32, dimension int) error {
	if len(vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}
	if len(vector) != dimension {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), dimension)
	}
	return nil
}
