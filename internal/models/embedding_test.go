// ABOUTME: Tests for embedding batch demultiplexing and vector validation
// ABOUTME: Verifies unexpected ids are ignored and absent ids are reported missing
package models

import (
	"strings"
	"testing"
)

func TestEmbeddingBatch_Vectors(t *testing.T) {
	batch := &EmbeddingBatch{
		Model:     DefaultEmbeddingModel,
		Dimension: 2,
		Rows: []EmbeddedRow{
			{ID: 4, Embedding: []float32{0.1, 0.2}},
			{ID: 99, Embedding: []float32{0.9, 0.9}},
			{ID: 1, Embedding: []float32{0.3, 0.4}},
		},
	}

	found, missing := batch.Vectors([]int{1, 2, 4})

	if len(found) != 2 {
		t.Fatalf("len(found) = %d, want 2", len(found))
	}
	if _, ok := found[99]; ok {
		t.Error("unrequested id 99 should be ignored")
	}
	if found[4][1] != 0.2 {
		t.Errorf("found[4] = %v, want [0.1 0.2]", found[4])
	}
	if len(missing) != 1 || missing[0] != 2 {
		t.Errorf("missing = %v, want [2]", missing)
	}
}

func TestEmbeddingBatch_VectorsNilBatch(t *testing.T) {
	var batch *EmbeddingBatch
	found, missing := batch.Vectors([]int{0, 1})
	if len(found) != 0 {
		t.Errorf("len(found) = %d, want 0", len(found))
	}
	if len(missing) != 2 {
		t.Errorf("missing = %v, want [0 1]", missing)
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name        string
		vector      []float32
		dimension   int
		errContains string
	}{
		{name: "valid", vector: []float32{1, 2, 3}, dimension: 3},
		{name: "empty", vector: nil, dimension: 3, errContains: "cannot be empty"},
		{name: "too short", vector: []float32{1}, dimension: 3, errContains: "got 1, want 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector(tt.vector, tt.dimension)
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("ValidateVector() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidateVector() error = %v, want containing %q", err, tt.errContains)
			}
		})
	}
}
