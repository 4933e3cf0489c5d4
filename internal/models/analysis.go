// ABOUTME: Dataset analysis and membership models
// ABOUTME: Persisted metadata describing which columns play which role
package models

// DatasetAnalysis records the column labels chosen for each role.
type DatasetAnalysis struct {
	EmbeddingColumns  []string `json:"embeddingColumns"`
	IdentifierColumns []string `json:"identifierColumns"`
	ProgramColumns    []string `json:"programColumns"`
	AvailablePrograms []string `json:"availablePrograms"`
}

// Membership is the side-table entry used to filter candidates without
// re-reading the dataset.
type Membership struct {
	RowIndex    int               `json:"rowIndex"`
	Identifiers map[string]string `json:"identifiers"`
	Programs    []string          `json:"programs"`
}

// DatasetMetadata is the persisted analysis plus memberships.
type DatasetMetadata struct {
	DatasetPath string          `json:"datasetPath,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
	Analysis    DatasetAnalysis `json:"analysis"`
	Memberships []Membership    `json:"memberships"`
}

// ColumnSelection is an explicit user choice of column labels. Empty slices
// mean "use the suggestion".
type ColumnSelection struct {
	EmbeddingColumns  []string `json:"embeddingColumns,omitempty"`
	IdentifierColumns []string `json:"identifierColumns,omitempty"`
	ProgramColumns    []string `json:"programColumns,omitempty"`
}

// IsEmpty reports whether the selection overrides nothing.
func (s ColumnSelection) IsEmpty() bool {
	return len(s.EmbeddingColumns) == 0 && len(s.IdentifierColumns) == 0 && len(s.ProgramColumns) == 0
}
