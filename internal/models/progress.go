// ABOUTME: Progress notifications emitted while embedding and indexing
// ABOUTME: Advisory only, delivered fire-and-forget to a caller-supplied sink
package models

// Progress phases.
const (
	PhaseStarting          = "starting"
	PhasePreparing         = "preparing"
	PhaseLoadingModel      = "loading-model"
	PhaseEmbedding         = "embedding"
	PhaseProcessingResults = "processing-results"
	PhaseSaving            = "saving"
	PhaseComplete          = "complete"
	PhaseError             = "error"
)

// Progress is one progress notification.
type Progress struct {
	Phase                     string   `json:"phase"`
	Message                   string   `json:"message,omitempty"`
	ProcessedRows             int      `json:"processedRows"`
	TotalRows                 int      `json:"totalRows"`
	ElapsedSeconds            *float64 `json:"elapsedSeconds,omitempty"`
	EstimatedRemainingSeconds *float64 `json:"estimatedRemainingSeconds,omitempty"`
	SkippedRows               *int     `json:"skippedRows,omitempty"`
}

// ProgressFunc receives progress notifications. It is called from reader
// goroutines and must not block.
type ProgressFunc func(Progress)

// Publish delivers p if the sink is set.
func (f ProgressFunc) Publish(p Progress) {
	if f != nil {
		f(p)
	}
}
