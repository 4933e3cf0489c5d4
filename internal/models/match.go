// ABOUTME: Match result models returned by similarity search
// ABOUTME: Produced fresh for every query, never persisted
package models

// MatchCandidate is one candidate row scored against a query.
type MatchCandidate struct {
	RowIndex        int               `json:"rowIndex"`
	Similarity      float32           `json:"similarity"`
	Identifiers     map[string]string `json:"identifiers"`
	Text            string            `json:"facultyText,omitempty"`
	CrossQueryRank  *int              `json:"studentRankForFaculty,omitempty"`
	CrossQueryTotal *int              `json:"studentRankTotal,omitempty"`
}

// PromptMatchSet is the best-first candidate list for one query.
type PromptMatchSet struct {
	Prompt  string           `json:"prompt"`
	Matches []MatchCandidate `json:"facultyMatches"`
}
