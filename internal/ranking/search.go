// ABOUTME: Top-K similarity search over an embedding index
// ABOUTME: Applies an optional row filter and keeps index order among ties
package ranking

import (
	"sort"
	"strings"

	"github.com/harper/facultymatch/internal/models"
)

// RowSet is a set of candidate row indexes. A nil RowSet places no
// restriction; an empty non-nil RowSet allows nothing.
type RowSet map[int]struct{}

// NewRowSet builds a set from row indexes.
func NewRowSet(rows ...int) RowSet {
	set := make(RowSet, len(rows))
	for _, row := range rows {
		set[row] = struct{}{}
	}
	return set
}

// Allows reports whether row passes the filter.
func (s RowSet) Allows(row int) bool {
	if s == nil {
		return true
	}
	_, ok := s[row]
	return ok
}

// FindBestMatches scores every eligible entry against query and returns at
// most limit candidates, best first. Entries outside allowed, with a vector
// length different from the query, or with an undefined similarity are skipped.
func FindBestMatches(index *models.EmbeddingIndex, query []float32, limit int, allowed RowSet) []models.MatchCandidate {
	if limit <= 0 || index == nil {
		return []models.MatchCandidate{}
	}

	scored := make([]models.MatchCandidate, 0, len(index.Entries))
	for _, entry := range index.Entries {
		if !allowed.Allows(entry.RowIndex) {
			continue
		}
		if len(entry.Embedding) != len(query) {
			continue
		}
		similarity, ok := CosineSimilarity(query, entry.Embedding)
		if !ok {
			continue
		}
		scored = append(scored, models.MatchCandidate{
			RowIndex:    entry.RowIndex,
			Similarity:  similarity,
			Identifiers: copyIdentifiers(entry.Identifiers),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func copyIdentifiers(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for label, value := range src {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out[label] = value
	}
	return out
}
