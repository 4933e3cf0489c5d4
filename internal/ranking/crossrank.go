// ABOUTME: Cross-query ranking of candidates selected by many prompts
// ABOUTME: Ranks each candidate among all queries that picked it
package ranking

import (
	"sort"

	"github.com/harper/facultymatch/internal/models"
)

type pick struct {
	set        int
	position   int
	similarity float32
}

// AssignCrossQueryRanks sets CrossQueryRank and CrossQueryTotal on every
// candidate in sets. For a candidate row chosen by N queries the ranks are
// 1..N, ordered by descending similarity, then query order, then position.
func AssignCrossQueryRanks(sets []models.PromptMatchSet) {
	groups := make(map[int][]pick)
	for s := range sets {
		for p, candidate := range sets[s].Matches {
			groups[candidate.RowIndex] = append(groups[candidate.RowIndex], pick{
				set:        s,
				position:   p,
				similarity: candidate.Similarity,
			})
		}
	}

	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if group[i].similarity != group[j].similarity {
				return group[i].similarity > group[j].similarity
			}
			if group[i].set != group[j].set {
				return group[i].set < group[j].set
			}
			return group[i].position < group[j].position
		})

		total := len(group)
		for rank, p := range group {
			r, n := rank+1, total
			candidate := &sets[p.set].Matches[p.position]
			candidate.CrossQueryRank = &r
			candidate.CrossQueryTotal = &n
		}
	}
}
