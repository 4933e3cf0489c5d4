// ABOUTME: Column-role inference for tabular datasets
// ABOUTME: Suggests embedding-text, identifier, and category columns from headers and a sample
package columns

import (
	"sort"
	"strings"
)

// MaxSampleRows bounds how many data rows the heuristics look at.
const MaxSampleRows = 500

var (
	textKeywords = []string{
		"prompt", "interest", "research", "description", "summary",
		"essay", "statement", "focus", "topic", "goal",
	}
	identifierKeywords = []string{
		"id", "identifier", "name", "first", "last",
		"student", "email", "netid", "number", "uid",
	}
	categoryKeywords = []string{"program", "track", "pathway", "division", "department"}
)

const (
	textMaxNumericRatio     = 0.6
	textMinAverageLength    = 18.0
	textMinMaxLength        = 60
	identifierMaxAverage    = 36.0
	identifierNumericRatio  = 0.5
	identifierFallbackLimit = 3
	categoryMaxDistinct     = 25
	categoryFallbackLimit   = 4
)

// Assignment holds ascending, deduplicated column indexes per role.
// Roles may overlap.
type Assignment struct {
	Embedding  []int `json:"embedding"`
	Identifier []int `json:"identifier"`
	Category   []int `json:"category"`
}

// Infer classifies the columns of a table.
func Infer(headers []string, rows [][]string) Assignment {
	rows = sample(rows)
	text, ids := SuggestTextAndIdentifier(headers, rows)
	return Assignment{
		Embedding:  text,
		Identifier: ids,
		Category:   SuggestCategory(headers, rows),
	}
}

// SuggestTextAndIdentifier picks embedding-text and identifier columns.
// Keyword matches on the header win; otherwise the column statistics decide.
func SuggestTextAndIdentifier(headers []string, rows [][]string) (text, ids []int) {
	rows = sample(rows)
	for i, header := range headers {
		lower := strings.ToLower(header)
		if lower == "" {
			continue
		}
		if containsAny(lower, textKeywords) {
			text = append(text, i)
		}
		if containsAny(lower, identifierKeywords) {
			ids = append(ids, i)
		}
	}

	var stats []Stats
	if len(text) == 0 || len(ids) == 0 {
		stats = ComputeStats(headers, rows)
	}

	if len(text) == 0 {
		text = textFallback(stats)
	}
	if len(ids) == 0 {
		ids = identifierFallback(stats)
	}

	if len(text) == 0 && len(headers) > 0 {
		text = []int{len(headers) - 1}
	}
	if len(ids) == 0 && len(headers) > 0 {
		ids = []int{0}
	}

	return SortedUnique(text), SortedUnique(ids)
}

func textFallback(stats []Stats) []int {
	var candidates []Stats
	for _, s := range stats {
		if s.NonEmpty > 0 && s.NumericRatio < textMaxNumericRatio {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AverageLength != candidates[j].AverageLength {
			return candidates[i].AverageLength > candidates[j].AverageLength
		}
		return candidates[i].MaxLength > candidates[j].MaxLength
	})

	var out []int
	for _, s := range candidates {
		if s.AverageLength >= textMinAverageLength || s.MaxLength >= textMinMaxLength {
			out = append(out, s.Index)
		}
	}
	if len(out) == 0 && len(candidates) > 0 {
		out = append(out, candidates[0].Index)
	}
	return out
}

func identifierFallback(stats []Stats) []int {
	var candidates []Stats
	for _, s := range stats {
		if s.NonEmpty > 0 {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AverageLength != candidates[j].AverageLength {
			return candidates[i].AverageLength < candidates[j].AverageLength
		}
		return candidates[i].NonEmpty > candidates[j].NonEmpty
	})

	var out []int
	for _, s := range candidates {
		if s.AverageLength <= identifierMaxAverage || s.NumericRatio >= identifierNumericRatio {
			out = append(out, s.Index)
		}
		if len(out) >= identifierFallbackLimit {
			break
		}
	}
	if len(out) == 0 && len(candidates) > 0 {
		out = append(out, candidates[0].Index)
	}
	return out
}

// SuggestCategory picks program/track style columns. Without a keyword match
// it prefers low-cardinality columns with the most filled cells.
func SuggestCategory(headers []string, rows [][]string) []int {
	rows = sample(rows)
	var out []int
	for i, header := range headers {
		lower := strings.ToLower(header)
		if lower != "" && containsAny(lower, categoryKeywords) {
			out = append(out, i)
		}
	}
	if len(out) > 0 {
		return SortedUnique(out)
	}

	type candidate struct {
		index, distinct, nonEmpty int
	}
	var candidates []candidate
	for i, header := range headers {
		if strings.TrimSpace(header) == "" {
			continue
		}
		distinct := make(map[string]struct{})
		nonEmpty := 0
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value == "" {
				continue
			}
			nonEmpty++
			distinct[strings.ToLower(value)] = struct{}{}
		}
		if nonEmpty == 0 {
			continue
		}
		if n := len(distinct); n > 0 && n <= categoryMaxDistinct {
			candidates = append(candidates, candidate{index: i, distinct: n, nonEmpty: nonEmpty})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].distinct != candidates[b].distinct {
			return candidates[a].distinct < candidates[b].distinct
		}
		return candidates[a].nonEmpty > candidates[b].nonEmpty
	})
	for i := 0; i < len(candidates) && i < categoryFallbackLimit; i++ {
		out = append(out, candidates[i].index)
	}
	return SortedUnique(out)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func sample(rows [][]string) [][]string {
	if len(rows) > MaxSampleRows {
		return rows[:MaxSampleRows]
	}
	return rows
}
