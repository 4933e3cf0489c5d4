// ABOUTME: Per-column statistics used by the role heuristics
// ABOUTME: Counts non-empty cells, character lengths, and numeric-looking values
package columns

import (
	"strings"
	"unicode/utf8"
)

// Stats summarizes one column of a sample.
type Stats struct {
	Index         int
	NonEmpty      int
	AverageLength float64
	MaxLength     int
	NumericRatio  float64
}

// ComputeStats returns one Stats per header.
func ComputeStats(headers []string, rows [][]string) []Stats {
	stats := make([]Stats, 0, len(headers))
	for col := range headers {
		var nonEmpty, total, longest, numeric int
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}
			nonEmpty++
			length := utf8.RuneCountInString(value)
			total += length
			if length > longest {
				longest = length
			}
			if isNumericLike(value) {
				numeric++
			}
		}

		s := Stats{Index: col, NonEmpty: nonEmpty, MaxLength: longest}
		if nonEmpty > 0 {
			s.AverageLength = float64(total) / float64(nonEmpty)
			s.NumericRatio = float64(numeric) / float64(nonEmpty)
		}
		stats = append(stats, s)
	}
	return stats
}

// isNumericLike reports whether a non-blank value has no ASCII letters.
func isNumericLike(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
