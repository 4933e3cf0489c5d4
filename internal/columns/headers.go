// ABOUTME: Header label helpers shared by inference, analysis, and matching
// ABOUTME: Resolves labels to column indexes case-insensitively
package columns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/util"
)

// HeaderLabel returns the trimmed header at index, or "Column N" (1-based)
// when it is blank or out of range.
func HeaderLabel(headers []string, index int) string {
	if index >= 0 && index < len(headers) {
		if label := strings.TrimSpace(headers[index]); label != "" {
			return label
		}
	}
	return fmt.Sprintf("Column %d", index+1)
}

// HeaderIndex maps folded header labels to the first column carrying them.
type HeaderIndex map[string]int

// NewHeaderIndex builds the lookup for headers.
func NewHeaderIndex(headers []string) HeaderIndex {
	index := make(HeaderIndex, len(headers))
	for i := range headers {
		key := util.FoldKey(HeaderLabel(headers, i))
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return index
}

// Lookup finds the column for label.
func (h HeaderIndex) Lookup(label string) (int, bool) {
	i, ok := h[util.FoldKey(label)]
	return i, ok
}

// Indexes resolves labels to ascending, deduplicated column indexes.
// source names the table in the error for a missing label.
func (h HeaderIndex) Indexes(labels []string, source string) ([]int, error) {
	out := make([]int, 0, len(labels))
	for _, label := range labels {
		i, ok := h.Lookup(label)
		if !ok {
			return nil, errs.Configuration("The column '%s' is not available in the %s.", label, source)
		}
		out = append(out, i)
	}
	return SortedUnique(out), nil
}

// Labels converts indexes to header labels, skipping out-of-range indexes
// and case-insensitive duplicates.
func Labels(headers []string, indexes []int) []string {
	seen := make(map[string]struct{}, len(indexes))
	out := make([]string, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(headers) {
			continue
		}
		label := HeaderLabel(headers, i)
		key := util.FoldKey(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	return out
}

// Clamp drops indexes outside [0, columnCount) and duplicates, keeping order.
func Clamp(indexes []int, columnCount int) []int {
	seen := make(map[int]struct{}, len(indexes))
	out := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= columnCount {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

// SortedUnique sorts indexes ascending and removes duplicates in place.
func SortedUnique(indexes []int) []int {
	sort.Ints(indexes)
	out := indexes[:0]
	for i, v := range indexes {
		if i > 0 && v == indexes[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Values returns the trimmed non-empty cells of row at indexes, in index order.
func Values(row []string, indexes []int) []string {
	out := make([]string, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			out = append(out, v)
		}
	}
	return out
}
