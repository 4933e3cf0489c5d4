// ABOUTME: Tabular matches report for spreadsheet and directory runs
// ABOUTME: One row per student and faculty pairing, written as TSV
package core

import (
	"fmt"
	"math"
	"strconv"

	"github.com/harper/facultymatch/internal/dataset"
)

// Report is a header row plus one row per (student, faculty) pairing.
// Students without matches get a single row carrying their status.
type Report struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// WriteTSV saves the report to path.
func (r *Report) WriteTSV(path string) error {
	return dataset.WriteTSV(path, r.Headers, r.Rows)
}

func buildReport(entries []*batchEntry, studentHeaders, facultyHeaders []string) *Report {
	headers := make([]string, 0, len(studentHeaders)+len(facultyHeaders)+4)
	headers = append(headers, "Prompt")
	headers = append(headers, studentHeaders...)
	headers = append(headers, facultyHeaders...)
	headers = append(headers, "Similarity %", "Student rank", "Faculty rank")

	report := &Report{Headers: headers, Rows: [][]string{}}
	for _, e := range entries {
		if len(e.matches) == 0 {
			status := e.status
			if status == "" {
				status = noMatchesStatus
			}
			row := append([]string{e.preview}, e.values...)
			row = append(row, make([]string, len(facultyHeaders))...)
			row = append(row, status, "", "")
			report.Rows = append(report.Rows, row)
			continue
		}

		for position, candidate := range e.matches {
			row := append([]string{e.preview}, e.values...)
			for _, label := range facultyHeaders {
				row = append(row, candidate.Identifiers[label])
			}
			studentRank := ""
			if candidate.CrossQueryRank != nil {
				studentRank = strconv.Itoa(*candidate.CrossQueryRank)
				if candidate.CrossQueryTotal != nil {
					studentRank = fmt.Sprintf("%d of %d", *candidate.CrossQueryRank, *candidate.CrossQueryTotal)
				}
			}
			row = append(row, FormatSimilarity(candidate.Similarity), studentRank, strconv.Itoa(position+1))
			report.Rows = append(report.Rows, row)
		}
	}
	return report
}

// FormatSimilarity renders a cosine similarity as a percentage with one decimal.
func FormatSimilarity(v float32) string {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", f*100)
}
