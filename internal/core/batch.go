// ABOUTME: Batched matching for prompt spreadsheets and document directories
// ABOUTME: Embeds every prompt in one request, then ranks faculty per prompt and across prompts
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/harper/facultymatch/internal/columns"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/ranking"
	"github.com/harper/facultymatch/internal/util"
)

const noMatchesStatus = "No faculty matches were returned."

// BatchResults summarizes a spreadsheet or directory run.
type BatchResults struct {
	Processed int     `json:"processed"`
	Matched   int     `json:"matched"`
	Skipped   int     `json:"skipped"`
	TotalRows int     `json:"totalRows"`
	Report    *Report `json:"report"`
}

// SpreadsheetOptions selects the prompt and identifier columns of a prompt spreadsheet.
type SpreadsheetOptions struct {
	MatchOptions
	PromptColumns     []string
	IdentifierColumns []string
}

// batchEntry is one student prompt: a spreadsheet row or a document.
type batchEntry struct {
	warnLabel string
	values    []string
	label     string
	preview   string
	text      string
	matches   []models.MatchCandidate
	status    string
	missing   bool
}

type batchKind struct {
	unit          string
	label         models.ItemLabel
	missingStatus string
	noneMessage   string
}

var (
	spreadsheetBatch = batchKind{
		unit:          "spreadsheet",
		label:         models.SpreadsheetRowLabel,
		missingStatus: "The embedding helper did not return a result for this row.",
		noneMessage:   "None of the rows in the spreadsheet contained prompt text to embed.",
	}
	documentBatch = batchKind{
		unit:          "document",
		label:         models.DocumentLabel,
		missingStatus: "The embedding helper did not return a result for this document.",
		noneMessage:   "None of the files in the directory contained readable text to embed.",
	}
)

// MatchSpreadsheet ranks faculty for every row of a prompt spreadsheet.
func (s *Service) MatchSpreadsheet(ctx context.Context, path string, opts SpreadsheetOptions) (*Result, error) {
	if err := checkRecommendations(opts.Recommendations); err != nil {
		return nil, err
	}
	path, err := resolveExistingPath(path, false, "Spreadsheet file")
	if err != nil {
		return nil, err
	}
	promptColumns := util.DedupeFold(opts.PromptColumns)
	identifierColumns := util.DedupeFold(opts.IdentifierColumns)
	if len(promptColumns) == 0 {
		return nil, errs.Configuration("Select at least one column containing student prompts.")
	}

	req, err := s.prepare(ctx, opts.MatchOptions, "a spreadsheet of prompts")
	if err != nil {
		return nil, err
	}
	if warning := validateExtension(path, spreadsheetExtensions, "spreadsheet"); warning != "" {
		req.warn("%s", warning)
	}

	table, err := dataset.ReadTable(path, 0)
	if err != nil {
		return nil, err
	}
	headers := columns.NewHeaderIndex(table.Headers)
	promptIndexes, err := headers.Indexes(promptColumns, "spreadsheet")
	if err != nil {
		return nil, err
	}
	identifierIndexes, err := headers.Indexes(identifierColumns, "spreadsheet")
	if err != nil {
		return nil, err
	}

	if len(table.Rows) == 0 {
		req.warn("The spreadsheet did not include any data rows to process.")
	}
	entries := spreadsheetEntries(table, promptIndexes, identifierIndexes)
	for _, e := range entries {
		if e.text == "" {
			req.warn("Skipped %s because the selected prompt columns were empty.", e.warnLabel)
		}
	}

	if err := s.runBatch(ctx, req, entries, spreadsheetBatch); err != nil {
		return nil, err
	}

	studentHeaders := []string{"Row Number"}
	if len(identifierIndexes) > 0 {
		studentHeaders = columns.Labels(table.Headers, identifierIndexes)
	}
	req.result.Batch = summarizeBatch(entries, studentHeaders, req.index.IdentifierColumns)
	return req.result, nil
}

func spreadsheetEntries(table *dataset.Table, promptIndexes, identifierIndexes []int) []*batchEntry {
	entries := make([]*batchEntry, 0, len(table.Rows))
	for i, row := range table.Rows {
		rowNumber := i + 2
		e := &batchEntry{}

		var segments []string
		if len(identifierIndexes) == 0 {
			e.values = []string{strconv.Itoa(rowNumber)}
		} else {
			for _, col := range identifierIndexes {
				value := ""
				if col < len(row) {
					value = strings.TrimSpace(row[col])
				}
				e.values = append(e.values, value)
				if value != "" {
					segments = append(segments, value)
				}
			}
		}

		identifierLabel := fmt.Sprintf("Row %d", rowNumber)
		e.warnLabel = fmt.Sprintf("row %d", rowNumber)
		if len(segments) > 0 {
			identifierLabel = strings.Join(segments, " – ")
			e.warnLabel = fmt.Sprintf("row %d (%s)", rowNumber, identifierLabel)
		}

		text := util.JoinParagraphs(columns.Values(row, promptIndexes))
		if text == "" {
			e.status = "No prompt content was provided in the selected columns."
		} else {
			e.text = util.CleanText(text)
			e.preview = util.Preview(text)
			e.label = identifierLabel + " — " + e.preview
		}
		entries = append(entries, e)
	}
	return entries
}

// MatchDirectory ranks faculty for every readable document in a directory.
// Subdirectories are ignored.
func (s *Service) MatchDirectory(ctx context.Context, dir string, opts MatchOptions) (*Result, error) {
	if err := checkRecommendations(opts.Recommendations); err != nil {
		return nil, err
	}
	dir, err := resolveExistingPath(dir, true, "Directory")
	if err != nil {
		return nil, err
	}
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Resource(dir, err, "Unable to read the directory")
	}

	req, err := s.prepare(ctx, opts, "a directory of documents")
	if err != nil {
		return nil, err
	}
	if len(listing) == 0 {
		req.warn("The selected directory appears to be empty.")
	}

	var files []string
	for _, entry := range listing {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	entries := make([]*batchEntry, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		e := &batchEntry{warnLabel: "'" + name + "'", values: []string{name}}

		extraction, err := ExtractDocument(path)
		switch {
		case err != nil:
			req.warn("%v", err)
			e.status = err.Error()
		case extraction.Text == "":
			for _, w := range extraction.Warnings {
				req.warn("%s: %s", name, w)
			}
			e.status = fmt.Sprintf("Skipped '%s' because it did not contain readable text.", name)
			req.warn("%s", e.status)
		default:
			for _, w := range extraction.Warnings {
				req.warn("%s: %s", name, w)
			}
			e.text = util.CleanText(extraction.Text)
			e.preview = util.Preview(extraction.Text)
			e.label = name + " — " + e.preview
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		req.warn("The selected directory did not contain any files to process.")
	}

	if err := s.runBatch(ctx, req, entries, documentBatch); err != nil {
		return nil, err
	}
	req.result.Batch = summarizeBatch(entries, []string{"Document"}, req.index.IdentifierColumns)
	return req.result, nil
}

// runBatch embeds every entry with text in one request and ranks faculty
// for each. Entries the backend drops are reported, not fatal.
func (s *Service) runBatch(ctx context.Context, req *request, entries []*batchEntry, kind batchKind) error {
	var pending []*batchEntry
	for _, e := range entries {
		if e.text != "" {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		if len(entries) > 0 {
			req.warn("%s", kind.noneMessage)
		}
		return nil
	}

	items := make([]models.EmbeddingItem, len(pending))
	ids := make([]int, len(pending))
	for i, e := range pending {
		items[i] = models.EmbeddingItem{ID: i, Text: e.text}
		ids[i] = i
	}

	batch, err := s.embedder.Embed(ctx, req.index.ModelOrDefault(), items, kind.label)
	if err != nil {
		return err
	}
	if len(batch.Rows) > 0 && batch.Dimension != req.index.Dimension {
		return errs.Protocol(nil, "The %s embedding dimension (%d) does not match the faculty embedding dimension (%d).",
			kind.unit, batch.Dimension, req.index.Dimension)
	}

	vectors, _ := batch.Vectors(ids)
	for i, e := range pending {
		vector, ok := vectors[i]
		if !ok || len(vector) != req.index.Dimension {
			e.status = kind.missingStatus
			e.missing = true
			req.warn("The embedding helper did not return an embedding for %s.", e.warnLabel)
			continue
		}
		e.matches = ranking.FindBestMatches(req.index, vector, req.limit, req.allowed)
		if len(e.matches) == 0 {
			e.status = noMatchesStatus
		}
	}

	for _, e := range entries {
		if e.label != "" {
			req.result.PromptMatches = append(req.result.PromptMatches, models.PromptMatchSet{
				Prompt:  e.label,
				Matches: e.matches,
			})
		}
	}
	ranking.AssignCrossQueryRanks(req.result.PromptMatches)

	s.logger.Info("batch matched", "unit", kind.unit, "prompts", len(pending), "entries", len(entries))
	return nil
}

func summarizeBatch(entries []*batchEntry, studentHeaders, facultyHeaders []string) *BatchResults {
	results := &BatchResults{}
	for _, e := range entries {
		if e.text != "" && !e.missing {
			results.Processed++
		}
		if len(e.matches) > 0 {
			results.Matched++
		}
		results.TotalRows += len(e.matches)
	}
	results.Skipped = len(entries) - results.Processed
	results.Report = buildReport(entries, studentHeaders, facultyHeaders)
	return results
}
