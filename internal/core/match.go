// ABOUTME: Single prompt and single document matching against the faculty index
// ABOUTME: Embeds the prompt (with a local cache), ranks faculty, and attaches faculty text
package core

import (
	"context"
	"fmt"
	"os"

	"github.com/harper/facultymatch/internal/columns"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/ranking"
	"github.com/harper/facultymatch/internal/util"
)

// MatchOptions applies to every matching flow.
type MatchOptions struct {
	Recommendations int
	Scope           ScopeOptions
}

// Result is the outcome of a matching request.
type Result struct {
	Summary       string                  `json:"summary"`
	Warnings      []string                `json:"warnings"`
	PromptMatches []models.PromptMatchSet `json:"promptMatches"`
	Batch         *BatchResults           `json:"batchResults,omitempty"`
}

type request struct {
	index   *models.EmbeddingIndex
	limit   int
	allowed ranking.RowSet
	result  *Result
}

func (r *request) warn(format string, args ...any) {
	r.result.Warnings = append(r.result.Warnings, fmt.Sprintf(format, args...))
}

func checkRecommendations(n int) error {
	if n <= 0 {
		return errs.Configuration("Specify at least one faculty recommendation per student.")
	}
	return nil
}

// prepare resolves the scope and loads the index. input names the kind of
// prompt source for the summary.
func (s *Service) prepare(ctx context.Context, opts MatchOptions, input string) (*request, error) {
	scope, err := s.ResolveScope(ctx, opts.Scope)
	if err != nil {
		return nil, err
	}

	index, err := s.store.LoadIndex()
	if err != nil {
		return nil, err
	}
	if index == nil || len(index.Entries) == 0 {
		return nil, errs.Configuration("No faculty embeddings are available. Generate embeddings before matching.")
	}

	n := opts.Recommendations
	result := &Result{
		Summary: fmt.Sprintf("Ready to match %s against %s. Each student will receive up to %d faculty %s.",
			input, opts.Scope.Describe(), n, util.Plural(n, "recommendation", "recommendations")),
		Warnings:      append([]string{}, scope.Warnings...),
		PromptMatches: []models.PromptMatchSet{},
	}
	return &request{
		index:   index,
		limit:   n,
		allowed: scope.Rows,
		result:  result,
	}, nil
}

// MatchPrompt ranks faculty against one free-text prompt.
func (s *Service) MatchPrompt(ctx context.Context, prompt string, opts MatchOptions) (*Result, error) {
	if err := checkRecommendations(opts.Recommendations); err != nil {
		return nil, err
	}
	text := util.CleanText(prompt)
	if text == "" {
		return nil, errs.Configuration("Provide a prompt describing the student's interests.")
	}

	req, err := s.prepare(ctx, opts, "a single prompt")
	if err != nil {
		return nil, err
	}
	if err := s.matchSingle(ctx, req, text, text); err != nil {
		return nil, err
	}
	return req.result, nil
}

// MatchDocument ranks faculty against the text of one document.
func (s *Service) MatchDocument(ctx context.Context, path string, opts MatchOptions) (*Result, error) {
	if err := checkRecommendations(opts.Recommendations); err != nil {
		return nil, err
	}
	path, err := resolveExistingPath(path, false, "Single document")
	if err != nil {
		return nil, err
	}
	var warnings []string
	if warning := validateExtension(path, documentExtensions, "document"); warning != "" {
		warnings = append(warnings, warning)
	}
	extraction, err := ExtractDocument(path)
	if err != nil {
		return nil, err
	}
	if extraction.Text == "" {
		return nil, errs.Configuration("The selected document did not contain any readable text to embed.")
	}
	warnings = append(warnings, extraction.Warnings...)

	req, err := s.prepare(ctx, opts, "one document")
	if err != nil {
		return nil, err
	}
	req.result.Warnings = append(req.result.Warnings, warnings...)
	if err := s.matchSingle(ctx, req, util.CleanText(extraction.Text), util.Preview(extraction.Text)); err != nil {
		return nil, err
	}
	return req.result, nil
}

func (s *Service) matchSingle(ctx context.Context, req *request, text, label string) error {
	vector, err := s.embedPrompt(ctx, req.index, text)
	if err != nil {
		return err
	}
	matches := ranking.FindBestMatches(req.index, vector, req.limit, req.allowed)
	if err := s.enrich(ctx, req.index, matches); err != nil {
		req.warn("Unable to include faculty text in the match results: %v", err)
	}

	req.result.PromptMatches = append(req.result.PromptMatches, models.PromptMatchSet{
		Prompt:  label,
		Matches: matches,
	})
	ranking.AssignCrossQueryRanks(req.result.PromptMatches)
	return nil
}

// embedPrompt returns the vector for text, consulting the prompt cache first.
func (s *Service) embedPrompt(ctx context.Context, index *models.EmbeddingIndex, text string) ([]float32, error) {
	model := index.ModelOrDefault()
	cache := s.store.DB()

	cached, err := cache.CachedEmbedding(ctx, model, text)
	if err != nil {
		s.logger.Warn("prompt cache lookup failed", "error", err)
	} else if len(cached) == index.Dimension {
		s.logger.Debug("prompt embedding served from cache", "model", model)
		return cached, nil
	}

	batch, err := s.embedder.Embed(ctx, model, []models.EmbeddingItem{{ID: 0, Text: text}}, models.PromptLabel)
	if err != nil {
		return nil, err
	}
	vectors, _ := batch.Vectors([]int{0})
	vector, ok := vectors[0]
	if !ok {
		return nil, errs.Protocol(nil, "The embedding helper did not return an embedding for the prompt.")
	}
	if len(vector) != index.Dimension {
		return nil, errs.Protocol(nil, "The prompt embedding dimension (%d) does not match the faculty embedding dimension (%d).",
			len(vector), index.Dimension)
	}
	if batch.Dimension != index.Dimension {
		return nil, errs.Protocol(nil, "The embedding helper reported dimension %d but the faculty index uses %d.",
			batch.Dimension, index.Dimension)
	}

	if err := cache.CacheEmbedding(ctx, model, text, vector); err != nil {
		s.logger.Warn("prompt cache write failed", "error", err)
	}
	return vector, nil
}

// enrich fills each candidate's Text from the dataset's embedding columns.
func (s *Service) enrich(ctx context.Context, index *models.EmbeddingIndex, matches []models.MatchCandidate) error {
	if len(matches) == 0 || len(index.EmbeddingColumns) == 0 {
		return nil
	}

	path, err := s.store.DB().DatasetPath(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		return errDatasetMissing
	}
	if _, err := os.Stat(path); err != nil {
		return errDatasetMissing
	}

	table, err := dataset.ReadTable(path, 0)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return errDatasetEmpty
	}
	indexes, err := columns.NewHeaderIndex(table.Headers).Indexes(index.EmbeddingColumns, "faculty dataset")
	if err != nil {
		return err
	}
	if len(indexes) == 0 {
		return errNoTextColumns
	}

	for i := range matches {
		row := matches[i].RowIndex
		if row < 0 || row >= len(table.Rows) {
			continue
		}
		if text := util.JoinParagraphs(columns.Values(table.Rows[row], indexes)); text != "" {
			matches[i].Text = text
		}
	}
	return nil
}
