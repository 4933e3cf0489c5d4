// ABOUTME: Dataset analysis and embedding index refresh flows
// ABOUTME: Persists column roles and memberships, then rebuilds the faculty index
package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harper/facultymatch/internal/analysis"
	"github.com/harper/facultymatch/internal/columns"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/storage/sqlite"
)

// ColumnSuggestion is the inferred role assignment for a spreadsheet.
type ColumnSuggestion struct {
	Path       string     `json:"path"`
	Headers    []string   `json:"headers"`
	Rows       int        `json:"rows"`
	Preview    [][]string `json:"preview"`
	Embedding  []string   `json:"embeddingColumns"`
	Identifier []string   `json:"identifierColumns"`
	Category   []string   `json:"programColumns"`
}

// Status summarizes what is stored in the data directory.
type Status struct {
	DataDir       string                  `json:"dataDir"`
	DatasetPath   string                  `json:"datasetPath,omitempty"`
	IndexPath     string                  `json:"indexPath"`
	Backend       string                  `json:"backend"`
	Model         string                  `json:"model"`
	Index         *sqlite.ExportIndex     `json:"index,omitempty"`
	Analysis      *models.DatasetAnalysis `json:"analysis,omitempty"`
	Memberships   int                     `json:"memberships"`
	Selection     *models.ColumnSelection `json:"selection,omitempty"`
	CachedPrompts int                     `json:"cachedPrompts"`
	LastBuild     *sqlite.BuildRecord     `json:"lastBuild,omitempty"`
}

// SuggestColumns reads a spreadsheet and infers its column roles.
func (s *Service) SuggestColumns(path string) (*ColumnSuggestion, error) {
	table, err := dataset.ReadTable(path, columns.MaxSampleRows)
	if err != nil {
		return nil, err
	}
	assignment := columns.Infer(table.Headers, table.Rows)
	preview := table.Rows
	if len(preview) > dataset.PreviewRows {
		preview = preview[:dataset.PreviewRows]
	}
	return &ColumnSuggestion{
		Path:       path,
		Headers:    table.Headers,
		Rows:       len(table.Rows),
		Preview:    preview,
		Embedding:  columns.Labels(table.Headers, assignment.Embedding),
		Identifier: columns.Labels(table.Headers, assignment.Identifier),
		Category:   columns.Labels(table.Headers, assignment.Category),
	}, nil
}

// datasetPath resolves path to an absolute location, falling back to the
// recorded dataset when path is empty.
func (s *Service) datasetPath(ctx context.Context, path string) (string, error) {
	if path == "" {
		recorded, err := s.store.DB().DatasetPath(ctx)
		if err != nil {
			return "", err
		}
		if recorded == "" {
			return "", errs.Configuration("Choose a faculty dataset before running the dataset analysis.")
		}
		return recorded, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errs.Resource(path, err, "Unable to resolve the faculty dataset path")
	}
	return abs, nil
}

// Analyze infers or applies column roles for the dataset at path and saves
// the result. A non-empty selection is saved and wins over inference on
// later runs; a nil selection reuses the saved one.
func (s *Service) Analyze(ctx context.Context, path string, selection *models.ColumnSelection) (*models.DatasetMetadata, error) {
	path, err := s.datasetPath(ctx, path)
	if err != nil {
		return nil, err
	}
	table, err := dataset.ReadTable(path, 0)
	if err != nil {
		return nil, err
	}

	if selection == nil {
		if selection, err = s.store.DB().LoadSelection(ctx); err != nil {
			return nil, fmt.Errorf("failed to load column selection: %w", err)
		}
	}

	meta, err := analysis.Analyze(table, selection)
	if err != nil {
		return nil, err
	}
	meta.DatasetPath = path

	if err := s.store.SaveMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to save dataset analysis: %w", err)
	}
	if selection != nil && !selection.IsEmpty() {
		if err := s.store.DB().SaveSelection(ctx, *selection); err != nil {
			return nil, fmt.Errorf("failed to save column selection: %w", err)
		}
	}

	s.logger.Info("dataset analyzed",
		"path", path,
		"rows", len(table.Rows),
		"embedding", meta.Analysis.EmbeddingColumns,
		"identifiers", meta.Analysis.IdentifierColumns)
	return meta, nil
}

// ResetSelection forgets explicit column choices so the next analysis infers them.
func (s *Service) ResetSelection(ctx context.Context) error {
	return s.store.DB().SaveSelection(ctx, models.ColumnSelection{})
}

// Refresh analyzes the dataset (path, or the recorded one) and rebuilds the
// faculty embedding index from it.
func (s *Service) Refresh(ctx context.Context, path string) (*analysis.BuildReport, error) {
	meta, err := s.Analyze(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	table, err := dataset.ReadTable(meta.DatasetPath, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	progress := s.progress
	s.mu.Unlock()

	return analysis.BuildIndex(ctx, table, meta.Analysis, s.embedder, analysis.BuildOptions{
		Model:    s.cfg.Model(),
		Progress: progress,
		Logger:   s.logger,
		Writer:   s.store,
	})
}

// Status reports the stored index, analysis, and cache.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	status := &Status{
		DataDir:   s.store.DataDir(),
		IndexPath: s.store.IndexPath(),
		Backend:   s.cfg.Backend,
		Model:     s.cfg.Model(),
	}

	index, err := s.store.LoadIndex()
	if err != nil {
		return nil, err
	}
	status.Index = sqlite.SummarizeIndex(index)

	meta, err := s.store.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		status.DatasetPath = meta.DatasetPath
		status.Analysis = &meta.Analysis
		status.Memberships = len(meta.Memberships)
	}

	if status.Selection, err = s.store.DB().LoadSelection(ctx); err != nil {
		return nil, err
	}
	if status.CachedPrompts, err = s.store.DB().CacheSize(ctx); err != nil {
		return nil, err
	}
	builds, err := s.store.DB().RecentBuilds(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) > 0 {
		status.LastBuild = &builds[0]
	}
	return status, nil
}
