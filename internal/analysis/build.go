// ABOUTME: Builds the faculty embedding index from a dataset and its analysis
// ABOUTME: Batches row text into one embedding request and counts skipped rows
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/harper/facultymatch/internal/columns"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/util"
)

// Embedder turns id-tagged text into vectors.
type Embedder interface {
	Embed(ctx context.Context, model string, items []models.EmbeddingItem, label models.ItemLabel) (*models.EmbeddingBatch, error)
}

// IndexWriter persists a finished index and reports where it went.
type IndexWriter interface {
	SaveIndex(index *models.EmbeddingIndex) (string, error)
}

// BuildOptions configures BuildIndex.
type BuildOptions struct {
	Model    string
	Progress models.ProgressFunc
	Logger   *slog.Logger
	Writer   IndexWriter
}

// BuildReport describes a finished index build.
type BuildReport struct {
	Index       *models.EmbeddingIndex
	TextSkipped int
	Missing     int
	SavedTo     string
	Message     string
}

type rowContext struct {
	rowIndex    int
	text        string
	identifiers map[string]string
}

// BuildIndex embeds every row with embedding text and returns the index.
func BuildIndex(ctx context.Context, table *dataset.Table, analysis models.DatasetAnalysis, embedder Embedder, opts BuildOptions) (*BuildReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	started := time.Now()
	publish := func(phase, message string, processed, total int) {
		elapsed := time.Since(started).Seconds()
		opts.Progress.Publish(models.Progress{
			Phase:          phase,
			Message:        message,
			ProcessedRows:  processed,
			TotalRows:      total,
			ElapsedSeconds: &elapsed,
		})
	}
	fail := func(err error, total int) (*BuildReport, error) {
		publish(models.PhaseError, err.Error(), 0, total)
		return nil, err
	}

	publish(models.PhaseStarting, "Preparing to refresh faculty embeddings…", 0, 0)

	if table == nil || len(table.Rows) == 0 {
		return fail(errs.Configuration("The faculty dataset does not include any data rows to embed."), 0)
	}
	rowCount := len(table.Rows)
	publish(models.PhasePreparing, fmt.Sprintf("Scanning %d %s for embedding content…",
		rowCount, util.Plural(rowCount, "faculty row", "faculty rows")), 0, rowCount)

	headers := columns.NewHeaderIndex(table.Headers)
	embeddingIndexes, err := headers.Indexes(analysis.EmbeddingColumns, datasetSource)
	if err != nil {
		return fail(err, rowCount)
	}
	identifierIndexes, err := headers.Indexes(analysis.IdentifierColumns, datasetSource)
	if err != nil {
		return fail(err, rowCount)
	}
	if len(embeddingIndexes) == 0 {
		return fail(errs.Configuration("No embedding columns were identified for the faculty dataset."), rowCount)
	}

	contexts := make([]rowContext, 0, rowCount)
	textSkipped := 0
	for rowIndex, row := range table.Rows {
		text := util.CleanText(util.JoinParagraphs(columns.Values(row, embeddingIndexes)))
		if text == "" {
			textSkipped++
			continue
		}
		contexts = append(contexts, rowContext{
			rowIndex:    rowIndex,
			text:        text,
			identifiers: Identifiers(table.Headers, row, identifierIndexes),
		})
	}
	if len(contexts) == 0 {
		return fail(errs.Configuration("None of the faculty rows include embedding content. Add research interest details before refreshing embeddings."), rowCount)
	}

	total := len(contexts)
	publish(models.PhasePreparing, fmt.Sprintf("Prepared %d %s for embedding.",
		total, util.Plural(total, "faculty row", "faculty rows")), 0, total)

	items := make([]models.EmbeddingItem, len(contexts))
	ids := make([]int, len(contexts))
	for i, c := range contexts {
		items[i] = models.EmbeddingItem{ID: c.rowIndex, Text: c.text}
		ids[i] = c.rowIndex
	}

	publish(models.PhaseEmbedding, fmt.Sprintf("Starting embeddings for %d %s…",
		total, util.Plural(total, "faculty row", "faculty rows")), 0, total)

	model := opts.Model
	if model == "" {
		model = models.DefaultEmbeddingModel
	}
	batch, err := embedder.Embed(ctx, model, items, models.FacultyRowLabel)
	if err != nil {
		return fail(err, total)
	}
	if batch.Dimension == 0 || len(batch.Rows) == 0 {
		return fail(errs.Protocol(nil, "The embedding worker returned an empty result. Verify the Python environment can load the %s model.", model), total)
	}

	publish(models.PhaseProcessingResults, "Aligning embeddings with faculty rows…", len(batch.Rows), total)

	vectors, missing := batch.Vectors(ids)
	entries := make([]models.EmbeddingEntry, 0, len(vectors))
	for _, c := range contexts {
		vector, ok := vectors[c.rowIndex]
		if !ok {
			continue
		}
		entries = append(entries, models.EmbeddingEntry{
			RowIndex:    c.rowIndex,
			Identifiers: c.identifiers,
			Embedding:   vector,
		})
	}
	if len(entries) == 0 {
		return fail(errs.Protocol(nil, "No embeddings were generated for the faculty dataset. Confirm the embedding worker executed successfully."), total)
	}
	if len(missing) > 0 {
		logger.Warn("embedding worker returned no vector for some rows", "rows", len(missing))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RowIndex < entries[j].RowIndex })

	embedded := len(entries)
	skipped := rowCount - embedded
	index := &models.EmbeddingIndex{
		Model:             batch.Model,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
		Dimension:         batch.Dimension,
		TotalRows:         rowCount,
		EmbeddedRows:      embedded,
		SkippedRows:       &skipped,
		EmbeddingColumns:  append([]string(nil), analysis.EmbeddingColumns...),
		IdentifierColumns: append([]string(nil), analysis.IdentifierColumns...),
		Entries:           entries,
	}
	if index.Model == "" {
		index.Model = model
	}

	report := &BuildReport{Index: index, TextSkipped: textSkipped, Missing: len(missing)}
	message := fmt.Sprintf("Generated embeddings for %d %s using %s.",
		embedded, util.Plural(embedded, "faculty row", "faculty rows"), index.Model)
	if lost := textSkipped + len(missing); lost > 0 {
		message += fmt.Sprintf(" Skipped %d %s without usable embedding content.", lost, util.Plural(lost, "row", "rows"))
	}

	if opts.Writer != nil {
		publish(models.PhaseSaving, "Saving faculty embedding index…", embedded, total)
		path, err := opts.Writer.SaveIndex(index)
		if err != nil {
			return fail(err, total)
		}
		report.SavedTo = path
		message += fmt.Sprintf(" Saved the embedding index to %s.", path)
	}
	report.Message = message

	publish(models.PhaseComplete, message, embedded, total)
	logger.Info("faculty embedding index built", "rows", embedded, "skipped", skipped, "model", index.Model)
	return report, nil
}
