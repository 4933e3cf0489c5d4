// ABOUTME: Tests for building the embedding index with a fake embedder
// ABOUTME: Covers skip accounting, missing rows, progress phases, and failures
package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
)

type fakeEmbedder struct {
	calls   int
	items   []models.EmbeddingItem
	drop    map[int]bool
	extra   []models.EmbeddedRow
	err     error
	noModel bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, model string, items []models.EmbeddingItem, label models.ItemLabel) (*models.EmbeddingBatch, error) {
	f.calls++
	f.items = items
	if f.err != nil {
		return nil, f.err
	}
	batch := &models.EmbeddingBatch{Model: model, Dimension: 2}
	if f.noModel {
		batch.Model = ""
	}
	for _, item := range items {
		if f.drop[item.ID] {
			continue
		}
		batch.Rows = append(batch.Rows, models.EmbeddedRow{ID: item.ID, Embedding: []float32{float32(len(item.Text)), 1}})
	}
	batch.Rows = append(batch.Rows, f.extra...)
	return batch, nil
}

type memoryWriter struct {
	saved *models.EmbeddingIndex
}

func (w *memoryWriter) SaveIndex(index *models.EmbeddingIndex) (string, error) {
	w.saved = index
	return "/tmp/faculty-embeddings.json", nil
}

func textTable(texts ...string) *dataset.Table {
	table := &dataset.Table{Headers: []string{"Name", "Research Interests"}}
	for i, text := range texts {
		table.Rows = append(table.Rows, []string{string(rune('A' + i)), text})
	}
	return table
}

var textAnalysis = models.DatasetAnalysis{
	EmbeddingColumns:  []string{"Research Interests"},
	IdentifierColumns: []string{"Name"},
}

func TestBuildIndex_SkipsRowsWithoutText(t *testing.T) {
	table := textTable(strings.Repeat("x", 50), "short", "")
	embedder := &fakeEmbedder{}
	writer := &memoryWriter{}

	var phases []string
	report, err := BuildIndex(context.Background(), table, textAnalysis, embedder, BuildOptions{
		Model:    "m",
		Writer:   writer,
		Progress: func(p models.Progress) { phases = append(phases, p.Phase) },
	})
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	if embedder.calls != 1 || len(embedder.items) != 2 {
		t.Fatalf("embedder saw %d calls with %d items, want 1 call with 2 items", embedder.calls, len(embedder.items))
	}
	idx := report.Index
	if idx.TotalRows != 3 || idx.EmbeddedRows != 2 || idx.Skipped() != 1 {
		t.Errorf("counts = total %d embedded %d skipped %d", idx.TotalRows, idx.EmbeddedRows, idx.Skipped())
	}
	if idx.Entries[0].RowIndex != 0 || idx.Entries[1].RowIndex != 1 {
		t.Errorf("entries not sorted by row: %+v", idx.Entries)
	}
	if idx.Entries[0].Identifiers["Name"] != "A" {
		t.Errorf("identifiers = %v", idx.Entries[0].Identifiers)
	}
	if writer.saved != idx {
		t.Error("index was not handed to the writer")
	}
	if report.TextSkipped != 1 || !strings.Contains(report.Message, "Skipped 1 row") {
		t.Errorf("report = %+v", report)
	}
	if err := idx.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	wantOrder := []string{
		models.PhaseStarting, models.PhasePreparing, models.PhasePreparing, models.PhaseEmbedding,
		models.PhaseProcessingResults, models.PhaseSaving, models.PhaseComplete,
	}
	if strings.Join(phases, ",") != strings.Join(wantOrder, ",") {
		t.Errorf("phases = %v, want %v", phases, wantOrder)
	}
}

func TestBuildIndex_MissingAndUnrequestedRows(t *testing.T) {
	table := textTable("alpha text", "beta text", "gamma text")
	embedder := &fakeEmbedder{
		drop:  map[int]bool{1: true},
		extra: []models.EmbeddedRow{{ID: 42, Embedding: []float32{1, 1}}},
	}

	report, err := BuildIndex(context.Background(), table, textAnalysis, embedder, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	idx := report.Index
	if idx.EmbeddedRows != 2 || idx.Skipped() != 1 || report.Missing != 1 {
		t.Errorf("embedded %d skipped %d missing %d", idx.EmbeddedRows, idx.Skipped(), report.Missing)
	}
	for _, e := range idx.Entries {
		if e.RowIndex == 42 || e.RowIndex == 1 {
			t.Errorf("unexpected entry for row %d", e.RowIndex)
		}
	}
	if idx.Model != models.DefaultEmbeddingModel {
		t.Errorf("Model = %q, want default", idx.Model)
	}
	if report.SavedTo != "" {
		t.Errorf("SavedTo = %q without a writer", report.SavedTo)
	}
}

func TestBuildIndex_Failures(t *testing.T) {
	workerErr := errs.Helper("boom")
	tests := []struct {
		name     string
		table    *dataset.Table
		embedder *fakeEmbedder
		wantKind errs.Kind
	}{
		{"no rows", textTable(), &fakeEmbedder{}, errs.KindConfiguration},
		{"no text", textTable("", "  "), &fakeEmbedder{}, errs.KindConfiguration},
		{"worker error", textTable("text"), &fakeEmbedder{err: workerErr}, errs.KindHelper},
		{"empty response", textTable("text"), &fakeEmbedder{drop: map[int]bool{0: true}}, errs.KindProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var last models.Progress
			_, err := BuildIndex(context.Background(), tt.table, textAnalysis, tt.embedder, BuildOptions{
				Progress: func(p models.Progress) { last = p },
			})
			if errs.KindOf(err) != tt.wantKind {
				t.Errorf("error = %v, want kind %v", err, tt.wantKind)
			}
			if last.Phase != models.PhaseError {
				t.Errorf("last phase = %q, want error", last.Phase)
			}
		})
	}
}

func TestBuildIndex_UnknownColumn(t *testing.T) {
	analysis := models.DatasetAnalysis{EmbeddingColumns: []string{"Bio"}, IdentifierColumns: []string{"Name"}}
	_, err := BuildIndex(context.Background(), textTable("x"), analysis, &fakeEmbedder{}, BuildOptions{})
	var e *errs.Error
	if !errors.As(err, &e) || !strings.Contains(e.Message, "'Bio'") {
		t.Errorf("error = %v, want missing column error", err)
	}
}

func TestBuildIndex_JoinsEmbeddingColumns(t *testing.T) {
	table := &dataset.Table{
		Headers: []string{"Name", "Interests", "Summary"},
		Rows:    [][]string{{"A", " genomics ", "cancer biology"}},
	}
	analysis := models.DatasetAnalysis{EmbeddingColumns: []string{"Summary", "Interests"}, IdentifierColumns: []string{"Name"}}
	embedder := &fakeEmbedder{}

	if _, err := BuildIndex(context.Background(), table, analysis, embedder, BuildOptions{}); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if got := embedder.items[0].Text; got != "genomics\n\ncancer biology" {
		t.Errorf("text = %q", got)
	}
}
