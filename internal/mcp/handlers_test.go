// ABOUTME: Tests for MCP tool handlers against an in-memory service
// ABOUTME: Uses a keyword embedder so rankings are deterministic
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/facultymatch/internal/config"
	"github.com/harper/facultymatch/internal/core"
	"github.com/harper/facultymatch/internal/models"
	"github.com/harper/facultymatch/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

const facultyTSV = "Name\tEmail\tResearch Interests\tProgram\n" +
	"Ada Neuro\tada@example.edu\tneuroscience of memory circuits\tNeuroscience\n" +
	"Ben Cardio\tben@example.edu\tcardiology and vascular biology\tCardiology\n"

type keywordEmbedder struct{}

func (keywordEmbedder) Embed(ctx context.Context, model string, items []models.EmbeddingItem, label models.ItemLabel) (*models.EmbeddingBatch, error) {
	batch := &models.EmbeddingBatch{Model: model, Dimension: 2}
	for _, item := range items {
		vector := []float32{1, 1}
		switch lower := strings.ToLower(item.Text); {
		case strings.Contains(lower, "neuro"):
			vector = []float32{1, 0}
		case strings.Contains(lower, "cardio"):
			vector = []float32{0, 1}
		}
		batch.Rows = append(batch.Rows, models.EmbeddedRow{ID: item.ID, Embedding: vector})
	}
	return batch, nil
}

func (keywordEmbedder) Preload(ctx context.Context, model string) error {
	return nil
}

func setupHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStorageInMemory(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	datasetPath := filepath.Join(dir, "faculty.tsv")
	if err := os.WriteFile(datasetPath, []byte(facultyTSV), 0644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}

	cfg := &config.Config{Backend: config.BackendWorker, EmbeddingModel: "fake-model", Recommendations: 5}
	svc := core.NewService(cfg, store, keywordEmbedder{}, nil)
	return NewHandlers(svc), datasetPath
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	return text.Text
}

func TestRefreshAndMatchPrompt(t *testing.T) {
	h, datasetPath := setupHandlers(t)
	ctx := context.Background()

	result, err := h.RefreshEmbeddings(ctx, callRequest(map[string]any{"dataset_path": datasetPath}))
	if err != nil {
		t.Fatalf("RefreshEmbeddings returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("refresh failed: %s", resultText(t, result))
	}
	var summary refreshSummary
	if err := json.Unmarshal([]byte(resultText(t, result)), &summary); err != nil {
		t.Fatalf("invalid refresh JSON: %v", err)
	}
	if summary.EmbeddedRows != 2 || summary.Dimension != 2 {
		t.Errorf("unexpected refresh summary %+v", summary)
	}

	result, err = h.MatchPrompt(ctx, callRequest(map[string]any{
		"prompt":          "cardiovascular cardiology",
		"recommendations": float64(1),
	}))
	if err != nil {
		t.Fatalf("MatchPrompt returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("match failed: %s", resultText(t, result))
	}

	var out core.Result
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("invalid match JSON: %v", err)
	}
	if len(out.PromptMatches) != 1 || len(out.PromptMatches[0].Matches) != 1 {
		t.Fatalf("expected one match set with one match, got %+v", out.PromptMatches)
	}
	if got := out.PromptMatches[0].Matches[0].Identifiers["Name"]; got != "Ben Cardio" {
		t.Errorf("top match = %q, want Ben Cardio", got)
	}
}

func TestMatchPrompt_Errors(t *testing.T) {
	h, _ := setupHandlers(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing prompt", map[string]any{}, "prompt argument is required"},
		{"no index", map[string]any{"prompt": "neuro"}, "No faculty embeddings are available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.MatchPrompt(ctx, callRequest(tt.args))
			if err != nil {
				t.Fatalf("MatchPrompt returned error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error %q does not contain %q", text, tt.want)
			}
		})
	}
}

func TestRefreshEmbeddings_Background(t *testing.T) {
	h, datasetPath := setupHandlers(t)
	ctx := context.Background()

	result, err := h.RefreshEmbeddings(ctx, callRequest(map[string]any{
		"dataset_path": datasetPath,
		"background":   true,
	}))
	if err != nil {
		t.Fatalf("RefreshEmbeddings returned error: %v", err)
	}
	if result.IsError || !strings.Contains(resultText(t, result), "started") {
		t.Fatalf("unexpected result: %s", resultText(t, result))
	}
	h.Shutdown()

	status, err := h.DatasetStatus(ctx, callRequest(nil))
	if err != nil {
		t.Fatalf("DatasetStatus returned error: %v", err)
	}
	var out core.Status
	if err := json.Unmarshal([]byte(resultText(t, status)), &out); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if out.Index == nil || out.Index.EmbeddedRows != 2 {
		t.Errorf("expected built index in status, got %+v", out.Index)
	}
}

func TestSuggestColumns(t *testing.T) {
	h, datasetPath := setupHandlers(t)

	result, err := h.SuggestColumns(context.Background(), callRequest(map[string]any{"path": datasetPath}))
	if err != nil {
		t.Fatalf("SuggestColumns returned error: %v", err)
	}
	var out core.ColumnSuggestion
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("invalid suggestion JSON: %v", err)
	}
	if len(out.Embedding) != 1 || out.Embedding[0] != "Research Interests" {
		t.Errorf("embedding columns = %v", out.Embedding)
	}
}

func TestMatchSpreadsheet_WritesReport(t *testing.T) {
	h, datasetPath := setupHandlers(t)
	ctx := context.Background()
	if _, err := h.RefreshEmbeddings(ctx, callRequest(map[string]any{"dataset_path": datasetPath})); err != nil {
		t.Fatalf("RefreshEmbeddings returned error: %v", err)
	}

	dir := filepath.Dir(datasetPath)
	students := filepath.Join(dir, "students.tsv")
	if err := os.WriteFile(students, []byte("Student\tInterests\nS1\tneuro circuits\nS2\tcardio\n"), 0644); err != nil {
		t.Fatalf("failed to write students: %v", err)
	}
	output := filepath.Join(dir, "report.tsv")

	result, err := h.MatchSpreadsheet(ctx, callRequest(map[string]any{
		"path":               students,
		"prompt_columns":     []interface{}{"Interests"},
		"identifier_columns": "Student",
		"recommendations":    float64(1),
		"output_path":        output,
	}))
	if err != nil {
		t.Fatalf("MatchSpreadsheet returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("match failed: %s", resultText(t, result))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Prompt\tStudent\t") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestStringArray(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"array", []interface{}{"A", " ", "B "}, []string{"A", "B"}},
		{"csv string", "A, B,,C", []string{"A", "B", "C"}},
		{"missing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stringArray(callRequest(map[string]any{"k": tt.raw}), "k")
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("stringArray = %v, want %v", got, tt.want)
			}
		})
	}
}
