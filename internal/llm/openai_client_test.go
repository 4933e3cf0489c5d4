// ABOUTME: Tests for the OpenAI embeddings backend against a local HTTP server
// ABOUTME: Verifies batching, skipped rows, retries, and progress reporting
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/facultymatch/internal/errs"
	"github.com/harper/facultymatch/internal/models"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeEmbeddings answers with vectors [len(text), index, 1].
func fakeEmbeddings(t *testing.T, failFirst int32, calls *atomic.Int32, sizes *[]int, mu *sync.Mutex) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= failFirst {
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
			return
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		mu.Lock()
		*sizes = append(*sizes, len(req.Input))
		mu.Unlock()

		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(req.Input))
		for i, text := range req.Input {
			data[i] = datum{Object: "embedding", Embedding: []float32{float32(len(text)), float32(i), 1}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func newTestClient(t *testing.T, url string, batchSize, retries int) *OpenAIClient {
	t.Helper()
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = url + "/v1"
	cfg.BatchSize = batchSize
	cfg.MaxRetries = retries
	cfg.RetryDelay = time.Millisecond
	client, err := NewOpenAIClientWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	return client
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	if !errs.Is(err, errs.KindConfiguration) {
		t.Errorf("NewOpenAIClient(\"\") error = %v, want configuration error", err)
	}
}

func TestEmbedBatchesAndSkips(t *testing.T) {
	var (
		calls atomic.Int32
		sizes []int
		mu    sync.Mutex
	)
	server := fakeEmbeddings(t, 0, &calls, &sizes, &mu)
	defer server.Close()

	client := newTestClient(t, server.URL, 2, 0)
	var progress []models.Progress
	var progressMu sync.Mutex
	client.SetProgress(func(p models.Progress) {
		progressMu.Lock()
		progress = append(progress, p)
		progressMu.Unlock()
	})

	items := []models.EmbeddingItem{
		{ID: 10, Text: "alpha"},
		{ID: 11, Text: "   "},
		{ID: 12, Text: "be"},
		{ID: 13, Text: "gamma ray"},
	}
	batch, err := client.Embed(context.Background(), "", items, models.FacultyRowLabel)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if batch.Model != DefaultEmbeddingModel {
		t.Errorf("Model = %q, want %q", batch.Model, DefaultEmbeddingModel)
	}
	if batch.Dimension != 3 {
		t.Errorf("Dimension = %d, want 3", batch.Dimension)
	}
	if len(batch.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(batch.Rows))
	}
	if batch.Rows[2].ID != 13 || batch.Rows[2].Embedding[0] != 9 {
		t.Errorf("Rows[2] = %+v, want id 13 with length 9", batch.Rows[2])
	}
	if len(batch.Skipped) != 1 || batch.Skipped[0].ID != 11 {
		t.Errorf("Skipped = %+v, want id 11", batch.Skipped)
	}
	if len(sizes) != 2 || sizes[0] != 2 || sizes[1] != 1 {
		t.Errorf("request sizes = %v, want [2 1]", sizes)
	}

	progressMu.Lock()
	defer progressMu.Unlock()
	last := progress[len(progress)-1]
	if last.ProcessedRows != 3 || last.TotalRows != 3 {
		t.Errorf("last progress = %+v", last)
	}
}

func TestEmbedRetries(t *testing.T) {
	var (
		calls atomic.Int32
		sizes []int
		mu    sync.Mutex
	)
	server := fakeEmbeddings(t, 2, &calls, &sizes, &mu)
	defer server.Close()

	client := newTestClient(t, server.URL, 8, 3)
	batch, err := client.Embed(context.Background(), "m", []models.EmbeddingItem{{ID: 1, Text: "x"}}, models.PromptLabel)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(batch.Rows) != 1 {
		t.Errorf("len(Rows) = %d, want 1", len(batch.Rows))
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestEmbedGivesUp(t *testing.T) {
	var (
		calls atomic.Int32
		sizes []int
		mu    sync.Mutex
	)
	server := fakeEmbeddings(t, 100, &calls, &sizes, &mu)
	defer server.Close()

	client := newTestClient(t, server.URL, 8, 1)
	_, err := client.Embed(context.Background(), "m", []models.EmbeddingItem{{ID: 1, Text: "x"}}, models.PromptLabel)
	if !errs.Is(err, errs.KindProtocol) {
		t.Errorf("Embed() error = %v, want protocol error", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestEmbedEmptyInputSkipsNetwork(t *testing.T) {
	client, err := NewOpenAIClientWithConfig(&ClientConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	batch, err := client.Embed(context.Background(), "m", nil, models.PromptLabel)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if batch.Dimension != 0 || len(batch.Rows) != 0 {
		t.Errorf("Embed(nil) = %+v, want empty batch", batch)
	}
}
