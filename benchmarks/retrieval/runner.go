// ABOUTME: Test runner for retrieval benchmarks - builds an index per scenario and scores rankings
// ABOUTME: Uses an isolated data directory per scenario so runs never touch user data

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/facultymatch/internal/config"
	"github.com/harper/facultymatch/internal/core"
	"github.com/harper/facultymatch/internal/dataset"
	"github.com/harper/facultymatch/internal/storage"
)

// BenchmarkRunner executes retrieval benchmark scenarios
type BenchmarkRunner struct {
	cfg      *config.Config
	embedder core.Embedder
	metrics  *MetricsCalculator
	k        int
	logger   *slog.Logger
}

// NewBenchmarkRunner creates a runner that ranks the top k faculty per query.
func NewBenchmarkRunner(cfg *config.Config, embedder core.Embedder, k int, logger *slog.Logger) (*BenchmarkRunner, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BenchmarkRunner{
		cfg:      cfg,
		embedder: embedder,
		metrics:  NewMetricsCalculator(),
		k:        k,
		logger:   logger,
	}, nil
}

// RunTest executes a single benchmark scenario
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario Scenario) (TestResult, error) {
	r.logger.Info("running scenario", "id", scenario.ID, "queries", len(scenario.Queries))

	dir, err := os.MkdirTemp("", "facultymatch-bench-*")
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	datasetPath := filepath.Join(dir, "faculty.tsv")
	rows := make([][]string, 0, len(scenario.Faculty))
	for _, f := range scenario.Faculty {
		rows = append(rows, []string{f.Name, f.Interests, f.Program})
	}
	if err := dataset.WriteTSV(datasetPath, []string{"Name", "Research Interests", "Program"}, rows); err != nil {
		return TestResult{}, err
	}

	store, err := storage.NewStorage(filepath.Join(dir, "data"))
	if err != nil {
		return TestResult{}, err
	}
	defer func() { _ = store.Close() }()

	svc := core.NewService(r.cfg, store, r.embedder, r.logger)
	start := time.Now()
	if _, err := svc.Refresh(ctx, datasetPath); err != nil {
		return TestResult{}, fmt.Errorf("failed to build index: %w", err)
	}
	buildTime := time.Since(start)

	rankings := make([][]string, 0, len(scenario.Queries))
	start = time.Now()
	for _, query := range scenario.Queries {
		result, err := svc.MatchPrompt(ctx, query.Prompt, core.MatchOptions{
			Recommendations: r.k,
			Scope:           core.ScopeOptions{Programs: query.Programs},
		})
		if err != nil {
			return TestResult{}, fmt.Errorf("query %q failed: %w", query.Prompt, err)
		}
		var ranked []string
		for _, set := range result.PromptMatches {
			for _, m := range set.Matches {
				ranked = append(ranked, m.Identifiers["Name"])
			}
		}
		r.logger.Debug("ranked query", "prompt", query.Prompt, "ranking", ranked)
		rankings = append(rankings, ranked)
	}

	result := r.metrics.EvaluateTest(scenario, rankings, r.k)
	result.Details["build_ms"] = buildTime.Milliseconds()
	result.Details["query_ms"] = time.Since(start).Milliseconds()
	result.Details["model"] = r.cfg.Model()
	return result, nil
}

// RunAllTests runs every built-in scenario
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// ExportResults exports test results to JSON
func ExportResults(results []TestResult, outputPath string) error {
	passed := 0
	for _, result := range results {
		if result.Status == "PASS" {
			passed++
		}
	}
	summary := map[string]interface{}{
		"timestamp":   time.Now().Format(time.RFC3339),
		"total_tests": len(results),
		"passed":      passed,
		"failed":      len(results) - passed,
		"results":     results,
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := storage.WriteFileAtomic(outputPath, jsonData); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
