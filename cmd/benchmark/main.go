// ABOUTME: Command-line runner for retrieval quality benchmarks
// ABOUTME: Embeds built-in faculty rosters with the configured backend and reports hit rates as JSON

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/facultymatch/benchmarks/retrieval"
	"github.com/harper/facultymatch/internal/config"
	"github.com/harper/facultymatch/internal/core"
)

func main() {
	testID := flag.String("test", "", "Run specific scenario (domains, program_scope). If empty, runs all scenarios.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	k := flag.Int("k", 3, "Count a hit when the expected faculty member ranks within the top k")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level := cfg.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed, err := run(ctx, cfg, logger, *testID, *outputPath, *k)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, testID, outputPath string, k int) (int, error) {
	embedder, err := core.NewEmbedder(cfg, logger)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closer, ok := embedder.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()

	runner, err := retrieval.NewBenchmarkRunner(cfg, embedder, k, logger)
	if err != nil {
		return 0, err
	}

	fmt.Println("========================================")
	fmt.Printf("Faculty Match Retrieval Benchmarks (%s)\n", cfg.Model())
	fmt.Println("========================================")

	var results []retrieval.TestResult
	if testID == "" {
		results, err = runner.RunAllTests(ctx)
		if err != nil {
			return 0, err
		}
	} else {
		var scenario *retrieval.Scenario
		for _, s := range retrieval.GetAllTests() {
			if s.ID == testID {
				scenario = &s
				break
			}
		}
		if scenario == nil {
			return 0, fmt.Errorf("unknown scenario %q (valid options: domains, program_scope)", testID)
		}
		result, err := runner.RunTest(ctx, *scenario)
		if err != nil {
			return 0, err
		}
		results = []retrieval.TestResult{result}
	}

	failed := 0
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Hit@1: %.2f\n", result.HitAt1)
		fmt.Printf("  Hit@%d: %.2f\n", result.K, result.HitAtK)
		fmt.Printf("  MRR:   %.2f\n", result.MRR)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.Status != "PASS" {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total: %d  Passed: %d  Failed: %d\n", len(results), len(results)-failed, failed)
	fmt.Println("========================================")

	if err := retrieval.ExportResults(results, outputPath); err != nil {
		return failed, err
	}
	fmt.Printf("Results exported to: %s\n", outputPath)
	return failed, nil
}
