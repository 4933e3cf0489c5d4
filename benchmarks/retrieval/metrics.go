// ABOUTME: Ranking metrics for the retrieval benchmark
// ABOUTME: Computes hit rate at 1 and k plus mean reciprocal rank per scenario

package retrieval

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum hit@k rate for a scenario to pass.
const PassThreshold = 0.8

// MetricsCalculator scores ranked faculty lists against expected matches
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// Rank returns the 1-based position of expected in ranked, or 0 when absent.
func (m *MetricsCalculator) Rank(ranked []string, expected string) int {
	for i, name := range ranked {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(expected)) {
			return i + 1
		}
	}
	return 0
}

// EvaluateTest scores one scenario. rankings[i] holds the ranked faculty
// names returned for scenario.Queries[i].
func (m *MetricsCalculator) EvaluateTest(scenario Scenario, rankings [][]string, k int) TestResult {
	result := TestResult{
		TestID:   scenario.ID,
		TestName: scenario.Name,
		K:        k,
		Status:   "FAIL",
		Details:  map[string]interface{}{"queries": len(scenario.Queries)},
	}
	if len(scenario.Queries) == 0 {
		result.ErrorMessage = "scenario has no queries"
		return result
	}

	var hits1, hitsK int
	var reciprocal float64
	var misses []string
	for i, query := range scenario.Queries {
		var ranked []string
		if i < len(rankings) {
			ranked = rankings[i]
		}
		rank := m.Rank(ranked, query.Expected)
		switch {
		case rank == 1:
			hits1++
			fallthrough
		case rank > 0 && rank <= k:
			hitsK++
		}
		if rank > 0 {
			reciprocal += 1 / float64(rank)
		}
		if rank != 1 {
			misses = append(misses, fmt.Sprintf("%q expected %s, rank %d", truncate(query.Prompt, 40), query.Expected, rank))
		}
	}

	n := float64(len(scenario.Queries))
	result.HitAt1 = float64(hits1) / n
	result.HitAtK = float64(hitsK) / n
	result.MRR = reciprocal / n
	if result.HitAtK >= PassThreshold {
		result.Status = "PASS"
	}
	result.Details["misses"] = misses
	return result
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
