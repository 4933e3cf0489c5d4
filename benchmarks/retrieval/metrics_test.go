// ABOUTME: Tests for retrieval benchmark metrics
// ABOUTME: Verifies rank lookup, hit rates, reciprocal rank, and pass status

package retrieval

import (
	"math"
	"testing"
)

func TestRank(t *testing.T) {
	m := NewMetricsCalculator()
	ranked := []string{"Ada Lovelace", "Ben Carter", "Chen Wu"}

	tests := []struct {
		expected string
		want     int
	}{
		{"Ada Lovelace", 1},
		{"chen wu", 3},
		{" Ben Carter ", 2},
		{"Dana Ortiz", 0},
	}
	for _, tt := range tests {
		if got := m.Rank(ranked, tt.expected); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.expected, got, tt.want)
		}
	}
}

func TestEvaluateTest(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := Scenario{
		ID:   "s",
		Name: "sample",
		Queries: []Query{
			{Prompt: "a", Expected: "A"},
			{Prompt: "b", Expected: "B"},
			{Prompt: "c", Expected: "C"},
			{Prompt: "d", Expected: "D"},
		},
	}
	rankings := [][]string{
		{"A", "B"},
		{"A", "B"},
		{"A", "B", "C"},
		{"A"},
	}

	result := m.EvaluateTest(scenario, rankings, 2)

	if result.HitAt1 != 0.25 {
		t.Errorf("HitAt1 = %v, want 0.25", result.HitAt1)
	}
	if result.HitAtK != 0.5 {
		t.Errorf("HitAtK = %v, want 0.5", result.HitAtK)
	}
	wantMRR := (1 + 0.5 + 1.0/3) / 4
	if math.Abs(result.MRR-wantMRR) > 1e-9 {
		t.Errorf("MRR = %v, want %v", result.MRR, wantMRR)
	}
	if result.Status != "FAIL" {
		t.Errorf("Status = %q, want FAIL", result.Status)
	}
	if misses, ok := result.Details["misses"].([]string); !ok || len(misses) != 3 {
		t.Errorf("misses = %v", result.Details["misses"])
	}
}

func TestEvaluateTest_PassAndEmpty(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := Scenario{Queries: []Query{{Prompt: "a", Expected: "A"}}}

	if got := m.EvaluateTest(scenario, [][]string{{"A"}}, 1); got.Status != "PASS" || got.MRR != 1 {
		t.Errorf("unexpected result %+v", got)
	}
	if got := m.EvaluateTest(scenario, nil, 1); got.Status != "FAIL" || got.HitAtK != 0 {
		t.Errorf("missing rankings should fail, got %+v", got)
	}
	if got := m.EvaluateTest(Scenario{}, nil, 1); got.ErrorMessage == "" {
		t.Error("expected error message for empty scenario")
	}
}

func TestBuiltInScenarios(t *testing.T) {
	for _, scenario := range GetAllTests() {
		names := make(map[string]bool)
		programs := make(map[string]bool)
		for _, f := range scenario.Faculty {
			names[f.Name] = true
			programs[f.Program] = true
		}
		for _, q := range scenario.Queries {
			if !names[q.Expected] {
				t.Errorf("%s: expected faculty %q not in roster", scenario.ID, q.Expected)
			}
			for _, p := range q.Programs {
				if !programs[p] {
					t.Errorf("%s: program %q not in roster", scenario.ID, p)
				}
			}
		}
	}
}
