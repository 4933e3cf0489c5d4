// ABOUTME: Tests for index build history
// ABOUTME: Verifies recording and newest-first listing
package sqlite

import (
	"context"
	"testing"

	"github.com/harper/facultymatch/internal/models"
)

func TestRecordAndListBuilds(t *testing.T) {
	store, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	skipped := 2
	first := &models.EmbeddingIndex{Model: "model-a", Dimension: 4, TotalRows: 10, EmbeddedRows: 8, SkippedRows: &skipped}
	second := &models.EmbeddingIndex{Model: "model-b", Dimension: 8, TotalRows: 3, EmbeddedRows: 3}

	rec, err := store.RecordBuild(ctx, first, "/tmp/index.json")
	if err != nil {
		t.Fatalf("RecordBuild() error = %v", err)
	}
	if rec.ID == "" {
		t.Error("RecordBuild() returned empty ID")
	}
	if rec.SkippedRows != 2 {
		t.Errorf("SkippedRows = %d, want 2", rec.SkippedRows)
	}
	if _, err := store.RecordBuild(ctx, second, ""); err != nil {
		t.Fatalf("RecordBuild() error = %v", err)
	}

	builds, err := store.RecentBuilds(ctx, 10)
	if err != nil {
		t.Fatalf("RecentBuilds() error = %v", err)
	}
	if len(builds) != 2 {
		t.Fatalf("len(builds) = %d, want 2", len(builds))
	}
	if builds[0].Model != "model-b" {
		t.Errorf("builds[0].Model = %q, want newest first", builds[0].Model)
	}
	if builds[1].Path != "/tmp/index.json" {
		t.Errorf("builds[1].Path = %q", builds[1].Path)
	}

	limited, err := store.RecentBuilds(ctx, 1)
	if err != nil {
		t.Fatalf("RecentBuilds(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(RecentBuilds(1)) = %d, want 1", len(limited))
	}
}
