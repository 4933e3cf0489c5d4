// ABOUTME: Tests for the unified SQLite storage facade
// ABOUTME: Verifies opening on disk and reopening persisted data
package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStorageReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), DBFileName)
	ctx := context.Background()

	store, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
	if err := store.SaveMetadata(ctx, sampleMetadata()); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage() reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	meta, err := reopened.LoadMetadata(ctx)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta == nil || len(meta.Memberships) != 2 {
		t.Errorf("LoadMetadata() after reopen = %+v", meta)
	}
}
