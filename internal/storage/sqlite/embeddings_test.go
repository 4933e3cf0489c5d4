// ABOUTME: Tests for the prompt embedding cache
// ABOUTME: Verifies BLOB round trips, misses, replacement, and purge
package sqlite

import (
	"context"
	"testing"
)

func TestVectorBlobRoundTrip(t *testing.T) {
	vector := []float32{0.1, -2.5, 3.25, 0}
	got := blobToVector(vectorToBlob(vector))
	if len(got) != len(vector) {
		t.Fatalf("len = %d, want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], vector[i])
		}
	}
}

func TestPromptCache(t *testing.T) {
	store, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	got, err := store.CachedEmbedding(ctx, "m", "protein folding")
	if err != nil {
		t.Fatalf("CachedEmbedding() miss error = %v", err)
	}
	if got != nil {
		t.Errorf("CachedEmbedding() miss = %v, want nil", got)
	}

	if err := store.CacheEmbedding(ctx, "m", "protein folding", []float32{1, 2, 3}); err != nil {
		t.Fatalf("CacheEmbedding() error = %v", err)
	}
	if err := store.CacheEmbedding(ctx, "m", "protein folding", []float32{4, 5}); err != nil {
		t.Fatalf("CacheEmbedding() replace error = %v", err)
	}

	got, err = store.CachedEmbedding(ctx, "m", "protein folding")
	if err != nil {
		t.Fatalf("CachedEmbedding() error = %v", err)
	}
	if len(got) != 2 || got[0] != 4 {
		t.Errorf("CachedEmbedding() = %v, want [4 5]", got)
	}

	other, err := store.CachedEmbedding(ctx, "other-model", "protein folding")
	if err != nil {
		t.Fatalf("CachedEmbedding() error = %v", err)
	}
	if other != nil {
		t.Error("cache should be keyed by model")
	}

	if n, _ := store.CacheSize(ctx); n != 1 {
		t.Errorf("CacheSize() = %d, want 1", n)
	}
	removed, err := store.PurgeCache(ctx)
	if err != nil {
		t.Fatalf("PurgeCache() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PurgeCache() removed %d, want 1", removed)
	}
}

func TestCacheEmbeddingRejectsEmpty(t *testing.T) {
	store, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.CacheEmbedding(context.Background(), "m", "x", nil); err == nil {
		t.Error("CacheEmbedding(nil) should fail")
	}
}

func TestTextHashStable(t *testing.T) {
	if TextHash("a") != TextHash("a") {
		t.Error("TextHash is not deterministic")
	}
	if TextHash("a") == TextHash("b") {
		t.Error("TextHash collided for different inputs")
	}
}
