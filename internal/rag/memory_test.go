package rag

import (
	"context"
	"math"
	"testing"
)

func TestMemoryStore_SearchRanksBySimilarity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	docs := []Document{
		{ID: "a", Content: "about rivers"},
		{ID: "b", Content: "about mountains"},
		{ID: "c", Content: "about cities"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	if err := store.Upsert(ctx, "ns", docs, embeddings); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Search(ctx, "ns", []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "a" {
		t.Errorf("top result: got %q, want %q", got[0].ID, "a")
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("results not ranked: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestMemoryStore_NamespaceIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Upsert(ctx, "one", []Document{{ID: "a"}}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, "two", []Document{{ID: "b"}}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Search(ctx, "one", []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("namespace one: got %v, want only doc a", got)
	}

	if err := store.DeleteNamespace(ctx, "one"); err != nil {
		t.Fatal(err)
	}
	if n := store.Count("one"); n != 0 {
		t.Errorf("namespace one after delete: %d entries", n)
	}
	if n := store.Count("two"); n != 1 {
		t.Errorf("namespace two should be untouched, has %d entries", n)
	}
}

func TestMemoryStore_UpsertLengthMismatch(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	err := store.Upsert(context.Background(), "ns", []Document{{ID: "a"}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched docs/embeddings")
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := cosine(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}
