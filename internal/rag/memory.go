package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory VectorStore using brute-force cosine similarity.
// It exists for local development and tests — state is lost on process exit.
// Namespaces are independent slices, so isolation between sessions holds by
// construction.
type MemoryStore struct {
	// mu protects namespaces.
	mu sync.RWMutex

	// namespaces maps a namespace key to its stored entries.
	namespaces map[string][]memoryEntry
}

// memoryEntry pairs one stored document with its embedding.
type memoryEntry struct {
	doc       Document
	embedding []float32
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string][]memoryEntry)}
}

// Upsert stores the documents and their embeddings under the namespace.
func (s *MemoryStore) Upsert(_ context.Context, namespace string, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("memory store: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range docs {
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		s.namespaces[namespace] = append(s.namespaces[namespace], memoryEntry{doc: doc, embedding: vec})
	}
	return nil
}

// Search returns the top-k entries of the namespace ranked by cosine
// similarity to the query embedding. An unknown namespace yields no results.
func (s *MemoryStore) Search(_ context.Context, namespace string, queryEmbedding []float32, topK int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.namespaces[namespace]
	scored := make([]Document, 0, len(entries))
	for _, e := range entries {
		doc := e.doc
		doc.Score = cosine(e.embedding, queryEmbedding)
		scored = append(scored, doc)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// DeleteNamespace drops every entry stored under the namespace.
func (s *MemoryStore) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.namespaces, namespace)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// Count returns the number of entries stored under the namespace.
// Used by tests to assert teardown left nothing behind.
func (s *MemoryStore) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

// cosine computes the cosine similarity of two vectors. Mismatched lengths
// are compared over the shorter prefix; zero vectors score zero.
func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
