// Package rag defines the interfaces for retrieval-augmented generation
// components: namespaced vector storage and embedding.
// Concrete implementations (Qdrant, in-memory) satisfy these interfaces so
// the pipeline layer never depends on a specific backend.
//
// A namespace is an isolated partition within the vector backend: chunks
// indexed under one namespace are never returned for a query against another.
// The pipeline uses one namespace per uploaded document session.
package rag

import (
	"context"
)

// Document represents a unit of indexed or retrieved knowledge — one chunk
// of an uploaded document's extracted text.
type Document struct {
	// ID is the unique identifier for this chunk.
	ID string

	// Content is the raw text content of the chunk.
	Content string

	// Metadata holds arbitrary key-value pairs (filename, chunk index, etc.).
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval (0.0–1.0).
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings
// partitioned by namespace. Implementations must be safe to call from
// multiple goroutines.
type VectorStore interface {
	// Upsert stores a batch of documents with their pre-computed embeddings
	// under the given namespace. The embeddings slice must be parallel to
	// docs — embeddings[i] is the vector for docs[i].
	Upsert(ctx context.Context, namespace string, docs []Document, embeddings [][]float32) error

	// Search performs a cosine similarity search restricted to the given
	// namespace and returns the top-k most relevant documents.
	Search(ctx context.Context, namespace string, queryEmbedding []float32, topK int) ([]Document, error)

	// DeleteNamespace removes every document stored under the namespace.
	// Deleting a namespace that holds no documents is not an error.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// The same Embedder instance must be used at ingestion and at query time so
// question vectors live in the same space as chunk vectors.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
