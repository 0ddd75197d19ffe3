// Package pipeline implements the three session-scoped document flows:
// ingestion (upload → extract → chunk → embed → index), answering
// (retrieve → prompt → generate), and teardown (destroy blob → delete
// namespace → unregister). Each flow is a small orchestrator over the
// storage, extraction, chunking, embedding, vector-store, and registry
// collaborators, which are injected as interfaces so tests can run the
// full flows against fakes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/54b3r/pdfchat-go/internal/chunker"
	"github.com/54b3r/pdfchat-go/internal/extract"
	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/rag"
	"github.com/54b3r/pdfchat-go/internal/session"
	"github.com/54b3r/pdfchat-go/internal/storage"
)

// ErrNoReadableText indicates extraction produced no text — typically a
// scanned or image-only PDF.
var ErrNoReadableText = errors.New("pipeline: no readable text found in document")

// IngestConfig holds the tunable parameters of the ingestion flow.
type IngestConfig struct {
	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to chunker.DefaultChunkSize if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters shared between consecutive
	// chunks. Zero means no overlap.
	ChunkOverlap int
}

// IngestResult reports what a successful ingestion produced.
type IngestResult struct {
	// SessionID identifies the new session; it doubles as the vector-store
	// namespace holding the document's chunks.
	SessionID string
	// Filename is the name recorded for the uploaded document.
	Filename string
	// Chunks is the number of chunks indexed.
	Chunks int
}

// Ingestor runs the upload flow: persist the raw blob, extract its text,
// chunk, embed, index under a fresh session namespace, and register the
// session for later answering and teardown.
type Ingestor struct {
	blobs    storage.BlobStore
	embedder rag.Embedder
	store    rag.VectorStore
	registry session.Registry
	splitter *chunker.Splitter

	// extractorFor selects the extractor for a given filename. Overridden
	// in tests; defaults to PDF-or-plain selection by extension.
	extractorFor func(filename string) extract.Extractor
}

// NewIngestor constructs an Ingestor from its collaborators.
func NewIngestor(blobs storage.BlobStore, embedder rag.Embedder, store rag.VectorStore, registry session.Registry, cfg IngestConfig) (*Ingestor, error) {
	if blobs == nil {
		return nil, fmt.Errorf("pipeline: blob store must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("pipeline: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: vector store must not be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("pipeline: registry must not be nil")
	}

	pdf := extract.NewPDFExtractor()
	return &Ingestor{
		blobs:    blobs,
		embedder: embedder,
		store:    store,
		registry: registry,
		splitter: chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		extractorFor: func(filename string) extract.Extractor {
			return extract.ForFilename(filename, pdf)
		},
	}, nil
}

// Ingest runs the full upload flow and returns the new session. The blob is
// persisted before extraction so the original document survives even if a
// later stage fails; on failure the orphaned blob and any indexed chunks
// are destroyed best-effort.
func (in *Ingestor) Ingest(ctx context.Context, data []byte, filename string) (IngestResult, error) {
	if filename == "" {
		filename = "unnamed.pdf"
	}
	sessionID := uuid.NewString()
	log := logging.FromContext(ctx).With(
		slog.String("session_id", sessionID),
		slog.String("filename", filename),
	)

	ref, err := in.blobs.Store(ctx, data, filename)
	if err != nil {
		return IngestResult{}, fmt.Errorf("pipeline: store blob: %w", err)
	}

	text, err := in.extractorFor(filename).Extract(ctx, data, filename)
	if err != nil {
		in.destroyBlob(ctx, log, ref)
		return IngestResult{}, fmt.Errorf("pipeline: extract text: %w", err)
	}
	if text == "" {
		in.destroyBlob(ctx, log, ref)
		return IngestResult{}, ErrNoReadableText
	}

	chunks := in.splitter.Split(text)
	if len(chunks) == 0 {
		in.destroyBlob(ctx, log, ref)
		return IngestResult{}, ErrNoReadableText
	}

	embeddings, err := in.embedder.Embed(ctx, chunks)
	if err != nil {
		in.destroyBlob(ctx, log, ref)
		return IngestResult{}, fmt.Errorf("pipeline: embed %d chunks: %w", len(chunks), err)
	}

	docs := make([]rag.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, rag.Document{
			ID:      uuid.NewString(),
			Content: chunk,
			Metadata: map[string]string{
				"filename":    filename,
				"chunk_index": fmt.Sprintf("%d", i),
			},
		})
	}

	if err := in.store.Upsert(ctx, sessionID, docs, embeddings); err != nil {
		in.destroyBlob(ctx, log, ref)
		return IngestResult{}, fmt.Errorf("pipeline: upsert %d chunks: %w", len(docs), err)
	}

	s := session.Session{
		ID:         sessionID,
		StorageRef: ref,
		Filename:   filename,
		CreatedAt:  time.Now(),
	}
	if err := in.registry.Insert(ctx, s); err != nil {
		// Roll back the indexed chunks as well — an unregistered session
		// can never be torn down through the API.
		if derr := in.store.DeleteNamespace(ctx, sessionID); derr != nil {
			log.Warn("rollback: failed to delete namespace", slog.Any("error", derr))
		}
		in.destroyBlob(ctx, log, ref)
		return IngestResult{}, fmt.Errorf("pipeline: register session: %w", err)
	}

	log.Info("document ingested", slog.Int("chunks", len(docs)))
	return IngestResult{SessionID: sessionID, Filename: filename, Chunks: len(docs)}, nil
}

// destroyBlob removes an orphaned blob after a failed ingestion. Failure to
// clean up is logged but never surfaced — the caller's original error matters
// more than the leak.
func (in *Ingestor) destroyBlob(ctx context.Context, log *slog.Logger, ref string) {
	if err := in.blobs.Destroy(ctx, ref); err != nil {
		log.Warn("rollback: failed to destroy blob", slog.String("ref", ref), slog.Any("error", err))
	}
}
