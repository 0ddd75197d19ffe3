package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/rag"
	"github.com/54b3r/pdfchat-go/internal/session"
	"github.com/54b3r/pdfchat-go/internal/storage"
)

// Teardown destroys everything a session owns: the stored blob, the vector
// namespace, and finally the registry entry. The registry entry is removed
// last so a failed teardown leaves the session resolvable and the whole
// operation retriable.
type Teardown struct {
	blobs    storage.BlobStore
	store    rag.VectorStore
	registry session.Registry
	locks    *session.KeyedMutex
}

// NewTeardown constructs a Teardown from its collaborators. locks may be
// shared with other flows so teardown never interleaves with answering on
// the same session.
func NewTeardown(blobs storage.BlobStore, store rag.VectorStore, registry session.Registry, locks *session.KeyedMutex) (*Teardown, error) {
	if blobs == nil {
		return nil, fmt.Errorf("pipeline: blob store must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: vector store must not be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("pipeline: registry must not be nil")
	}
	if locks == nil {
		locks = session.NewKeyedMutex()
	}
	return &Teardown{blobs: blobs, store: store, registry: registry, locks: locks}, nil
}

// Delete tears down sessionID. Unknown sessions surface session.ErrNotFound
// unchanged. Any stage failure aborts before the registry entry is removed,
// so a retry re-runs the remaining stages (both blob destruction and
// namespace deletion are idempotent).
func (t *Teardown) Delete(ctx context.Context, sessionID string) error {
	t.locks.Lock(sessionID)
	defer t.locks.Unlock(sessionID)

	s, err := t.registry.Lookup(ctx, sessionID)
	if err != nil {
		return err
	}

	log := logging.FromContext(ctx).With(slog.String("session_id", sessionID))

	if err := t.blobs.Destroy(ctx, s.StorageRef); err != nil {
		return fmt.Errorf("pipeline: destroy blob %s: %w", s.StorageRef, err)
	}
	if err := t.store.DeleteNamespace(ctx, sessionID); err != nil {
		return fmt.Errorf("pipeline: delete namespace: %w", err)
	}
	if err := t.registry.Remove(ctx, sessionID); err != nil {
		return fmt.Errorf("pipeline: remove session: %w", err)
	}

	log.Info("session deleted", slog.String("filename", s.Filename))
	return nil
}
