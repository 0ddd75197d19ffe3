// Package session tracks live document sessions. A session binds an uploaded
// document blob, its vector-store namespace, and the metadata needed for
// teardown. Registries come in two flavours: an in-memory one for the server
// (sessions die with the process) and a SQLite-backed one so the CLI can
// ingest in one invocation and ask or delete in another.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by registry lookups and removals when no session
// exists for the given ID.
var ErrNotFound = errors.New("session: not found")

// Session describes one uploaded document. The ID doubles as the
// vector-store namespace for the document's chunks.
type Session struct {
	// ID is the session identifier, a UUID generated at upload time.
	ID string
	// StorageRef is the opaque blob-store reference for the uploaded file.
	StorageRef string
	// Filename is the client-supplied name of the uploaded file.
	Filename string
	// CreatedAt is when the session was registered.
	CreatedAt time.Time
}

// Registry persists sessions. Implementations must be safe for concurrent
// use and must return [ErrNotFound] from Lookup and Remove for unknown IDs.
type Registry interface {
	// Insert registers a new session.
	Insert(ctx context.Context, s Session) error
	// Lookup returns the session with the given ID.
	Lookup(ctx context.Context, id string) (Session, error)
	// Remove deletes the session with the given ID.
	Remove(ctx context.Context, id string) error
	// Close releases any resources held by the registry.
	Close() error
}
