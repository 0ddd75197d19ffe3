// Package storage persists uploaded document blobs for the lifetime of a
// session. Two implementations are provided: [DiskStore] for local
// development and [S3Store] for shared deployments (AWS S3 or any
// S3-compatible endpoint such as MinIO).
//
// A stored blob is identified by an opaque reference string returned from
// Store and later passed to Destroy during session teardown. Callers never
// interpret the reference — for the disk store it is a filesystem path, for
// the S3 store it is an object key.
package storage

import "context"

// BlobStore stores and destroys uploaded document blobs.
type BlobStore interface {
	// Store persists data and returns an opaque reference used for
	// eventual destruction. The filename is advisory — implementations
	// may use it to derive an extension or content type but must not
	// trust it as a unique key.
	Store(ctx context.Context, data []byte, filename string) (string, error)

	// Destroy removes the blob identified by ref. Destroying a reference
	// that no longer exists is not an error — teardown must be retriable.
	Destroy(ctx context.Context, ref string) error
}

// Pinger is implemented by stores that can verify connectivity to their
// backing service. The readiness endpoint probes it when available.
type Pinger interface {
	Ping(ctx context.Context) error
}
