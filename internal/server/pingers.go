package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/pdfchat-go/internal/storage"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// EmbedderPinger probes an embedding backend that exposes its own
// reachability check (the Ollama embedder does).
type EmbedderPinger struct {
	// ping is the backend's probe function.
	ping func(ctx context.Context) error
	// name identifies the backend in readiness responses.
	name string
}

// NewEmbedderPinger wraps a backend probe function as a Pinger.
func NewEmbedderPinger(name string, ping func(ctx context.Context) error) *EmbedderPinger {
	return &EmbedderPinger{ping: ping, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *EmbedderPinger) Name() string { return p.name }

// Ping delegates to the wrapped probe function.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	if err := p.ping(ctx); err != nil {
		return fmt.Errorf("embedder unreachable: %w", err)
	}
	return nil
}

// StoragePinger probes a blob store that implements [storage.Pinger].
type StoragePinger struct {
	// store is the blob store to probe.
	store storage.Pinger
	// name identifies the store in readiness responses (e.g. "s3", "disk").
	name string
}

// NewStoragePinger constructs a StoragePinger for the given store and label.
func NewStoragePinger(name string, store storage.Pinger) *StoragePinger {
	return &StoragePinger{store: store, name: name}
}

// Name returns the store label used in readiness responses.
func (p *StoragePinger) Name() string { return p.name }

// Ping delegates to the store's own reachability check.
func (p *StoragePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("blob store unreachable: %w", err)
	}
	return nil
}
