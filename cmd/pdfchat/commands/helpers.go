package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/54b3r/pdfchat-go/internal/embedder"
	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/rag"
	"github.com/54b3r/pdfchat-go/internal/session"
	"github.com/54b3r/pdfchat-go/internal/storage"
)

// buildVectorStore connects to Qdrant using env configuration and returns the
// store together with a close function. The collection's vector size is
// derived from the resolved embedding backend so the two cannot drift apart.
func buildVectorStore(ctx context.Context) (*rag.QdrantStore, func(), error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "pdfchat-docs")
	vectorSize := uint64(embedder.DefaultDimensions(embedder.ResolveBackend())) //nolint:gosec // dimensions are bounded

	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	return store, func() { _ = store.Close() }, nil
}

// buildBlobStore constructs the document blob store selected by
// STORAGE_PROVIDER: "s3" for AWS S3 (or an S3-compatible endpoint),
// anything else for the local disk store.
func buildBlobStore(ctx context.Context, log *slog.Logger) (storage.BlobStore, error) {
	switch getEnvOrDefault("STORAGE_PROVIDER", "disk") {
	case "s3":
		bucket := os.Getenv("S3_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("STORAGE_PROVIDER=s3 requires S3_BUCKET")
		}
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:   bucket,
			Prefix:   os.Getenv("S3_PREFIX"),
			Region:   os.Getenv("S3_REGION"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialise S3 store: %w", err)
		}
		log.Info("blob store ready", slog.String("provider", "s3"), slog.String("bucket", bucket))
		return store, nil
	default:
		dir := os.Getenv("STORAGE_DIR")
		store, err := storage.NewDiskStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise disk store: %w", err)
		}
		log.Info("blob store ready", slog.String("provider", "disk"))
		return store, nil
	}
}

// buildRegistry opens the SQLite session registry. PDFCHAT_SESSIONS_DB
// overrides the default path (~/.pdfchat/sessions.db); the special value
// "memory" selects the in-process registry, which does not survive restarts.
func buildRegistry(log *slog.Logger) (session.Registry, error) {
	path := os.Getenv("PDFCHAT_SESSIONS_DB")
	if path == "memory" {
		log.Info("session registry: in-memory (sessions lost on exit)")
		return session.NewMemoryRegistry(), nil
	}
	if path == "" {
		var err error
		path, err = session.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session database path: %w", err)
		}
	}
	reg, err := session.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database at %s: %w", path, err)
	}
	log.Info("session registry ready", slog.String("path", path))
	return reg, nil
}

// ingestConfigFromEnv reads chunking settings with the service defaults.
func ingestConfigFromEnv() pipeline.IngestConfig {
	return pipeline.IngestConfig{
		ChunkSize:    getEnvInt("CHUNK_SIZE", 0),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
	}
}

// resolveBind applies the SERVER_HOST and SERVER_PORT env vars (which the
// YAML config layer populates) when the corresponding flag was not set
// explicitly. Flags always win over config.
func resolveBind(host string, port int, hostSet, portSet bool) (string, int) {
	if !hostSet {
		if v := os.Getenv("SERVER_HOST"); v != "" {
			host = v
		}
	}
	if !portSet {
		port = getEnvInt("SERVER_PORT", port)
	}
	return host, port
}

// getEnvOrDefault returns the env var value or a fallback if unset/empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the env var parsed as int, or a fallback if unset or
// unparseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
