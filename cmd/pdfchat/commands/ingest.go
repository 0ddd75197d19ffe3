package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/54b3r/pdfchat-go/internal/embedder"
	"github.com/54b3r/pdfchat-go/internal/extract"
	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/pipeline"
)

// NewIngestCmd constructs the `pdfchat ingest` command, which uploads a local
// PDF into a new session from the command line.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Index a local PDF and print its session ID",
		Long: `Index a local PDF file into the vector store and create a new session.

The printed session ID is the handle for 'pdfchat ask' and 'pdfchat delete'.
Sessions created here are stored in the shared session database, so a running
'pdfchat serve' instance pointed at the same database and Qdrant collection
can answer against them too.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: pdfchat-docs)
  EMBEDDING_*          Embedding backend overrides (see README)

Examples:
  pdfchat ingest report.pdf
  pdfchat ingest --config prod.yaml quarterly-results.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("ingest: failed to read %s: %w", path, err)
			}

			if err := extract.CheckAvailable(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n%s\n", err, extract.InstallInstructions())
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}

			store, closeStore, err := buildVectorStore(ctx)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer closeStore()

			blobs, err := buildBlobStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			registry, err := buildRegistry(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = registry.Close() }()

			ing, err := pipeline.NewIngestor(blobs, emb, store, registry, ingestConfigFromEnv())
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			result, err := ing.Ingest(ctx, data, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			log.Info("document indexed",
				slog.String("session_id", result.SessionID),
				slog.String("filename", result.Filename),
				slog.Int("chunks", result.Chunks),
			)
			fmt.Println(result.SessionID)
			return nil
		},
	}

	return cmd
}
