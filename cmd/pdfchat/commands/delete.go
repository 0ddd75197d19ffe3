package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/session"
)

// NewDeleteCmd constructs the `pdfchat delete` command, which tears down a
// session: the stored document, its index entries, and the session record.
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a session and all its stored data",
		Long: `Delete a session created by 'pdfchat ingest' or the upload API.

Removes the stored document blob, the session's vector index entries, and the
session record. The operation is safe to retry: a partially deleted session
can be deleted again until every resource is gone.

Examples:
  pdfchat delete 7f3c9a12-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			store, closeStore, err := buildVectorStore(ctx)
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			defer closeStore()

			blobs, err := buildBlobStore(ctx, log)
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}

			registry, err := buildRegistry(log)
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			defer func() { _ = registry.Close() }()

			td, err := pipeline.NewTeardown(blobs, store, registry, session.NewKeyedMutex())
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}

			if err := td.Delete(ctx, args[0]); err != nil {
				if errors.Is(err, session.ErrNotFound) {
					return fmt.Errorf("delete: session %s not found", args[0])
				}
				return fmt.Errorf("delete: %w", err)
			}

			fmt.Println("Session deleted successfully")
			return nil
		},
	}

	return cmd
}
