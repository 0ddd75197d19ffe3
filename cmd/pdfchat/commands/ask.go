package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/pdfchat-go/internal/embedder"
	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/provider"
)

// NewAskCmd constructs the `pdfchat ask` command, which answers a single
// question against a previously ingested document.
func NewAskCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against an uploaded document",
		Long: `Ask a natural language question against a session's document.

The answer is grounded strictly in the document: if the retrieved excerpts do
not contain the answer, the model says so instead of guessing.

Examples:
  pdfchat ask --session 7f3c... "What was the total revenue in 2024?"
  SESSION=$(pdfchat ingest report.pdf) && pdfchat ask --session "$SESSION" "Who wrote this?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if sessionID == "" {
				return fmt.Errorf("ask: --session is required")
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ask: failed to initialise embedder: %w", err)
			}

			store, closeStore, err := buildVectorStore(ctx)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeStore()

			registry, err := buildRegistry(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = registry.Close() }()

			ans, err := pipeline.NewAnswerer(emb, store, registry, chatModel, nil,
				getEnvInt("RETRIEVAL_TOP_K", pipeline.DefaultTopK),
				getEnvInt("MAX_CONTEXT_TOKENS", 0),
			)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			answer, err := ans.Answer(ctx, sessionID, args[0])
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID returned by upload/ingest")

	return cmd
}
