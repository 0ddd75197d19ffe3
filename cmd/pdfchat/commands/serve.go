package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/54b3r/pdfchat-go/internal/embedder"
	"github.com/54b3r/pdfchat-go/internal/extract"
	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/provider"
	"github.com/54b3r/pdfchat-go/internal/rag"
	"github.com/54b3r/pdfchat-go/internal/server"
	"github.com/54b3r/pdfchat-go/internal/session"
	"github.com/54b3r/pdfchat-go/internal/storage"
	"github.com/54b3r/pdfchat-go/internal/tracing"
)

// NewServeCmd constructs the `pdfchat serve` command, which starts the HTTP
// document chat API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pdfchat HTTP API server",
		Long: `Start the pdfchat HTTP server.

The server exposes the document chat API:
  POST   /upload   Upload a PDF and create a new session
  GET    /ask      Ask a question against an uploaded document
  DELETE /delete   Tear down a session and all its data
  GET    /health   Liveness probe
  GET    /ready    Readiness probe (checks Qdrant, embedder, storage)
  GET    /metrics  Prometheus metrics

Examples:
  pdfchat serve
  pdfchat serve --port 9000
  MODEL_PROVIDER=ollama pdfchat serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			host, port = resolveBind(host, port,
				cmd.Flags().Changed("host"), cmd.Flags().Changed("port"))

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			if err := extract.CheckAvailable(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n%s\n", err, extract.InstallInstructions())
			}

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			store, closeStore, err := buildVectorStore(ctx)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeStore()

			blobs, err := buildBlobStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			registry, err := buildRegistry(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = registry.Close() }()

			ing, err := pipeline.NewIngestor(blobs, emb, store, registry, ingestConfigFromEnv())
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			// One mutex for both flows, so an in-flight answer and a
			// teardown on the same session never interleave.
			locks := session.NewKeyedMutex()
			ans, err := pipeline.NewAnswerer(emb, store, registry, chatModel, locks,
				getEnvInt("RETRIEVAL_TOP_K", pipeline.DefaultTopK),
				getEnvInt("MAX_CONTEXT_TOKENS", 0),
			)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			td, err := pipeline.NewTeardown(blobs, store, registry, locks)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := buildPingers(store, emb, blobs)

			srv, err := server.New(ing, ans, td, &server.Config{
				Host:        host,
				Port:        port,
				Logger:      log,
				Pingers:     pingers,
				APIKey:      os.Getenv("PDFCHAT_API_KEY"),
				CORSOrigins: splitOrigins(os.Getenv("CORS_ORIGINS")),
				RateLimit:   float64(getEnvInt("RATE_LIMIT", 0)),
				RateBurst:   getEnvInt("RATE_BURST", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on")

	return cmd
}

// buildPingers assembles the readiness probes for the serve command.
// Probes that cannot be constructed (e.g. an embedder with no health
// endpoint) are omitted rather than failing startup.
func buildPingers(store *rag.QdrantStore, emb rag.Embedder, blobs storage.BlobStore) []server.Pinger {
	pingers := []server.Pinger{server.NewQdrantPinger(store.Client())}

	if oe, ok := emb.(*embedder.OllamaEmbedder); ok {
		pingers = append(pingers, server.NewEmbedderPinger("ollama", oe.Ping))
	}
	if p, ok := blobs.(storage.Pinger); ok {
		pingers = append(pingers, server.NewStoragePinger("storage", p))
	}
	return pingers
}

// splitOrigins parses the comma-separated CORS_ORIGINS value.
func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
