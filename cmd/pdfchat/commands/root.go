// Package commands defines all Cobra CLI commands for the pdfchat binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/54b3r/pdfchat-go/internal/audit"
	"github.com/54b3r/pdfchat-go/internal/config"
	"github.com/54b3r/pdfchat-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfchat",
		Short: "pdfchat — session-scoped chat with your PDF documents",
		Long: `pdfchat lets you upload a PDF and ask questions answered strictly from
its contents.

Each upload creates an isolated session: the document is chunked, embedded,
and indexed under a unique session ID. Questions retrieve the most relevant
chunks and the model answers only from those excerpts. Deleting a session
removes the stored document, its index entries, and the session record.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.pdfchat/config.yaml).
See 'pdfchat --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A .env file in the working directory is a convenience for
			// local development; absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.pdfchat/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewDeleteCmd(),
		NewVersionCmd(),
	)

	return root
}
