// Package main provides the clearpath CLI.
//
// Start the HTTP server:
//
//	clearpath serve
//
// Build the corpus from a documentation directory:
//
//	clearpath ingest --docs ./docs
//
// Replay the evaluation cases against the live pipeline:
//
//	clearpath eval --cases cases.yaml
//
// Configuration comes from the environment (and an optional .env file).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/config"
	"github.com/upb/clearpath-assistant/internal/observability"
)

// Build information, set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clearpath",
		Short: "ClearPath documentation assistant",
		Long: `Answers questions about the ClearPath documentation using retrieval
over an embedded corpus and a hosted language model.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildIngestCmd(),
		buildEvalCmd(),
	)

	return rootCmd
}

// bootstrap loads configuration and builds the logger shared by all commands.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}
