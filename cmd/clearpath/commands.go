package main

import (
	"github.com/spf13/cobra"
)

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Load the corpus and serve the chat, search and session endpoints.

The corpus must exist; run "clearpath ingest" first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func buildIngestCmd() *cobra.Command {
	var docsDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed and store the documentation corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), docsDir)
		},
	}
	cmd.Flags().StringVar(&docsDir, "docs", "", "Documentation directory (default: CORPUS_DOCS_DIR)")

	return cmd
}

func buildEvalCmd() *cobra.Command {
	var casesPath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the evaluation cases against the answer pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), cmd.OutOrStdout(), casesPath)
		},
	}
	cmd.Flags().StringVar(&casesPath, "cases", "", "YAML case file (default: EVAL_CASES_FILE or the built-in set)")

	return cmd
}
