// Package cmd provides CLI commands for ragline.
//
// Commands:
//   - serve: HTTP API server exposing POST /query
//   - ingest: ingest documents from S3 or local files
//   - ask: one-shot question against the indexed corpus
//   - lambda: AWS Lambda entrypoints (ingest and query handlers)
//
// Signal handling and graceful shutdown are implemented for long-running
// commands via context cancellation.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarklabs/ragline/internal/config"
	"github.com/quarklabs/ragline/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Retrieval-augmented document search and question answering",
	Long: `ragline ingests documents into a vector store and answers
questions grounded in the indexed content.

Documents are split into chunks, embedded with Amazon Bedrock, and stored
in OpenSearch or Pinecone. Queries retrieve the closest chunks and generate
an answer that cites its sources.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the ragline CLI.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and builds the logger every command shares.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	logger := log.New(log.Config{Level: level, JSON: cfg.LogJSON})
	return cfg, logger, nil
}
