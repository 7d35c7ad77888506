package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarklabs/ragline/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [s3://bucket/key | file]...",
	Short: "Ingest documents into the vector store",
	Long: `Ingest splits each document into chunks, embeds them, and writes
them to the configured vector store. Arguments are S3 URIs or local file
paths. Re-ingesting a document overwrites its chunks in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	var errs []error
	for _, arg := range args {
		count, err := ingestOne(ctx, a, arg)
		if err != nil {
			logger.Error("ingestion failed", "document", arg, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", arg, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks\n", arg, count)
	}
	return errors.Join(errs...)
}

// ingestOne routes a single argument to the S3 or local-file path.
func ingestOne(ctx context.Context, a *app.App, arg string) (int, error) {
	if bucket, key, ok := splitS3URI(arg); ok {
		return a.Ingestion.ProcessObject(ctx, bucket, key)
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}
	return a.Ingestion.IngestText(ctx, arg, string(data))
}

// splitS3URI parses "s3://bucket/key" into its parts.
func splitS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
