package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarklabs/ragline/internal/app"
)

var askSearchOnly bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askSearchOnly, "search-only", false, "return similarity results without generating an answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	question := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	if askSearchOnly {
		resp, err := a.Query.SearchOnly(ctx, question)
		if err != nil {
			return err
		}
		for _, d := range resp.Documents {
			fmt.Fprintf(out, "%.4f  %s#%d\n    %s\n", d.Score, d.Source, d.ChunkID, d.Content)
		}
		return nil
	}

	resp, err := a.Query.Answer(ctx, question)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, resp.Response)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for _, s := range resp.Sources {
		fmt.Fprintf(out, "  %s#%d (score %.4f)\n", s.Source, s.ChunkID, s.Score)
	}
	return nil
}
