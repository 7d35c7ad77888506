package cmd

import (
	"fmt"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/quarklabs/ragline/internal/app"
	"github.com/quarklabs/ragline/internal/lambda"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda [ingest|query]",
	Short: "Run as an AWS Lambda function",
	Long: `Lambda starts the Lambda runtime with the selected handler.

  ingest  handles S3 object-created events and indexes the new documents
  query   handles API Gateway proxy requests for POST /query`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ingest", "query"},
	RunE:      runLambda,
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.Setup(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	switch args[0] {
	case "ingest":
		awslambda.Start(lambda.NewIngestHandler(a.Ingestion, logger).Handle)
	case "query":
		awslambda.Start(lambda.NewQueryHandler(a.Query, logger).Handle)
	default:
		return fmt.Errorf("unknown lambda handler: %s", args[0])
	}
	return nil
}
