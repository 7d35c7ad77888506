package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quarklabs/ragline/internal/bedrock"
	"github.com/quarklabs/ragline/internal/config"
	"github.com/quarklabs/ragline/internal/ingest"
	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/objectstore"
	"github.com/quarklabs/ragline/internal/observability"
	"github.com/quarklabs/ragline/internal/query"
	"github.com/quarklabs/ragline/internal/vectorstore"
	"github.com/quarklabs/ragline/internal/vectorstore/opensearch"
	"github.com/quarklabs/ragline/internal/vectorstore/pinecone"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}

	a.otelCleanup = observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLP.Endpoint,
		ServiceName: cfg.OTLP.ServiceName,
		Environment: cfg.OTLP.Environment,
	}, logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	store, err := provideStore(cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store

	runtime := bedrockruntime.NewFromConfig(awsCfg)
	embedder := bedrock.NewEmbedder(runtime, cfg.EmbeddingModelID, cfg.EmbeddingDimension, logger)
	generator := bedrock.NewGenerator(runtime, cfg.GenerationModelID, logger)

	fetcher := objectstore.New(s3.NewFromConfig(awsCfg), logger)

	a.Ingestion = ingest.New(fetcher, embedder, store, cfg.MaxChunkSize, logger)
	a.Query = query.New(embedder, generator, store, cfg.TopK, logger)

	logger.Info("application initialized",
		"vector_store", cfg.VectorStoreType,
		"index", cfg.IndexName,
		"region", cfg.AWSRegion,
	)

	return a, nil
}

// provideStore selects the vector store backend from configuration.
// This is the only place in the codebase that branches on the store type.
func provideStore(cfg *config.Config, awsCfg aws.Config, logger log.Logger) (vectorstore.Store, error) {
	switch cfg.VectorStoreType {
	case config.StoreOpenSearch:
		return opensearch.New(opensearch.Config{
			Endpoint:  cfg.VectorStoreEndpoint,
			IndexName: cfg.IndexName,
			Dimension: cfg.EmbeddingDimension,
		}, awsCfg, logger)
	case config.StorePinecone:
		return pinecone.New(pinecone.Config{
			Host:      cfg.VectorStoreEndpoint,
			APIKey:    cfg.PineconeAPIKey,
			IndexName: cfg.IndexName,
			Dimension: cfg.EmbeddingDimension,
			Cloud:     cfg.PineconeCloud,
			Region:    cfg.PineconeRegion,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStoreType, cfg.VectorStoreType)
	}
}
