// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (RAGLINE_* prefix, runtime override)
//  2. Config file (~/.ragline/config.yaml or ./config.yaml)
//  3. Built-in defaults
//
// Error Handling:
//   - Sentinel errors for Go-idiomatic checking with errors.Is()
//   - Wrapped with context via fmt.Errorf("%w: details", ErrXxx)
//
// Security: the Pinecone API key is only read from the environment and is
// never logged or written back to disk.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidStoreType indicates an unsupported vector store backend.
	ErrInvalidStoreType = errors.New("invalid vector store type")

	// ErrInvalidIndexName indicates the index name violates naming rules.
	ErrInvalidIndexName = errors.New("invalid index name")

	// ErrMissingEndpoint indicates the vector store endpoint is not set.
	ErrMissingEndpoint = errors.New("missing vector store endpoint")

	// ErrMissingPineconeKey indicates the Pinecone API key is not set.
	ErrMissingPineconeKey = errors.New("missing Pinecone API key")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidChunkSize indicates the chunk size bound is out of range.
	ErrInvalidChunkSize = errors.New("invalid max chunk size")

	// ErrInvalidModelID indicates a model identifier is empty.
	ErrInvalidModelID = errors.New("invalid model id")
)

// Vector store backend identifiers used in Config.VectorStoreType.
// The backend is fixed for the lifetime of a deployment; switching it
// implies a fresh index.
const (
	StoreOpenSearch = "opensearch"
	StorePinecone   = "pinecone"
)

// Defaults match the models the production index was built with.
// EmbeddingDimension must agree between ingestion and query or similarity
// search is meaningless; it is enforced here, not at runtime.
const (
	DefaultIndexName          = "rag-documents-v2"
	DefaultEmbeddingModelID   = "amazon.titan-embed-text-v2:0"
	DefaultGenerationModelID  = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultEmbeddingDimension = 1024
	DefaultTopK               = 5
	DefaultMaxChunkSize       = 500
)

// OTLPConfig configures the optional trace exporter. Tracing is disabled
// when Endpoint is empty.
type OTLPConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Config stores application configuration.
type Config struct {
	// Vector store selection and connection
	VectorStoreType     string `mapstructure:"vector_store_type" json:"vector_store_type"`         // "opensearch" (default) or "pinecone"
	VectorStoreEndpoint string `mapstructure:"vector_store_endpoint" json:"vector_store_endpoint"` // OpenSearch endpoint or Pinecone index host
	IndexName           string `mapstructure:"index_name" json:"index_name"`

	// Pinecone control plane (only used when vector_store_type is "pinecone")
	PineconeAPIKey string `mapstructure:"pinecone_api_key" json:"-"` // SENSITIVE: env only, never serialized
	PineconeCloud  string `mapstructure:"pinecone_cloud" json:"pinecone_cloud"`
	PineconeRegion string `mapstructure:"pinecone_region" json:"pinecone_region"`

	// AWS / model configuration
	AWSRegion          string `mapstructure:"aws_region" json:"aws_region"`
	EmbeddingModelID   string `mapstructure:"embedding_model_id" json:"embedding_model_id"`
	GenerationModelID  string `mapstructure:"generation_model_id" json:"generation_model_id"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension" json:"embedding_dimension"`

	// Pipeline tuning
	TopK         int `mapstructure:"top_k" json:"top_k"`
	MaxChunkSize int `mapstructure:"max_chunk_size" json:"max_chunk_size"`

	// HTTP server
	HTTPAddr string `mapstructure:"http_addr" json:"http_addr"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// Observability
	OTLP OTLPConfig `mapstructure:"otlp" json:"otlp"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".ragline"))
	}
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("vector_store_type", StoreOpenSearch)
	v.SetDefault("index_name", DefaultIndexName)
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("embedding_model_id", DefaultEmbeddingModelID)
	v.SetDefault("generation_model_id", DefaultGenerationModelID)
	v.SetDefault("embedding_dimension", DefaultEmbeddingDimension)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("max_chunk_size", DefaultMaxChunkSize)
	v.SetDefault("http_addr", "127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("pinecone_cloud", "aws")
	v.SetDefault("pinecone_region", "us-east-1")

	v.SetDefault("otlp.endpoint", "")
	v.SetDefault("otlp.service_name", "ragline")
	v.SetDefault("otlp.environment", "dev")
}

// bindEnvVariables binds environment variables.
// RAGLINE_* variables override config file keys; the Pinecone key and the
// two deployment variables also keep their unprefixed names so existing
// deployments keep working.
func bindEnvVariables(v *viper.Viper) {
	v.SetEnvPrefix("RAGLINE")
	v.AutomaticEnv()

	// Compatibility with the deployment environment variable names.
	_ = v.BindEnv("pinecone_api_key", "RAGLINE_PINECONE_API_KEY", "PINECONE_API_KEY")
	_ = v.BindEnv("vector_store_endpoint", "RAGLINE_VECTOR_STORE_ENDPOINT", "VECTOR_STORE_ENDPOINT")
	_ = v.BindEnv("vector_store_type", "RAGLINE_VECTOR_STORE_TYPE", "VECTOR_STORE_TYPE")
	_ = v.BindEnv("index_name", "RAGLINE_INDEX_NAME", "INDEX_NAME")
	_ = v.BindEnv("aws_region", "RAGLINE_AWS_REGION", "AWS_REGION")
}
