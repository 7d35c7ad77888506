package config

import (
	"fmt"
	"regexp"
)

// indexNamePattern enforces the index naming rules shared by both backends:
// lowercase letters, digits, and hyphens, 3-63 characters, starting with a
// letter. Validated here at startup; the pipelines assume a valid name.
var indexNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{2,62}$`)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Backend selection
	switch c.VectorStoreType {
	case StoreOpenSearch, StorePinecone:
	default:
		return fmt.Errorf("%w: %q, must be %q or %q",
			ErrInvalidStoreType, c.VectorStoreType, StoreOpenSearch, StorePinecone)
	}

	// 2. Index naming
	if !indexNamePattern.MatchString(c.IndexName) {
		return fmt.Errorf("%w: %q must be 3-63 lowercase letters, digits, or hyphens and start with a letter",
			ErrInvalidIndexName, c.IndexName)
	}

	// 3. Connection details
	if c.VectorStoreEndpoint == "" {
		return fmt.Errorf("%w: vector_store_endpoint is required", ErrMissingEndpoint)
	}
	if c.VectorStoreType == StorePinecone && c.PineconeAPIKey == "" {
		return fmt.Errorf("%w: set PINECONE_API_KEY", ErrMissingPineconeKey)
	}

	// 4. Model configuration
	if c.EmbeddingModelID == "" {
		return fmt.Errorf("%w: embedding_model_id cannot be empty", ErrInvalidModelID)
	}
	if c.GenerationModelID == "" {
		return fmt.Errorf("%w: generation_model_id cannot be empty", ErrInvalidModelID)
	}

	// The dimension must match what the embedding model emits. Titan v2
	// supports 256, 512, and 1024; anything else never produces a usable
	// index, so reject it up front.
	if c.EmbeddingDimension < 1 || c.EmbeddingDimension > 4096 {
		return fmt.Errorf("%w: must be between 1 and 4096, got %d", ErrInvalidDimension, c.EmbeddingDimension)
	}

	// 5. Pipeline tuning
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.MaxChunkSize < 1 {
		return fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidChunkSize, c.MaxChunkSize)
	}

	return nil
}
