package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a minimal configuration that passes validation.
// Tests mutate single fields from this baseline.
func validConfig() *Config {
	return &Config{
		VectorStoreType:     StoreOpenSearch,
		VectorStoreEndpoint: "https://search.example.com",
		IndexName:           DefaultIndexName,
		AWSRegion:           "us-east-1",
		EmbeddingModelID:    DefaultEmbeddingModelID,
		GenerationModelID:   DefaultGenerationModelID,
		EmbeddingDimension:  DefaultEmbeddingDimension,
		TopK:                DefaultTopK,
		MaxChunkSize:        DefaultMaxChunkSize,
	}
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidate_StoreType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		storeType string
		wantErr   error
	}{
		{"opensearch accepted", StoreOpenSearch, nil},
		{"pinecone accepted", StorePinecone, nil},
		{"empty rejected", "", ErrInvalidStoreType},
		{"unknown rejected", "chroma", ErrInvalidStoreType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.VectorStoreType = tt.storeType
			if tt.storeType == StorePinecone {
				cfg.PineconeAPIKey = "pc-test-key"
			}

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_IndexName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		index   string
		wantErr bool
	}{
		{"reference default", "rag-documents-v2", false},
		{"minimum length", "abc", false},
		{"too short", "ab", true},
		{"uppercase rejected", "Rag-Documents", true},
		{"leading digit rejected", "2rag", true},
		{"leading hyphen rejected", "-rag", true},
		{"underscore rejected", "rag_documents", true},
		{"too long", "a" + strings.Repeat("b", 63), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.IndexName = tt.index

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIndexName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_PineconeRequiresAPIKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.VectorStoreType = StorePinecone
	cfg.PineconeAPIKey = ""

	assert.ErrorIs(t, cfg.Validate(), ErrMissingPineconeKey)

	cfg.PineconeAPIKey = "pc-test-key"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingEndpoint(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.VectorStoreEndpoint = ""

	assert.ErrorIs(t, cfg.Validate(), ErrMissingEndpoint)
}

func TestValidate_Ranges(t *testing.T) {
	t.Parallel()

	t.Run("dimension zero", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.EmbeddingDimension = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidDimension)
	})

	t.Run("dimension too large", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.EmbeddingDimension = 8192
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidDimension)
	})

	t.Run("top_k zero", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.TopK = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidTopK)
	})

	t.Run("chunk size zero", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.MaxChunkSize = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunkSize)
	})

	t.Run("empty model ids", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.EmbeddingModelID = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidModelID)
	})
}

func TestLoad_DefaultsWithEnvOverride(t *testing.T) {
	// Not parallel: mutates process environment.
	t.Setenv("VECTOR_STORE_ENDPOINT", "https://search.example.com")
	t.Setenv("RAGLINE_TOP_K", "7")
	t.Setenv("VECTOR_STORE_TYPE", "opensearch")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreOpenSearch, cfg.VectorStoreType)
	assert.Equal(t, DefaultIndexName, cfg.IndexName)
	assert.Equal(t, DefaultEmbeddingDimension, cfg.EmbeddingDimension)
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, DefaultMaxChunkSize, cfg.MaxChunkSize)
}
