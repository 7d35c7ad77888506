// Package vectorstore defines the storage abstraction shared by the
// ingestion and query pipelines.
//
// Two backends implement Store: an OpenSearch kNN index
// (vectorstore/opensearch) and a Pinecone serverless index
// (vectorstore/pinecone). A deployment selects exactly one at startup and
// never mixes them; pipeline code must go through the Store interface and
// never branch on the backend type.
//
// Scores returned by Search are backend-native similarities. They are NOT on
// a common numeric scale across backends and must never be compared between
// backend types.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrWrite indicates the backend rejected an upsert or index creation.
	ErrWrite = errors.New("vector store write failed")

	// ErrRead indicates the backend rejected a search.
	ErrRead = errors.New("vector store read failed")
)

// Chunk is an embedded document segment, the unit of storage.
// ChunkID is a zero-based sequence index unique within a Source.
type Chunk struct {
	Content   string
	Source    string
	ChunkID   int
	Embedding []float32
}

// SearchResult is a retrieved chunk with its backend-native similarity score.
type SearchResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
	Score   float32 `json:"score"`
}

// Store is the vector store contract consumed by the pipelines.
//
// Implementations must be safe for concurrent use: ingestion runs are
// independent invocations with no coordination between them.
type Store interface {
	// EnsureIndex lazily creates the backing index if it does not exist.
	// It is idempotent: a concurrent or previous creation is not an error.
	// Upsert implementations call it before the first write. The result is
	// cached; use Ping to observe the backend's current state.
	EnsureIndex(ctx context.Context) error

	// Ping checks that the backend is reachable right now. Never cached:
	// every call hits the network. Used by readiness probes.
	Ping(ctx context.Context) error

	// Upsert writes a chunk, keyed by Key(chunk.Source, chunk.ChunkID).
	// Re-ingesting a source overwrites chunk-for-chunk rather than
	// appending duplicates. Failures wrap ErrWrite.
	Upsert(ctx context.Context, chunk Chunk) error

	// Search returns up to topK results ordered by descending score.
	// Failures wrap ErrRead. An empty result is not an error.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
}

// Key derives the stable storage identifier for a chunk. Both backends key
// writes by it, which makes re-ingestion of an unchanged document overwrite
// in place. Stale higher-numbered chunks from a previously longer version of
// the same source are not swept.
func Key(source string, chunkID int) string {
	return fmt.Sprintf("%s-%d", source, chunkID)
}
