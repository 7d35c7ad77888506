// Package opensearch implements vectorstore.Store on an OpenSearch kNN
// index. One logical index per deployment, created lazily on first write
// with a cosine-similarity HNSW vector field.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	opensearchclient "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v2/signer/awsv2"

	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/vectorstore"
)

// vectorField is the kNN vector field name in the index mapping.
const vectorField = "vector_field"

// alreadyExistsMarker identifies the benign create-conflict error class.
// Only this class is swallowed during lazy creation; everything else
// propagates.
const alreadyExistsMarker = "resource_already_exists_exception"

// Transport performs OpenSearch API requests. Satisfied by
// *opensearch.Client in production and by fakes in tests.
type Transport interface {
	Perform(*http.Request) (*http.Response, error)
}

// Config holds connection and index settings for the OpenSearch backend.
type Config struct {
	// Endpoint is the cluster URL, e.g. "https://search-....es.amazonaws.com".
	Endpoint string

	// IndexName is the index holding the chunks.
	IndexName string

	// Dimension is the embedding vector dimension; must match the
	// embedding model across ingestion and query.
	Dimension int

	// Service is the AWS signing service name ("es" for managed domains,
	// "aoss" for serverless collections). Default "es".
	Service string
}

// Store is a vectorstore.Store backed by an OpenSearch kNN index.
// Safe for concurrent use.
type Store struct {
	transport Transport
	indexName string
	dimension int
	logger    log.Logger

	mu      sync.Mutex
	ensured bool
}

// New creates a Store with an AWS SigV4-signed OpenSearch client.
func New(cfg Config, awsCfg aws.Config, logger log.Logger) (*Store, error) {
	service := cfg.Service
	if service == "" {
		service = "es"
	}

	signer, err := requestsigner.NewSignerWithService(awsCfg, service)
	if err != nil {
		return nil, fmt.Errorf("creating request signer: %w", err)
	}

	client, err := opensearchclient.NewClient(opensearchclient.Config{
		Addresses: []string{cfg.Endpoint},
		Signer:    signer,
	})
	if err != nil {
		return nil, fmt.Errorf("creating opensearch client: %w", err)
	}

	return NewWithTransport(cfg, client, logger), nil
}

// NewWithTransport creates a Store over an existing transport.
// Used by New and by tests.
func NewWithTransport(cfg Config, transport Transport, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		transport: transport,
		indexName: cfg.IndexName,
		dimension: cfg.Dimension,
		logger:    logger,
	}
}

// EnsureIndex creates the index if it does not already exist. Idempotent:
// a concurrent creation ("already exists" conflict) is swallowed.
func (s *Store) EnsureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensured {
		return nil
	}
	if err := s.ensureIndexLocked(ctx); err != nil {
		return err
	}
	s.ensured = true
	return nil
}

// Ping checks cluster reachability with an uncached index HEAD request.
// A missing index still counts as reachable: EnsureIndex creates it on the
// first write.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.indexExists(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Store) ensureIndexLocked(ctx context.Context) error {
	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body := map[string]any{
		"settings": map[string]any{
			"index": map[string]any{
				"knn":                      true,
				"knn.algo_param.ef_search": 100,
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				vectorField: map[string]any{
					"type":      "knn_vector",
					"dimension": s.dimension,
					"method": map[string]any{
						"name":       "hnsw",
						"space_type": "cosinesimil",
						"engine":     "nmslib",
					},
				},
				"text":     map[string]any{"type": "text"},
				"source":   map[string]any{"type": "keyword"},
				"chunk_id": map[string]any{"type": "integer"},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling index mapping: %w", err)
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: s.indexName,
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("%w: creating index %q: %v", vectorstore.ErrWrite, s.indexName, err)
	}
	defer closeBody(res)

	if res.IsError() {
		detail := readBody(res)
		if strings.Contains(detail, alreadyExistsMarker) {
			// Lost a creation race; the index is there, which is all we need.
			s.logger.Debug("index already exists", "index", s.indexName)
			return nil
		}
		return fmt.Errorf("%w: creating index %q: %s", vectorstore.ErrWrite, s.indexName, detail)
	}

	s.logger.Info("created index", "index", s.indexName, "dimension", s.dimension)
	return nil
}

func (s *Store) indexExists(ctx context.Context) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{
		Index: []string{s.indexName},
	}.Do(ctx, s.transport)
	if err != nil {
		return false, fmt.Errorf("%w: checking index %q: %v", vectorstore.ErrWrite, s.indexName, err)
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: checking index %q: %s", vectorstore.ErrWrite, s.indexName, readBody(res))
	}
}

// Upsert writes a chunk with a document ID derived from source and chunk_id,
// so re-ingesting a source overwrites instead of duplicating.
func (s *Store) Upsert(ctx context.Context, chunk vectorstore.Chunk) error {
	if err := s.EnsureIndex(ctx); err != nil {
		return err
	}

	doc := map[string]any{
		vectorField: chunk.Embedding,
		"text":      chunk.Content,
		"source":    chunk.Source,
		"chunk_id":  chunk.ChunkID,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      s.indexName,
		DocumentID: vectorstore.Key(chunk.Source, chunk.ChunkID),
		Body:       bytes.NewReader(payload),
	}.Do(ctx, s.transport)
	if err != nil {
		return fmt.Errorf("%w: indexing chunk %d of %q: %v", vectorstore.ErrWrite, chunk.ChunkID, chunk.Source, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return fmt.Errorf("%w: indexing chunk %d of %q: %s", vectorstore.ErrWrite, chunk.ChunkID, chunk.Source, readBody(res))
	}

	s.logger.Debug("indexed chunk", "source", chunk.Source, "chunk_id", chunk.ChunkID)
	return nil
}

// Search runs a kNN query and returns up to topK results, best match first.
// Scores are OpenSearch's raw kNN similarity, unnormalized.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	query := map[string]any{
		"size":    topK,
		"_source": []string{"text", "source", "chunk_id"},
		"query": map[string]any{
			"knn": map[string]any{
				vectorField: map[string]any{
					"vector": vector,
					"k":      topK,
				},
			},
		},
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshaling search query: %w", err)
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{s.indexName},
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.transport)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %q: %v", vectorstore.ErrRead, s.indexName, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, fmt.Errorf("%w: searching %q: %s", vectorstore.ErrRead, s.indexName, readBody(res))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", vectorstore.ErrRead, err)
	}

	results := make([]vectorstore.SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		results = append(results, vectorstore.SearchResult{
			Content: hit.Source.Text,
			Source:  hit.Source.Source,
			ChunkID: hit.Source.ChunkID,
			Score:   hit.Score,
		})
	}
	return results, nil
}

// searchResponse mirrors the subset of the OpenSearch search response the
// store projects.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float32 `json:"_score"`
			Source struct {
				Text    string `json:"text"`
				Source  string `json:"source"`
				ChunkID int    `json:"chunk_id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func readBody(res *opensearchapi.Response) string {
	if res == nil || res.Body == nil {
		return ""
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return ""
	}
	return string(b)
}

func closeBody(res *opensearchapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}
