// Package pinecone implements vectorstore.Store on a Pinecone serverless
// index over its REST API.
//
// Chunk content, source, and chunk_id travel as vector metadata; the
// metadata round-trip is what lets Search reconstruct a full result, since
// the vector itself is not retrievable.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/vectorstore"
)

// controlPlaneURL is the Pinecone management API used for lazy index
// creation. Data-plane calls go to the per-index host instead.
const controlPlaneURL = "https://api.pinecone.io"

const defaultTimeout = 15 * time.Second

// Config holds connection settings for the Pinecone backend.
type Config struct {
	// Host is the index data-plane URL, e.g.
	// "https://rag-documents-v2-abc1234.svc.aped-4627-b74a.pinecone.io".
	Host string

	// APIKey authenticates both data-plane and control-plane calls.
	APIKey string

	// IndexName is the serverless index name (control plane).
	IndexName string

	// Dimension is the embedding vector dimension used at index creation.
	Dimension int

	// Cloud and Region select the serverless spec at index creation.
	Cloud  string
	Region string

	// Timeout bounds each HTTP call. Default 15s.
	Timeout time.Duration

	// ControlPlaneURL overrides the management API endpoint (tests).
	ControlPlaneURL string
}

// Store is a vectorstore.Store backed by a Pinecone serverless index.
// Safe for concurrent use.
type Store struct {
	cfg     Config
	control string
	client  *http.Client
	logger  log.Logger

	mu      sync.Mutex
	ensured bool
}

// New creates a Store for the given index.
func New(cfg Config, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	control := cfg.ControlPlaneURL
	if control == "" {
		control = controlPlaneURL
	}
	return &Store{
		cfg:     cfg,
		control: control,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// EnsureIndex creates the serverless index via the control plane if it does
// not exist. A 409 conflict means another writer got there first and is
// swallowed; all other failures propagate.
func (s *Store) EnsureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensured {
		return nil
	}

	body := map[string]any{
		"name":      s.cfg.IndexName,
		"dimension": s.cfg.Dimension,
		"metric":    "cosine",
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  s.cfg.Cloud,
				"region": s.cfg.Region,
			},
		},
	}

	status, detail, err := s.post(ctx, s.control+"/indexes", body)
	if err != nil {
		return fmt.Errorf("%w: creating index %q: %v", vectorstore.ErrWrite, s.cfg.IndexName, err)
	}

	switch {
	case status == http.StatusConflict:
		s.logger.Debug("index already exists", "index", s.cfg.IndexName)
	case status >= 300:
		return fmt.Errorf("%w: creating index %q: status %d: %s", vectorstore.ErrWrite, s.cfg.IndexName, status, detail)
	default:
		s.logger.Info("created index", "index", s.cfg.IndexName, "dimension", s.cfg.Dimension)
	}

	s.ensured = true
	return nil
}

// Ping checks data-plane reachability with a stats call. Unlike
// EnsureIndex the result is never cached; every call hits the index.
func (s *Store) Ping(ctx context.Context) error {
	status, detail, err := s.post(ctx, s.dataURL("/describe_index_stats"), map[string]any{})
	if err != nil {
		return fmt.Errorf("%w: pinging index %q: %v", vectorstore.ErrRead, s.cfg.IndexName, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: pinging index %q: status %d: %s", vectorstore.ErrRead, s.cfg.IndexName, status, detail)
	}
	return nil
}

// upsertRequest is the data-plane upsert payload.
type upsertRequest struct {
	Vectors []vector `json:"vectors"`
}

type vector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata metadata  `json:"metadata"`
}

// metadata carries everything Search needs to rebuild a SearchResult.
type metadata struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
}

// Upsert writes a chunk keyed by "{source}-{chunk_id}". Pinecone upserts by
// id, so re-ingesting a source overwrites chunk-for-chunk.
func (s *Store) Upsert(ctx context.Context, chunk vectorstore.Chunk) error {
	if err := s.EnsureIndex(ctx); err != nil {
		return err
	}

	req := upsertRequest{
		Vectors: []vector{{
			ID:     vectorstore.Key(chunk.Source, chunk.ChunkID),
			Values: chunk.Embedding,
			Metadata: metadata{
				Text:    chunk.Content,
				Source:  chunk.Source,
				ChunkID: chunk.ChunkID,
			},
		}},
	}

	status, detail, err := s.post(ctx, s.dataURL("/vectors/upsert"), req)
	if err != nil {
		return fmt.Errorf("%w: upserting chunk %d of %q: %v", vectorstore.ErrWrite, chunk.ChunkID, chunk.Source, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: upserting chunk %d of %q: status %d: %s", vectorstore.ErrWrite, chunk.ChunkID, chunk.Source, status, detail)
	}

	s.logger.Debug("upserted chunk", "source", chunk.Source, "chunk_id", chunk.ChunkID)
	return nil
}

// queryRequest is the data-plane query payload. Metadata inclusion is
// mandatory: without it results carry only ids and scores.
type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string   `json:"id"`
		Score    float32  `json:"score"`
		Metadata metadata `json:"metadata"`
	} `json:"matches"`
}

// Search returns up to topK nearest matches, best first. Scores are
// Pinecone's cosine similarity, unnormalized against other backends.
func (s *Store) Search(ctx context.Context, vec []float32, topK int) ([]vectorstore.SearchResult, error) {
	req := queryRequest{Vector: vec, TopK: topK, IncludeMetadata: true}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.dataURL("/query"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: building query request: %v", vectorstore.ErrRead, err)
	}
	s.setHeaders(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: querying index %q: %v", vectorstore.ErrRead, s.cfg.IndexName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: querying index %q: status %d: %s", vectorstore.ErrRead, s.cfg.IndexName, resp.StatusCode, detail)
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding query response: %v", vectorstore.ErrRead, err)
	}

	results := make([]vectorstore.SearchResult, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		results = append(results, vectorstore.SearchResult{
			Content: m.Metadata.Text,
			Source:  m.Metadata.Source,
			ChunkID: m.Metadata.ChunkID,
			Score:   m.Score,
		})
	}
	return results, nil
}

// post sends a JSON body and returns the status code plus error detail.
func (s *Store) post(ctx context.Context, url string, body any) (int, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	detail, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(detail), nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Api-Key", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-API-Version", "2024-07")
}

func (s *Store) dataURL(path string) string {
	return strings.TrimSuffix(s.cfg.Host, "/") + path
}
