// Package query answers natural-language questions against the vector
// store: embed the question, retrieve the closest chunks, and generate a
// grounded answer with source attribution.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/vectorstore"
)

var (
	// ErrEmptyQuery indicates a missing or empty query string.
	// A client-input error, never retried.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoMatches indicates retrieval legitimately returned zero results.
	// Distinct from a store failure: nothing is indexed yet, nothing is
	// broken. The pipeline refuses to generate an ungrounded answer.
	ErrNoMatches = errors.New("no relevant documents found")
)

// previewLength bounds the content preview attached to each source.
const previewLength = 200

// Embedder converts text into an embedding vector.
// Implemented by bedrock.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt.
// Implemented by bedrock.Generator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source attributes part of an answer to an indexed chunk.
type Source struct {
	Source         string  `json:"source"`
	ChunkID        int     `json:"chunk_id"`
	Score          float32 `json:"score"`
	ContentPreview string  `json:"content_preview"`
}

// Response is a grounded answer with provenance, in retrieval order
// (best match first).
type Response struct {
	Query    string   `json:"query"`
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Document is one raw similarity match, carrying the full chunk content
// rather than the preview used in answer sources.
type Document struct {
	Content string  `json:"content"`
	Score   float32 `json:"score"`
	Source  string  `json:"source"`
	ChunkID int     `json:"chunk_id"`
}

// SearchResponse is the similarity-only result set for a query, returned
// when the caller wants retrieval without generation.
type SearchResponse struct {
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
	Type      string     `json:"type"`
}

// searchResponseType marks similarity-only responses.
const searchResponseType = "similarity_search"

// Pipeline answers queries against the configured vector store.
type Pipeline struct {
	embedder  Embedder
	generator Generator
	store     vectorstore.Store
	topK      int
	logger    log.Logger
}

// New creates a query Pipeline retrieving up to topK chunks per question.
func New(embedder Embedder, generator Generator, store vectorstore.Store, topK int, logger log.Logger) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		embedder:  embedder,
		generator: generator,
		store:     store,
		topK:      topK,
		logger:    logger,
	}
}

// Answer runs the full retrieve-then-generate flow for q.
func (p *Pipeline) Answer(ctx context.Context, q string) (*Response, error) {
	results, err := p.Search(ctx, q, p.topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatches
	}

	answer, err := p.generator.Generate(ctx, composePrompt(q, results))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			Source:         r.Source,
			ChunkID:        r.ChunkID,
			Score:          r.Score,
			ContentPreview: preview(r.Content),
		}
	}

	p.logger.Info("answered query", "results", len(results))
	return &Response{Query: q, Response: answer, Sources: sources}, nil
}

// Search embeds q and returns the raw similarity results without invoking
// the generation model. Used for similarity-only requests; an empty result
// set is returned as-is here, Answer is the one that refuses it.
func (p *Pipeline) Search(ctx context.Context, q string, topK int) ([]vectorstore.SearchResult, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = p.topK
	}

	vec, err := p.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := p.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving chunks: %w", err)
	}

	return results, nil
}

// SearchOnly embeds q and returns the raw similarity matches with full
// content, skipping generation entirely. Zero matches is a valid outcome
// here.
func (p *Pipeline) SearchOnly(ctx context.Context, q string) (*SearchResponse, error) {
	results, err := p.Search(ctx, q, p.topK)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = Document{
			Content: r.Content,
			Score:   r.Score,
			Source:  r.Source,
			ChunkID: r.ChunkID,
		}
	}

	return &SearchResponse{Query: q, Documents: docs, Type: searchResponseType}, nil
}

// composePrompt builds the grounding prompt: every retrieved chunk as
// bulleted context, then the literal question. The model is instructed to
// answer only from the supplied context and to say so when it cannot.
func composePrompt(question string, results []vectorstore.SearchResult) string {
	var b strings.Builder

	b.WriteString("Use the following context to answer the question. ")
	b.WriteString("If you cannot answer based on the context provided, say so clearly.\n\n")
	b.WriteString("Context:\n")
	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nProvide a clear, concise answer based only on the information in the context above.")

	return b.String()
}

// preview truncates content to previewLength characters. Truncation is
// rune-aligned so multibyte content never gets cut mid-character.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
