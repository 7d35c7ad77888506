// Package ingest turns uploaded documents into indexed, embedded chunks.
//
// Each run is stateless: fetch the object, chunk it, then embed and upsert
// each chunk in order. A failure partway through a multi-chunk document
// leaves the chunks already written in place (at-least-once, no rollback);
// the invocation trigger retries the whole document.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/quarklabs/ragline/internal/chunk"
	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/vectorstore"
)

// Embedder converts text into an embedding vector.
// Implemented by bedrock.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Fetcher reads a stored object as UTF-8 text.
// Implemented by objectstore.Client.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (string, error)
}

// Record identifies one newly stored object in an ingestion event.
type Record struct {
	Bucket string
	Key    string
}

// Source returns the canonical source identifier stored with every chunk.
func (r Record) Source() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// Pipeline ingests documents into the configured vector store.
type Pipeline struct {
	fetcher      Fetcher
	embedder     Embedder
	store        vectorstore.Store
	maxChunkSize int
	logger       log.Logger
}

// New creates an ingestion Pipeline. maxChunkSize <= 0 selects the default
// chunk bound.
func New(fetcher Fetcher, embedder Embedder, store vectorstore.Store, maxChunkSize int, logger log.Logger) *Pipeline {
	if maxChunkSize <= 0 {
		maxChunkSize = chunk.DefaultMaxSize
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		fetcher:      fetcher,
		embedder:     embedder,
		store:        store,
		maxChunkSize: maxChunkSize,
		logger:       logger,
	}
}

// ProcessEvent processes every record of a storage event independently.
// A failing record never prevents the remaining records from being
// attempted; the combined error reports all failures.
func (p *Pipeline) ProcessEvent(ctx context.Context, records []Record) error {
	var errs []error
	for _, rec := range records {
		if _, err := p.ProcessObject(ctx, rec.Bucket, rec.Key); err != nil {
			p.logger.Error("record failed", "source", rec.Source(), "error", err)
			errs = append(errs, fmt.Errorf("record %s: %w", rec.Source(), err))
			continue
		}
	}
	return errors.Join(errs...)
}

// ProcessObject fetches one object and ingests its text. It returns the
// number of chunks stored. A fetch failure is terminal for the record.
func (p *Pipeline) ProcessObject(ctx context.Context, bucket, key string) (int, error) {
	source := Record{Bucket: bucket, Key: key}.Source()

	text, err := p.fetcher.Fetch(ctx, bucket, key)
	if err != nil {
		return 0, fmt.Errorf("fetching document: %w", err)
	}

	return p.IngestText(ctx, source, text)
}

// IngestText chunks text and writes each embedded chunk under source.
// Chunks are processed strictly in order with chunk_id equal to their
// position; the first embed or store failure stops the run without
// rolling back earlier writes. Empty or whitespace-only text is a no-op.
func (p *Pipeline) IngestText(ctx context.Context, source, text string) (int, error) {
	chunks := chunk.Split(text, p.maxChunkSize)
	if len(chunks) == 0 {
		p.logger.Info("document has no content, skipping", "source", source)
		return 0, nil
	}

	if err := p.store.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensuring index: %w", err)
	}

	for i, content := range chunks {
		vec, err := p.embedder.Embed(ctx, content)
		if err != nil {
			return i, fmt.Errorf("embedding chunk %d of %q: %w", i, source, err)
		}

		err = p.store.Upsert(ctx, vectorstore.Chunk{
			Content:   content,
			Source:    source,
			ChunkID:   i,
			Embedding: vec,
		})
		if err != nil {
			return i, fmt.Errorf("storing chunk %d of %q: %w", i, source, err)
		}
	}

	p.logger.Info("ingested document", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}
