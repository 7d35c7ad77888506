package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/vectorstore"
)

// mockFetcher implements Fetcher for testing.
type mockFetcher struct {
	objects  map[string]string // "bucket/key" -> body
	fetchErr map[string]error
	calls    int
}

func (m *mockFetcher) Fetch(_ context.Context, bucket, key string) (string, error) {
	m.calls++
	id := bucket + "/" + key
	if err := m.fetchErr[id]; err != nil {
		return "", err
	}
	body, ok := m.objects[id]
	if !ok {
		return "", fmt.Errorf("no such object %s", id)
	}
	return body, nil
}

// mockEmbedder implements Embedder for testing.
type mockEmbedder struct {
	embedErr   error
	failAfter  int // fail on call number failAfter (1-based), 0 = never
	callCount  int
	lastInputs []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.callCount++
	m.lastInputs = append(m.lastInputs, text)

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failAfter > 0 && m.callCount >= m.failAfter {
		return nil, errors.New("embedding model unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockStore implements vectorstore.Store for testing.
type mockStore struct {
	ensureErr   error
	upsertErr   error
	failOnChunk int // fail upsert for this chunk_id, -1 = never
	ensureCalls int
	upserted    []vectorstore.Chunk
}

func newMockStore() *mockStore {
	return &mockStore{failOnChunk: -1}
}

func (m *mockStore) EnsureIndex(context.Context) error {
	m.ensureCalls++
	return m.ensureErr
}

func (m *mockStore) Ping(context.Context) error { return m.ensureErr }

func (m *mockStore) Upsert(_ context.Context, c vectorstore.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.failOnChunk >= 0 && c.ChunkID == m.failOnChunk {
		return fmt.Errorf("%w: simulated", vectorstore.ErrWrite)
	}
	m.upserted = append(m.upserted, c)
	return nil
}

func (m *mockStore) Search(context.Context, []float32, int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func TestIngestText_SingleChunkDocument(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{}
	store := newMockStore()
	p := New(nil, embedder, store, 500, log.NewNop())

	n, err := p.IngestText(context.Background(), "s3://docs/sky.txt",
		"The sky is blue. Grass is green. Water is wet.")
	require.NoError(t, err)

	assert.Equal(t, 1, n, "all sentences fit one 500-char chunk")
	require.Len(t, store.upserted, 1)
	assert.Equal(t, 0, store.upserted[0].ChunkID)
	assert.Equal(t, "s3://docs/sky.txt", store.upserted[0].Source)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, store.upserted[0].Embedding)
	assert.Equal(t, 1, store.ensureCalls, "index ensured before first write")
}

func TestIngestText_SequentialChunkIDs(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{}
	store := newMockStore()
	p := New(nil, embedder, store, 30, log.NewNop())

	text := strings.Repeat("This is a filler sentence. ", 6)
	n, err := p.IngestText(context.Background(), "s3://docs/long.txt", text)
	require.NoError(t, err)
	require.Greater(t, n, 1)

	for i, c := range store.upserted {
		assert.Equal(t, i, c.ChunkID, "chunk_id equals chunk order")
	}
	assert.Equal(t, n, embedder.callCount, "one embed call per chunk")
}

func TestIngestText_EmptyDocumentIsNoOp(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{}
	store := newMockStore()
	p := New(nil, embedder, store, 500, log.NewNop())

	for _, text := range []string{"", "   ", "\n\t"} {
		n, err := p.IngestText(context.Background(), "s3://docs/empty.txt", text)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Zero(t, embedder.callCount)
	assert.Empty(t, store.upserted)
	assert.Zero(t, store.ensureCalls, "no index creation for empty documents")
}

func TestIngestText_PartialFailureKeepsEarlierChunks(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{}
	store := newMockStore()
	store.failOnChunk = 2
	p := New(nil, embedder, store, 30, log.NewNop())

	text := strings.Repeat("This is a filler sentence. ", 6)
	_, err := p.IngestText(context.Background(), "s3://docs/long.txt", text)

	require.ErrorIs(t, err, vectorstore.ErrWrite)
	// Chunks 0 and 1 stay durably stored; nothing is rolled back.
	require.Len(t, store.upserted, 2)
	assert.Equal(t, 0, store.upserted[0].ChunkID)
	assert.Equal(t, 1, store.upserted[1].ChunkID)
}

func TestIngestText_EmbedFailureIsTerminal(t *testing.T) {
	t.Parallel()

	embedder := &mockEmbedder{embedErr: errors.New("throttled")}
	store := newMockStore()
	p := New(nil, embedder, store, 500, log.NewNop())

	_, err := p.IngestText(context.Background(), "s3://docs/sky.txt", "The sky is blue.")
	require.Error(t, err)
	assert.Empty(t, store.upserted)
	assert.Equal(t, 1, embedder.callCount, "no retry")
}

func TestProcessObject_FetchFailureIsTerminal(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{
		fetchErr: map[string]error{"docs/missing.txt": errors.New("access denied")},
	}
	store := newMockStore()
	p := New(fetcher, &mockEmbedder{}, store, 500, log.NewNop())

	_, err := p.ProcessObject(context.Background(), "docs", "missing.txt")
	require.Error(t, err)
	assert.Empty(t, store.upserted, "no partial processing after fetch failure")
}

func TestProcessEvent_RecordIsolation(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{
		objects: map[string]string{
			"docs/a.txt": "Alpha document body.",
			"docs/c.txt": "Gamma document body.",
		},
		fetchErr: map[string]error{"docs/b.txt": errors.New("access denied")},
	}
	store := newMockStore()
	p := New(fetcher, &mockEmbedder{}, store, 500, log.NewNop())

	err := p.ProcessEvent(context.Background(), []Record{
		{Bucket: "docs", Key: "a.txt"},
		{Bucket: "docs", Key: "b.txt"},
		{Bucket: "docs", Key: "c.txt"},
	})

	// The failing middle record is reported but does not stop the others.
	require.Error(t, err)
	assert.ErrorContains(t, err, "b.txt")
	assert.Equal(t, 3, fetcher.calls, "every record attempted")

	var sources []string
	for _, c := range store.upserted {
		sources = append(sources, c.Source)
	}
	assert.Contains(t, sources, "s3://docs/a.txt")
	assert.Contains(t, sources, "s3://docs/c.txt")
}

func TestProcessEvent_AllRecordsSucceed(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{
		objects: map[string]string{
			"docs/a.txt": "Alpha document body.",
			"docs/b.txt": "Beta document body.",
		},
	}
	store := newMockStore()
	p := New(fetcher, &mockEmbedder{}, store, 500, log.NewNop())

	err := p.ProcessEvent(context.Background(), []Record{
		{Bucket: "docs", Key: "a.txt"},
		{Bucket: "docs", Key: "b.txt"},
	})
	require.NoError(t, err)
	assert.Len(t, store.upserted, 2)
}

func TestRecord_Source(t *testing.T) {
	t.Parallel()

	r := Record{Bucket: "docs", Key: "notes/sky.txt"}
	assert.Equal(t, "s3://docs/notes/sky.txt", r.Source())
}
