package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarklabs/ragline/internal/log"
)

// mockGetObject implements GetObjectAPI for testing.
type mockGetObject struct {
	body       string
	getErr     error
	readErr    error
	lastBucket string
	lastKey    string
}

// failingReader returns readErr after the prefix is consumed.
type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, f.err
	}
	return n, err
}

func (m *mockGetObject) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.lastBucket = *params.Bucket
	m.lastKey = *params.Key

	if m.getErr != nil {
		return nil, m.getErr
	}

	var body io.Reader = strings.NewReader(m.body)
	if m.readErr != nil {
		body = &failingReader{r: body, err: m.readErr}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(body)}, nil
}

func TestFetch_ReturnsObjectText(t *testing.T) {
	t.Parallel()

	mock := &mockGetObject{body: "The sky is blue. Grass is green."}
	c := New(mock, log.NewNop())

	text, err := c.Fetch(context.Background(), "docs-bucket", "notes/sky.txt")
	require.NoError(t, err)

	assert.Equal(t, "The sky is blue. Grass is green.", text)
	assert.Equal(t, "docs-bucket", mock.lastBucket)
	assert.Equal(t, "notes/sky.txt", mock.lastKey)
}

func TestFetch_PropagatesGetError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("access denied")
	c := New(&mockGetObject{getErr: wantErr}, log.NewNop())

	_, err := c.Fetch(context.Background(), "docs-bucket", "missing.txt")
	assert.ErrorIs(t, err, wantErr)
}

func TestFetch_PropagatesReadError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("connection reset")
	c := New(&mockGetObject{body: "partial", readErr: wantErr}, log.NewNop())

	_, err := c.Fetch(context.Background(), "docs-bucket", "doc.txt")
	assert.ErrorIs(t, err, wantErr)
}

func TestFetch_RejectsInvalidUTF8(t *testing.T) {
	t.Parallel()

	c := New(&mockGetObject{body: string([]byte{0xff, 0xfe, 0xfd})}, log.NewNop())

	_, err := c.Fetch(context.Background(), "docs-bucket", "binary.bin")
	assert.ErrorContains(t, err, "UTF-8")
}
