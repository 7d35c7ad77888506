package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "s3://bucket/doc.txt-0", Key("s3://bucket/doc.txt", 0))
	assert.Equal(t, "s3://bucket/doc.txt-12", Key("s3://bucket/doc.txt", 12))

	// Keys for the same source must differ per chunk, and re-deriving the
	// key for the same chunk must be stable.
	assert.NotEqual(t, Key("a", 1), Key("a", 2))
	assert.Equal(t, Key("a", 1), Key("a", 1))
}
