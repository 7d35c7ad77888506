package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitS3URI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantKey    string
		wantOK     bool
	}{
		{
			name:       "simple key",
			uri:        "s3://docs/report.txt",
			wantBucket: "docs",
			wantKey:    "report.txt",
			wantOK:     true,
		},
		{
			name:       "nested key",
			uri:        "s3://docs/2024/q3/report.txt",
			wantBucket: "docs",
			wantKey:    "2024/q3/report.txt",
			wantOK:     true,
		},
		{
			name:   "local path",
			uri:    "./report.txt",
			wantOK: false,
		},
		{
			name:   "missing key",
			uri:    "s3://docs",
			wantOK: false,
		},
		{
			name:   "empty bucket",
			uri:    "s3:///report.txt",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bucket, key, ok := splitS3URI(tt.uri)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}
