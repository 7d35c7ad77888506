// Package objectstore fetches uploaded documents from S3 for ingestion.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quarklabs/ragline/internal/log"
)

// GetObjectAPI is the S3 surface the client consumes.
// Satisfied by *s3.Client.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client reads document objects as UTF-8 text.
type Client struct {
	api    GetObjectAPI
	logger log.Logger
}

// New creates a Client over the given S3 API.
func New(api GetObjectAPI, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{api: api, logger: logger}
}

// Fetch reads the full object body and decodes it as UTF-8 text.
// Any fetch or decode failure is terminal for the record: no partial
// content is ever returned.
func (c *Client) Fetch(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
	}

	if !utf8.Valid(body) {
		return "", fmt.Errorf("object s3://%s/%s is not valid UTF-8 text", bucket, key)
	}

	c.logger.Debug("fetched object", "bucket", bucket, "key", key, "bytes", len(body))
	return string(body), nil
}
