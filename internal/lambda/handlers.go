// Package lambda adapts the ingestion and query pipelines to AWS Lambda
// event sources: S3 object-created notifications drive ingestion, API
// Gateway proxy requests drive queries.
package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/quarklabs/ragline/internal/ingest"
	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/query"
)

// IngestHandler processes S3 event notifications through the ingestion
// pipeline.
type IngestHandler struct {
	pipeline *ingest.Pipeline
	logger   log.Logger
}

// NewIngestHandler creates an S3 event handler.
func NewIngestHandler(pipeline *ingest.Pipeline, logger log.Logger) *IngestHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &IngestHandler{pipeline: pipeline, logger: logger}
}

// Handle ingests every object referenced in the event. Object keys arrive
// URL-encoded in S3 notifications and are decoded before fetching. A record
// whose key cannot be decoded fails that record only.
func (h *IngestHandler) Handle(ctx context.Context, event events.S3Event) error {
	records := make([]ingest.Record, 0, len(event.Records))
	var errs []error

	for _, r := range event.Records {
		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			h.logger.Error("decoding object key", "key", r.S3.Object.Key, "error", err)
			errs = append(errs, err)
			continue
		}
		records = append(records, ingest.Record{
			Bucket: r.S3.Bucket.Name,
			Key:    key,
		})
	}

	if err := h.pipeline.ProcessEvent(ctx, records); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// QueryHandler serves query requests arriving through API Gateway.
type QueryHandler struct {
	pipeline *query.Pipeline
	logger   log.Logger
}

// NewQueryHandler creates an API Gateway proxy handler.
func NewQueryHandler(pipeline *query.Pipeline, logger log.Logger) *QueryHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &QueryHandler{pipeline: pipeline, logger: logger}
}

// queryRequest is the proxy request body.
type queryRequest struct {
	Query      string `json:"query"`
	SearchOnly bool   `json:"search_only,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handle answers a query from the proxy request body. Error mapping
// mirrors the HTTP API: empty query is 400, zero matches is 404, anything
// else is a generic 500 with detail kept in the logs.
func (h *QueryHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body queryRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return jsonResponse(http.StatusBadRequest, errorBody{
			Error:   "invalid_request",
			Message: "request body must be valid JSON",
		}), nil
	}

	var (
		result any
		err    error
	)
	if body.SearchOnly {
		result, err = h.pipeline.SearchOnly(ctx, body.Query)
	} else {
		result, err = h.pipeline.Answer(ctx, body.Query)
	}

	switch {
	case err == nil:
		return jsonResponse(http.StatusOK, result), nil
	case errors.Is(err, query.ErrEmptyQuery):
		return jsonResponse(http.StatusBadRequest, errorBody{
			Error:   "empty_query",
			Message: query.ErrEmptyQuery.Error(),
		}), nil
	case errors.Is(err, query.ErrNoMatches):
		return jsonResponse(http.StatusNotFound, errorBody{
			Error:   "no_matches",
			Message: query.ErrNoMatches.Error(),
		}), nil
	default:
		h.logger.Error("query failed", "error", err)
		return jsonResponse(http.StatusInternalServerError, errorBody{
			Error:   "internal_error",
			Message: "failed to process query",
		}), nil
	}
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"internal_error"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(buf),
	}
}
