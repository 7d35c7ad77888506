package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quarklabs/ragline/internal/log"
	"github.com/quarklabs/ragline/internal/query"
)

// maxQueryBodySize bounds the /query request body.
const maxQueryBodySize = 1 << 20 // 1 MiB

// QueryService answers questions against the vector store.
// Implemented by query.Pipeline.
type QueryService interface {
	Answer(ctx context.Context, q string) (*query.Response, error)
	SearchOnly(ctx context.Context, q string) (*query.SearchResponse, error)
}

// QueryRequest is the POST /query request body.
type QueryRequest struct {
	Query      string `json:"query"`
	SearchOnly bool   `json:"search_only,omitempty"`
}

// QueryHandler handles the /query endpoint.
type QueryHandler struct {
	svc    QueryService
	logger log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(svc QueryService, logger log.Logger) *QueryHandler {
	return &QueryHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", h.answer)
}

// answer handles POST /query. With search_only set the similarity results
// are returned directly and generation is skipped.
func (h *QueryHandler) answer(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodySize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	if req.SearchOnly {
		resp, err := h.svc.SearchOnly(r.Context(), req.Query)
		if err != nil {
			h.writeQueryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp, err := h.svc.Answer(r.Context(), req.Query)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeQueryError maps pipeline errors to HTTP status codes. Internal
// failures are logged with detail but the response body stays generic.
func (h *QueryHandler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, query.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "empty_query", query.ErrEmptyQuery.Error())
	case errors.Is(err, query.ErrNoMatches):
		writeError(w, http.StatusNotFound, "no_matches", query.ErrNoMatches.Error())
	default:
		h.logger.Error("query failed",
			"error", err,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to process query")
	}
}
