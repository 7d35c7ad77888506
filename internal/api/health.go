package api

import (
	"context"
	"net/http"

	"github.com/quarklabs/ragline/internal/log"
)

// ReadinessProbe reports whether the vector store backing the API is
// reachable right now. Satisfied by vectorstore.Store; implementations
// must not cache, or the probe would keep reporting ready after the
// backend drops.
type ReadinessProbe interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	probe  ReadinessProbe
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
// probe is the vector store used for readiness checks.
func NewHealthHandler(probe ReadinessProbe, logger log.Logger) *HealthHandler {
	return &HealthHandler{probe: probe, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 200 OK while the vector store is reachable. Every request hits
// the backend; a store that goes away flips the probe to 503.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		http.Error(w, "vector store not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.probe.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "vector store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
