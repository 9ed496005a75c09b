package healthhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Snapshotter interface {
	Snapshot() map[string]any
}

type Handler struct {
	DB      Pinger
	Metrics Snapshotter
}

// NewHandler serves probes. metrics may be nil to hide /metrics.
func NewHandler(db Pinger, metrics Snapshotter) *Handler {
	return &Handler{DB: db, Metrics: metrics}
}

// RegisterProbes mounts the unauthenticated liveness and readiness routes.
func (h *Handler) RegisterProbes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.Metrics == nil {
		return
	}
	r.With(middleware.RequireAuth, middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", h.handleMetrics)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}
