package cycleshandler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/cycles"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Service interface {
	CreateCycle(ctx context.Context, actor auth.UserContext, in cycles.Input) (string, error)
	UpdateCycle(ctx context.Context, actor auth.UserContext, cycleID string, in cycles.Input) error
	DeleteCycle(ctx context.Context, actor auth.UserContext, cycleID string) error
	ListCycles(ctx context.Context) ([]cycles.Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (cycles.Cycle, error)
	ActiveCycle(ctx context.Context) (cycles.Cycle, error)
	ListActiveQuestions(ctx context.Context) ([]cycles.Question, error)
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
}

func NewHandler(service Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

// cycleRequest is validated by the cycle service.
type cycleRequest struct {
	Name      string   `json:"name"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Questions []string `json:"questions"`
	Active    *bool    `json:"active"`
}

func (p cycleRequest) input() cycles.Input {
	return cycles.Input{
		Name:      p.Name,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Questions: p.Questions,
		Active:    p.Active,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/questions", h.handleActiveQuestions)
		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.handleListCycles)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreateCycle)
			r.Get("/active", h.handleActiveCycle)
			r.Get("/{cycleID}", h.handleGetCycle)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/{cycleID}", h.handleUpdateCycle)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{cycleID}", h.handleDeleteCycle)
		})
	})
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListCycles(r.Context())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	cycleID, err := shared.PathUUID("cycleID", chi.URLParam(r, "cycleID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	cycle, err := h.Service.GetCycle(r.Context(), cycleID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActiveCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.Service.ActiveCycle(r.Context())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActiveQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.Service.ListActiveQuestions(r.Context())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, questions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload cycleRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.CreateCycle(r.Context(), actor, payload.input())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	detail := fmt.Sprintf("cycle=%s questions=%d", id, len(payload.Questions))
	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionCycleCreate, detail)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCycle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	cycleID, err := shared.PathUUID("cycleID", chi.URLParam(r, "cycleID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	var payload cycleRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.UpdateCycle(r.Context(), actor, cycleID, payload.input()); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionCycleUpdate, "cycle="+cycleID)
	api.Success(w, map[string]string{"id": cycleID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	cycleID, err := shared.PathUUID("cycleID", chi.URLParam(r, "cycleID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.DeleteCycle(r.Context(), actor, cycleID); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionCycleDelete, "cycle="+cycleID)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
