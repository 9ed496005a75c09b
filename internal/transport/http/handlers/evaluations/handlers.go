package evaluationshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/evaluations"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Service interface {
	Submit(ctx context.Context, evaluatorID string, in evaluations.SubmitInput) (string, error)
	ListByEvaluator(ctx context.Context, evaluatorID string) ([]evaluations.Evaluation, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

type submitRequest struct {
	EvaluatedID string             `json:"evaluated_id" validate:"required,uuid"`
	Answers     map[string]float64 `json:"answers" validate:"required,min=1"`
	Comment     string             `json:"comment" validate:"max=5000"`
}

// RegisterRoutes mounts the submission routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/evaluations", h.handleSubmit)
		r.Get("/evaluations/mine", h.handleListMine)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload submitRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.Submit(r.Context(), user.UserID, evaluations.SubmitInput{
		EvaluatedID: payload.EvaluatedID,
		Answers:     payload.Answers,
		Comment:     payload.Comment,
	})
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.ListByEvaluator(r.Context(), user.UserID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}
