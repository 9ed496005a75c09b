package authhandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/directory"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password, mfaCode string) (auth.LoginResult, error)
	SetupMFA(ctx context.Context, userID string) (auth.MFASetup, error)
	EnableMFA(ctx context.Context, userID, code string) error
}

type Profiles interface {
	GetUser(ctx context.Context, userID string) (directory.User, error)
}

type Handler struct {
	Service  Service
	Profiles Profiles
	Audit    shared.AuditRecorder
}

func NewHandler(service Service, profiles Profiles, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Profiles: profiles, Audit: recorder}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfa_code"`
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// RegisterRoutes mounts login outside the auth gate and the rest behind it.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/auth/mfa/setup", h.HandleMFASetup)
		r.Post("/auth/mfa/enable", h.HandleMFAEnable)
		r.Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		slog.Info("login rejected", "err", err)
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, result.User.ID, audit.ActionLogin, "login")
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	setup, err := h.Service.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload mfaCodeRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.EnableMFA(r.Context(), user.UserID, payload.Code); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, user.UserID, audit.ActionMFAEnable, "mfa enabled")
	api.Success(w, map[string]string{"status": "enabled"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	profile, err := h.Profiles.GetUser(r.Context(), user.UserID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}
