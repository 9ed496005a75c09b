package reportshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/reports"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Service interface {
	UserReport(ctx context.Context, userID string) (reports.UserReport, error)
	AreaReport(ctx context.Context) ([]reports.AreaRow, error)
	RenderUserReportPDF(ctx context.Context, userID string) ([]byte, error)
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
}

func NewHandler(service Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/reports/{userID}", h.handleUserReport)
		r.Get("/reports/{userID}/pdf", h.handleUserReportPDF)
		r.Get("/area-reports", h.handleAreaReport)
	})
}

func (h *Handler) handleUserReport(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathUUID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	report, err := h.Service.UserReport(r.Context(), userID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUserReportPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	userID, err := shared.PathUUID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	body, err := h.Service.RenderUserReportPDF(r.Context(), userID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, user.UserID, audit.ActionReportExport, "user="+userID)
	api.PDF(w, "report-"+userID+".pdf", body)
}

func (h *Handler) handleAreaReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.AreaReport(r.Context())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}
