package directoryhandler

import (
	"context"
	"fmt"
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
	ListUsers(ctx context.Context) ([]directory.User, error)
	GetUser(ctx context.Context, userID string) (directory.User, error)
	CreateUser(ctx context.Context, in directory.UserInput) (string, error)
	UpdateUser(ctx context.Context, userID string, in directory.UserInput) error
	DeleteUser(ctx context.Context, userID string) error
	Subordinates(ctx context.Context, callerID string) ([]directory.Subordinate, error)
	ListDepartments(ctx context.Context) ([]directory.Department, error)
	CreateDepartment(ctx context.Context, in directory.DepartmentInput) (string, error)
	UpdateDepartment(ctx context.Context, departmentID string, in directory.DepartmentInput) error
	DeleteDepartment(ctx context.Context, departmentID string) error
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
}

func NewHandler(service Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type userRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Email        string  `json:"email" validate:"required,email,max=320"`
	Password     string  `json:"password" validate:"omitempty,min=6,max=72"`
	Role         string  `json:"role" validate:"required"`
	DepartmentID *string `json:"department_id" validate:"omitempty,uuid"`
	SupervisorID *string `json:"supervisor_id" validate:"omitempty,uuid"`
}

func (p userRequest) input() directory.UserInput {
	return directory.UserInput{
		Name:         p.Name,
		Email:        p.Email,
		Password:     p.Password,
		Role:         auth.Role(p.Role),
		DepartmentID: p.DepartmentID,
		SupervisorID: p.SupervisorID,
	}
}

type departmentRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	DirectorID *string `json:"director_id" validate:"omitempty,uuid"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/subordinates", h.handleSubordinates)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.handleListUsers)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreateUser)
			r.Get("/{userID}", h.handleGetUser)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/{userID}", h.handleUpdateUser)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{userID}", h.handleDeleteUser)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Get("/", h.handleListDepartments)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/", h.handleCreateDepartment)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/{departmentID}", h.handleUpdateDepartment)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{departmentID}", h.handleDeleteDepartment)
		})
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.PathUUID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload userRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.CreateUser(r.Context(), payload.input())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionUserCreate, fmt.Sprintf("user=%s role=%s", id, payload.Role))
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	userID, err := shared.PathUUID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	var payload userRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.UpdateUser(r.Context(), userID, payload.input()); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionUserUpdate, "user="+userID)
	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	userID, err := shared.PathUUID("userID", chi.URLParam(r, "userID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if userID == actor.UserID {
		api.Fail(w, http.StatusConflict, "self_delete", "you cannot delete your own account", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.DeleteUser(r.Context(), userID); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionUserDelete, "user="+userID)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubordinates(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	subordinates, err := h.Service.Subordinates(r.Context(), user.UserID)
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, subordinates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload departmentRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.CreateDepartment(r.Context(), directory.DepartmentInput{Name: payload.Name, DirectorID: payload.DirectorID})
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionDepartmentCreate, "department="+id)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	departmentID, err := shared.PathUUID("departmentID", chi.URLParam(r, "departmentID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	var payload departmentRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.UpdateDepartment(r.Context(), departmentID, directory.DepartmentInput{Name: payload.Name, DirectorID: payload.DirectorID}); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionDepartmentUpdate, "department="+departmentID)
	api.Success(w, map[string]string{"id": departmentID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	departmentID, err := shared.PathUUID("departmentID", chi.URLParam(r, "departmentID"))
	if err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.DeleteDepartment(r.Context(), departmentID); err != nil {
		api.FromError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, actor.UserID, audit.ActionDepartmentDelete, "department="+departmentID)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
