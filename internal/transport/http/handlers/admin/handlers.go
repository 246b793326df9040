package adminhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/platform/jobs"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

type Handler struct {
	Auth  *auth.Store
	Audit *audit.Service
	Jobs  *jobs.Service
}

func NewHandler(authStore *auth.Store, auditSvc *audit.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Auth: authStore, Audit: auditSvc, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRoleRead)).Get("/roles", h.handleListRoles)
		r.With(middleware.RequirePermission(auth.PermRoleCreate)).Post("/roles", h.handleCreateRole)
		r.With(middleware.RequirePermission(auth.PermRoleUpdate)).Put("/roles/{roleID}", h.handleUpdateRole)
		r.With(middleware.RequirePermission(auth.PermRoleDelete)).Delete("/roles/{roleID}", h.handleDeleteRole)
		r.With(middleware.RequirePermission(auth.PermRoleAssign)).Post("/roles/{roleID}/assign", h.handleAssignRole)
		r.With(middleware.RequirePermission(auth.PermRoleAssign)).Post("/roles/{roleID}/unassign", h.handleUnassignRole)
		r.With(middleware.RequirePermission(auth.PermRoleRead)).Get("/permissions", h.handleListPermissions)
		r.With(middleware.RequirePermission(auth.PermAuditRead)).Get("/audit", h.handleAuditLog)
		r.With(middleware.RequirePermission(auth.PermTimeOffBalanceAdjust)).Post("/jobs/rollover", h.handleRunRollover)
		r.With(middleware.RequirePermission(auth.PermDocumentReadAll)).Post("/jobs/signature-reminders", h.handleRunSignatureReminders)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	switch {
	case errors.Is(err, auth.ErrRoleNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "role not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, auth.ErrSystemRole):
		api.Fail(w, http.StatusBadRequest, "system_role", "system roles cannot be deleted", middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Auth.ListRoles(r.Context())
	if err != nil {
		h.fail(w, r, err, "roles_failed", "failed to list roles")
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

type rolePayload struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload rolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "role name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	role, err := h.Auth.CreateRole(r.Context(), payload.Name, payload.Permissions)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "role_create_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "role.create", "role", role.ID, payload)
	api.Created(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload rolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "roleID")
	role, err := h.Auth.UpdateRolePermissions(r.Context(), id, payload.Permissions)
	if err != nil {
		h.fail(w, r, err, "role_update_failed", "failed to update role")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "role.update", "role", id, payload)
	api.Success(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "roleID")
	if err := h.Auth.DeleteRole(r.Context(), id); err != nil {
		h.fail(w, r, err, "role_delete_failed", "failed to delete role")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "role.delete", "role", id, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type assignPayload struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	h.toggleAssignment(w, r, true)
}

func (h *Handler) handleUnassignRole(w http.ResponseWriter, r *http.Request) {
	h.toggleAssignment(w, r, false)
}

func (h *Handler) toggleAssignment(w http.ResponseWriter, r *http.Request, assign bool) {
	user, _ := middleware.GetUser(r.Context())
	var payload assignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	roleID := chi.URLParam(r, "roleID")
	var err error
	action := "role.assign"
	status := "assigned"
	if assign {
		err = h.Auth.AssignRole(r.Context(), payload.EmployeeID, roleID)
	} else {
		err = h.Auth.UnassignRole(r.Context(), payload.EmployeeID, roleID)
		action = "role.unassign"
		status = "unassigned"
	}
	if err != nil {
		h.fail(w, r, err, "role_assign_failed", "failed to update role assignment")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, action, "role", roleID, payload)
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	api.Success(w, auth.AllPermissions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	events, err := h.Audit.List(r.Context(), r.URL.Query().Get("entity"), page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err, "audit_failed", "failed to list audit events")
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunRollover(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.TriggerRollover(r.Context())
	if err != nil {
		h.fail(w, r, err, "rollover_failed", "failed to run balance rollover")
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunSignatureReminders(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.TriggerSignatureReminders(r.Context())
	if err != nil {
		h.fail(w, r, err, "reminders_failed", "failed to run signature reminders")
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}
