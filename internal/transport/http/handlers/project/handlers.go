package projecthandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/project"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

type Handler struct {
	Service *project.Service
	Audit   *audit.Service
}

func NewHandler(service *project.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermClientRead)).Get("/", h.handleListClients)
		r.With(middleware.RequirePermission(auth.PermClientCreate)).Post("/", h.handleCreateClient)
		r.With(middleware.RequirePermission(auth.PermClientRead)).Get("/{clientID}", h.handleGetClient)
		r.With(middleware.RequirePermission(auth.PermClientUpdate)).Put("/{clientID}", h.handleUpdateClient)
		r.With(middleware.RequirePermission(auth.PermClientDelete)).Delete("/{clientID}", h.handleDeactivateClient)
	})

	r.Route("/projects", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/", h.handleListProjects)
		r.With(middleware.RequirePermission(auth.PermProjectCreate)).Post("/", h.handleCreateProject)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/mine", h.handleMyProjects)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/hours", h.handleHoursReport)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/time-logs/mine", h.handleMyTimeLogs)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Post("/time-logs", h.handleLogTime)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Delete("/time-logs/{logID}", h.handleDeleteTimeLog)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/{projectID}", h.handleGetProject)
		r.With(middleware.RequirePermission(auth.PermProjectUpdate)).Put("/{projectID}", h.handleUpdateProject)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/{projectID}/assignments", h.handleAssignments)
		r.With(middleware.RequirePermission(auth.PermProjectAssign)).Post("/{projectID}/assignments", h.handleAssign)
		r.With(middleware.RequirePermission(auth.PermProjectAssign)).Delete("/{projectID}/assignments/{employeeID}", h.handleUnassign)
		r.With(middleware.RequirePermission(auth.PermProjectRead)).Get("/{projectID}/time-logs", h.handleProjectTimeLogs)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var rule *project.RuleError
	switch {
	case errors.Is(err, project.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, project.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you may not modify this record", middleware.GetRequestID(r.Context()))
	case errors.As(err, &rule):
		api.Fail(w, http.StatusBadRequest, "rule_violation", rule.Message, middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

type clientPayload struct {
	Name         string `json:"name"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	Notes        string `json:"notes"`
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	clients, err := h.Service.ListClients(r.Context(), includeInactive)
	if err != nil {
		h.fail(w, r, err, "clients_failed", "failed to list clients")
		return
	}
	api.Success(w, clients, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.GetClient(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		h.fail(w, r, err, "client_get_failed", "failed to load client")
		return
	}
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload clientPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	client, err := h.Service.CreateClient(r.Context(), project.Client{
		Name:         payload.Name,
		ContactName:  payload.ContactName,
		ContactEmail: payload.ContactEmail,
		Notes:        payload.Notes,
		Active:       true,
	})
	if err != nil {
		h.fail(w, r, err, "client_create_failed", "failed to create client")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "client.create", "client", client.ID, payload)
	api.Created(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload clientPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "clientID")
	client, err := h.Service.UpdateClient(r.Context(), project.Client{
		ID:           id,
		Name:         payload.Name,
		ContactName:  payload.ContactName,
		ContactEmail: payload.ContactEmail,
		Notes:        payload.Notes,
		Active:       true,
	})
	if err != nil {
		h.fail(w, r, err, "client_update_failed", "failed to update client")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "client.update", "client", id, payload)
	api.Success(w, client, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateClient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "clientID")
	if err := h.Service.DeactivateClient(r.Context(), id); err != nil {
		h.fail(w, r, err, "client_delete_failed", "failed to deactivate client")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "client.deactivate", "client", id, nil)
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

type projectPayload struct {
	ClientID    string `json:"clientId"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Status      string `json:"status"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (p projectPayload) toProject(id string, v *shared.Validator) project.Project {
	out := project.Project{
		ID:          id,
		ClientID:    p.ClientID,
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		Status:      p.Status,
	}
	if p.StartDate != "" {
		if parsed, ok := v.Date("startDate", p.StartDate); ok {
			out.StartDate = &parsed
		}
	}
	if p.EndDate != "" {
		if parsed, ok := v.Date("endDate", p.EndDate); ok {
			out.EndDate = &parsed
		}
	}
	return out
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err, "projects_failed", "failed to list projects")
		return
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyProjects(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	projects, err := h.Service.MyProjects(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "projects_failed", "failed to list projects")
		return
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := h.Service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(w, r, err, "project_get_failed", "failed to load project")
		return
	}
	api.Success(w, proj, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload projectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "project name is required")
	input := payload.toProject("", v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	proj, err := h.Service.CreateProject(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "project_create_failed", "failed to create project")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "project.create", "project", proj.ID, payload)
	api.Created(w, proj, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload projectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "project name is required")
	id := chi.URLParam(r, "projectID")
	input := payload.toProject(id, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	proj, err := h.Service.UpdateProject(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "project_update_failed", "failed to update project")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "project.update", "project", id, payload)
	api.Success(w, proj, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Service.Assignments(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.fail(w, r, err, "assignments_failed", "failed to list assignments")
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

type assignPayload struct {
	EmployeeID string `json:"employeeId"`
	Role       string `json:"role"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload assignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	projectID := chi.URLParam(r, "projectID")
	assignment, err := h.Service.Assign(r.Context(), projectID, payload.EmployeeID, payload.Role)
	if err != nil {
		h.fail(w, r, err, "assign_failed", "failed to assign employee")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "project.assign", "project", projectID, payload)
	api.Created(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	projectID := chi.URLParam(r, "projectID")
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.Unassign(r.Context(), projectID, employeeID); err != nil {
		h.fail(w, r, err, "unassign_failed", "failed to remove assignment")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "project.unassign", "project", projectID, map[string]string{"employeeId": employeeID})
	api.Success(w, map[string]string{"status": "unassigned"}, middleware.GetRequestID(r.Context()))
}

type timeLogPayload struct {
	ProjectID string  `json:"projectId"`
	LogDate   string  `json:"logDate"`
	Hours     float64 `json:"hours"`
	Note      string  `json:"note"`
}

func (h *Handler) handleLogTime(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload timeLogPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("projectId", payload.ProjectID, "project is required")
	logDate, _ := v.Date("logDate", payload.LogDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	log, err := h.Service.LogTime(r.Context(), user.EmployeeID, project.TimeLogInput{
		ProjectID: payload.ProjectID,
		LogDate:   logDate,
		Hours:     payload.Hours,
		Note:      payload.Note,
	})
	if err != nil {
		h.fail(w, r, err, "time_log_failed", "failed to log time")
		return
	}
	api.Created(w, log, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteTimeLog(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteTimeLog(r.Context(), chi.URLParam(r, "logID"), user.EmployeeID); err != nil {
		h.fail(w, r, err, "time_log_delete_failed", "failed to delete time log")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func rangeParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	v := shared.NewValidator()
	start, _ := v.Date("start", r.URL.Query().Get("start"))
	end, _ := v.Date("end", r.URL.Query().Get("end"))
	v.DateOrder("start", start, "end", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handler) handleProjectTimeLogs(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}
	logs, err := h.Service.ProjectTimeLogs(r.Context(), chi.URLParam(r, "projectID"), start, end)
	if err != nil {
		h.fail(w, r, err, "time_logs_failed", "failed to list time logs")
		return
	}
	api.Success(w, logs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyTimeLogs(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}
	logs, err := h.Service.MyTimeLogs(r.Context(), user.EmployeeID, start, end)
	if err != nil {
		h.fail(w, r, err, "time_logs_failed", "failed to list time logs")
		return
	}
	api.Success(w, logs, middleware.GetRequestID(r.Context()))
}

// handleHoursReport aggregates booked hours per project over a range.
func (h *Handler) handleHoursReport(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}
	report, err := h.Service.HoursReport(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err, "hours_report_failed", "failed to build hours report")
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}
