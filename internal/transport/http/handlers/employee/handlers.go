package employeehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/employee"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

type Handler struct {
	Service *employee.Service
	Audit   *audit.Service
}

func NewHandler(service *employee.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeeRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeeCreate)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeeCreate)).Post("/import", h.handleImport)
		r.With(middleware.RequirePermission(auth.PermEmployeeRead)).Get("/export", h.handleExport)
		r.With(middleware.RequireAnyPermission(auth.PermEmployeeReadTeam, auth.PermEmployeeRead)).Get("/team", h.handleTeam)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Get("/sections", h.handleListSections)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Post("/sections", h.handleCreateSection)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Put("/sections/{sectionID}", h.handleUpdateSection)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Delete("/sections/{sectionID}", h.handleDeleteSection)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Post("/fields", h.handleCreateField)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Put("/fields/{fieldID}", h.handleUpdateField)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Delete("/fields/{fieldID}", h.handleDeleteField)
		r.With(middleware.RequirePermission(auth.PermEmployeeRead)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeeUpdate)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEmployeeDelete)).Delete("/{employeeID}", h.handleDeactivate)
		r.With(middleware.RequirePermission(auth.PermEmployeeRead)).Get("/{employeeID}/fields", h.handleFieldValues)
		r.With(middleware.RequireAuth).Put("/{employeeID}/fields/{fieldID}", h.handleSetFieldValue)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var rule *employee.RuleError
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee record not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, employee.ErrDuplicateEmail):
		api.Fail(w, http.StatusConflict, "duplicate_email", "an employee with this email already exists", middleware.GetRequestID(r.Context()))
	case errors.As(err, &rule):
		api.Fail(w, http.StatusBadRequest, "rule_violation", rule.Message, middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), employee.ListFilter{
		Search:     r.URL.Query().Get("search"),
		Department: r.URL.Query().Get("department"),
		Status:     r.URL.Query().Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		h.fail(w, r, err, "employee_list_failed", "failed to list employees")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	reports, err := h.Service.Reports(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "employee_team_failed", "failed to list direct reports")
		return
	}
	api.Success(w, reports, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

type employeePayload struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	JobTitle   string `json:"jobTitle"`
	Department string `json:"department"`
	Location   string `json:"location"`
	Phone      string `json:"phone"`
	StartDate  string `json:"startDate"`
	ReportsTo  string `json:"reportsTo"`
	Password   string `json:"password"`
	Status     string `json:"status"`
}

func (p employeePayload) startDate(v *shared.Validator) *time.Time {
	if p.StartDate == "" {
		return nil
	}
	parsed, ok := v.Date("startDate", p.StartDate)
	if !ok {
		return nil
	}
	return &parsed
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	startDate := payload.startDate(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Service.Create(r.Context(), employee.CreateInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		JobTitle:   payload.JobTitle,
		Department: payload.Department,
		Location:   payload.Location,
		Phone:      payload.Phone,
		StartDate:  startDate,
		ReportsTo:  payload.ReportsTo,
		Password:   payload.Password,
	})
	if err != nil {
		h.fail(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "employee.create", "employee", emp.ID, map[string]string{"email": emp.Email})
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "employeeID")
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	startDate := payload.startDate(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Service.Update(r.Context(), id, employee.UpdateInput{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		JobTitle:   payload.JobTitle,
		Department: payload.Department,
		Location:   payload.Location,
		Phone:      payload.Phone,
		StartDate:  startDate,
		ReportsTo:  payload.ReportsTo,
		Status:     payload.Status,
	})
	if err != nil {
		h.fail(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "employee.update", "employee", emp.ID, nil)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "employeeID")
	if err := h.Service.Deactivate(r.Context(), id); err != nil {
		h.fail(w, r, err, "employee_deactivate_failed", "failed to deactivate employee")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "employee.deactivate", "employee", id, nil)
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

// handleImport accepts a CSV upload and reports per-row outcomes. Rows that
// fail validation are skipped without aborting the rest of the file.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	file, _, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a csv file upload named 'file' is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	report, err := h.Service.ImportCSV(r.Context(), file)
	if err != nil {
		h.fail(w, r, err, "employee_import_failed", "failed to import employees")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "employee.import", "employee", "", report)
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="employees.csv"`)
	if err := h.Service.ExportCSV(r.Context(), w); err != nil {
		// Headers are already on the wire; all we can do is cut the stream.
		slog.Warn("employee export aborted", "error", err, "requestId", middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.Service.Sections(r.Context())
	if err != nil {
		h.fail(w, r, err, "sections_failed", "failed to list profile sections")
		return
	}
	api.Success(w, sections, middleware.GetRequestID(r.Context()))
}

type sectionPayload struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (h *Handler) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var payload sectionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	section, err := h.Service.CreateSection(r.Context(), payload.Name, payload.Position)
	if err != nil {
		h.fail(w, r, err, "section_create_failed", "failed to create section")
		return
	}
	api.Created(w, section, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	var payload sectionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	section, err := h.Service.UpdateSection(r.Context(), chi.URLParam(r, "sectionID"), payload.Name, payload.Position)
	if err != nil {
		h.fail(w, r, err, "section_update_failed", "failed to update section")
		return
	}
	api.Success(w, section, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSection(r.Context(), chi.URLParam(r, "sectionID")); err != nil {
		h.fail(w, r, err, "section_delete_failed", "failed to delete section")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type fieldPayload struct {
	SectionID string   `json:"sectionId"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required"`
	Options   []string `json:"options"`
	Editable  string   `json:"editable"`
	Position  int      `json:"position"`
}

func (h *Handler) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var payload fieldPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	field, err := h.Service.CreateField(r.Context(), employee.Field{
		SectionID: payload.SectionID,
		Label:     payload.Label,
		Kind:      payload.Kind,
		Required:  payload.Required,
		Options:   payload.Options,
		Editable:  payload.Editable,
		Position:  payload.Position,
	})
	if err != nil {
		h.fail(w, r, err, "field_create_failed", "failed to create field")
		return
	}
	api.Created(w, field, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var payload fieldPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	field, err := h.Service.UpdateField(r.Context(), employee.Field{
		ID:        chi.URLParam(r, "fieldID"),
		SectionID: payload.SectionID,
		Label:     payload.Label,
		Kind:      payload.Kind,
		Required:  payload.Required,
		Options:   payload.Options,
		Editable:  payload.Editable,
		Position:  payload.Position,
	})
	if err != nil {
		h.fail(w, r, err, "field_update_failed", "failed to update field")
		return
	}
	api.Success(w, field, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteField(r.Context(), chi.URLParam(r, "fieldID")); err != nil {
		h.fail(w, r, err, "field_delete_failed", "failed to delete field")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFieldValues(w http.ResponseWriter, r *http.Request) {
	values, err := h.Service.FieldValues(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "field_values_failed", "failed to load field values")
		return
	}
	api.Success(w, values, middleware.GetRequestID(r.Context()))
}

type fieldValuePayload struct {
	Value string `json:"value"`
}

func (h *Handler) handleSetFieldValue(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	targetID := chi.URLParam(r, "employeeID")
	perms := middleware.GetPermissions(r.Context())
	canAdmin := perms.Has(auth.PermEmployeeUpdate)
	if targetID != user.EmployeeID && !canAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "you may only edit your own profile fields", middleware.GetRequestID(r.Context()))
		return
	}

	var payload fieldValuePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.SetFieldValue(r.Context(), targetID, chi.URLParam(r, "fieldID"), payload.Value, !canAdmin); err != nil {
		h.fail(w, r, err, "field_value_failed", "failed to set field value")
		return
	}
	api.Success(w, map[string]string{"status": "saved"}, middleware.GetRequestID(r.Context()))
}
