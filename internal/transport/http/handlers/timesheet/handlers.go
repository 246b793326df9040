package timesheethandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/timesheet"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

type Handler struct {
	Service *timesheet.Service
	Audit   *audit.Service
}

func NewHandler(service *timesheet.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimesheetReadAll)).Get("/", h.handleAll)
		r.With(middleware.RequirePermission(auth.PermTimesheetCreate)).Post("/", h.handleGetOrCreate)
		r.With(middleware.RequirePermission(auth.PermTimesheetReadOwn)).Get("/current", h.handleCurrent)
		r.With(middleware.RequirePermission(auth.PermTimesheetReadOwn)).Get("/mine", h.handleMine)
		r.With(middleware.RequirePermission(auth.PermTimesheetReadTeam)).Get("/team", h.handleTeam)
		r.With(middleware.RequirePermission(auth.PermTimesheetCreate)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermTimesheetCreate)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequireAuth).Get("/{timesheetID}", h.handleGet)
		r.With(middleware.RequireAuth).Get("/{timesheetID}/export", h.handleExportPDF)
		r.With(middleware.RequirePermission(auth.PermTimesheetCreate)).Put("/{timesheetID}/entries", h.handleUpdateEntries)
		r.With(middleware.RequirePermission(auth.PermTimesheetSubmit)).Post("/{timesheetID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermTimesheetApprove)).Post("/{timesheetID}/review", h.handleReview)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var rule *timesheet.RuleError
	switch {
	case errors.Is(err, timesheet.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, timesheet.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you may not access this timesheet", middleware.GetRequestID(r.Context()))
	case errors.As(err, &rule):
		api.Fail(w, http.StatusBadRequest, "rule_violation", rule.Message, middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

type weekPayload struct {
	WeekStart string `json:"weekStart"`
}

func (h *Handler) handleGetOrCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload weekPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("weekStart", payload.WeekStart, "week start date is required")
	weekStart, _ := v.Date("weekStart", payload.WeekStart)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ts, err := h.Service.GetOrCreate(r.Context(), user.EmployeeID, weekStart, time.Now())
	if err != nil {
		h.fail(w, r, err, "timesheet_create_failed", "failed to open timesheet")
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ts, err := h.Service.CurrentWeek(r.Context(), user.EmployeeID, time.Now())
	if err != nil {
		h.fail(w, r, err, "timesheet_current_failed", "failed to load current timesheet")
		return
	}
	if ts == nil {
		// No sheet opened for this week yet.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	sheets, err := h.Service.Mine(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "timesheet_list_failed", "failed to list timesheets")
		return
	}
	api.Success(w, sheets, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	sheets, err := h.Service.Team(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "timesheet_team_failed", "failed to list team timesheets")
		return
	}
	api.Success(w, sheets, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.All(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err, "timesheet_list_failed", "failed to list timesheets")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ts, err := h.Service.Get(r.Context(), chi.URLParam(r, "timesheetID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "timesheet_get_failed", "failed to load timesheet")
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

type entriesPayload struct {
	Entries []struct {
		EntryDate string `json:"entryDate"`
		ClockIn   string `json:"clockIn"`
		ClockOut  string `json:"clockOut"`
	} `json:"entries"`
}

func (h *Handler) handleUpdateEntries(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload entriesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	inputs := make([]timesheet.EntryInput, 0, len(payload.Entries))
	for i, entry := range payload.Entries {
		date, ok := v.Date(fmt.Sprintf("entries[%d].entryDate", i), entry.EntryDate)
		if !ok {
			continue
		}
		v.ClockTime(fmt.Sprintf("entries[%d].clockIn", i), entry.ClockIn)
		v.ClockTime(fmt.Sprintf("entries[%d].clockOut", i), entry.ClockOut)
		inputs = append(inputs, timesheet.EntryInput{
			EntryDate: date,
			ClockIn:   entry.ClockIn,
			ClockOut:  entry.ClockOut,
		})
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ts, err := h.Service.UpdateEntries(r.Context(), chi.URLParam(r, "timesheetID"), user.EmployeeID, inputs, time.Now())
	if err != nil {
		h.fail(w, r, err, "timesheet_update_failed", "failed to update entries")
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ts, err := h.Service.ClockIn(r.Context(), user.EmployeeID, time.Now())
	if err != nil {
		h.fail(w, r, err, "clock_in_failed", "failed to clock in")
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ts, err := h.Service.ClockOut(r.Context(), user.EmployeeID, time.Now())
	if err != nil {
		h.fail(w, r, err, "clock_out_failed", "failed to clock out")
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "timesheetID")
	ts, err := h.Service.Submit(r.Context(), id, user.EmployeeID, time.Now())
	if err != nil {
		h.fail(w, r, err, "timesheet_submit_failed", "failed to submit timesheet")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timesheet.submit", "timesheet", id, nil)
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

type reviewPayload struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "timesheetID")
	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	ts, err := h.Service.Review(r.Context(), id, user.EmployeeID, payload.Decision, payload.Note, time.Now())
	if err != nil {
		h.fail(w, r, err, "timesheet_review_failed", "failed to review timesheet")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timesheet.review", "timesheet", id, map[string]string{"decision": payload.Decision})
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

// handleExportPDF streams the weekly sheet as a PDF attachment. Visibility is
// the same as for the JSON view; only an approved sheet can be exported.
func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ts, err := h.Service.Get(r.Context(), chi.URLParam(r, "timesheetID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "timesheet_get_failed", "failed to load timesheet")
		return
	}
	if ts.Status != timesheet.StatusApproved {
		api.Fail(w, http.StatusBadRequest, "rule_violation", "only an approved timesheet can be exported", middleware.GetRequestID(r.Context()))
		return
	}

	pdf, err := timesheet.RenderPDF(ts)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to render timesheet pdf", middleware.GetRequestID(r.Context()))
		return
	}

	fileName := fmt.Sprintf("timesheet-%s.pdf", ts.WeekStart.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
