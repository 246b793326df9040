package dashboardhandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/event"
	"bonarda/internal/domain/timeoff"
	"bonarda/internal/domain/timesheet"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
)

// Handler assembles the landing-page view: the caller's week at a glance.
type Handler struct {
	Timesheets *timesheet.Service
	TimeOff    *timeoff.Service
	Events     *event.Service
}

func NewHandler(timesheets *timesheet.Service, timeOff *timeoff.Service, events *event.Service) *Handler {
	return &Handler{Timesheets: timesheets, TimeOff: timeOff, Events: events}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	now := time.Now()
	week := timesheet.WeekOf(now)

	sheet, err := h.Timesheets.CurrentWeek(r.Context(), user.EmployeeID, now)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}

	events, err := h.Events.InRange(r.Context(), week.Monday, week.Sunday)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}

	absences, err := h.TimeOff.ApprovedInRange(r.Context(), week.Monday, week.Sunday)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}

	myRequests, err := h.TimeOff.Mine(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	pending := 0
	for _, req := range myRequests {
		if req.Status == timeoff.StatusPending {
			pending++
		}
	}

	api.Success(w, map[string]any{
		"weekStart":       week.Monday,
		"weekEnd":         week.Sunday,
		"timesheet":       sheet,
		"events":          events,
		"absences":        absences,
		"pendingRequests": pending,
	}, middleware.GetRequestID(r.Context()))
}
