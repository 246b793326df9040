package eventhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/event"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

type Handler struct {
	Service *event.Service
	Audit   *audit.Service
}

func NewHandler(service *event.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEventRead)).Get("/", h.handleInRange)
		r.With(middleware.RequirePermission(auth.PermEventRead)).Get("/upcoming", h.handleUpcoming)
		r.With(middleware.RequirePermission(auth.PermEventCreate)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEventRead)).Get("/{eventID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEventUpdate)).Put("/{eventID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEventDelete)).Delete("/{eventID}", h.handleDelete)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var rule *event.RuleError
	switch {
	case errors.Is(err, event.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "event not found", middleware.GetRequestID(r.Context()))
	case errors.As(err, &rule):
		api.Fail(w, http.StatusBadRequest, "rule_violation", rule.Message, middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

type eventPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Location    string `json:"location"`
	StartsAt    string `json:"startsAt"`
	EndsAt      string `json:"endsAt"`
}

func (p eventPayload) toEvent(id, createdBy string, v *shared.Validator) event.Event {
	v.Required("title", p.Title, "title is required")
	starts, _ := v.Date("startsAt", p.StartsAt)
	ends, _ := v.Date("endsAt", p.EndsAt)
	v.DateOrder("startsAt", starts, "endsAt", ends)
	return event.Event{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Kind:        p.Kind,
		Location:    p.Location,
		StartsAt:    starts,
		EndsAt:      ends,
		CreatedBy:   createdBy,
	}
}

func (h *Handler) handleInRange(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	start, _ := v.Date("start", r.URL.Query().Get("start"))
	end, _ := v.Date("end", r.URL.Query().Get("end"))
	v.DateOrder("start", start, "end", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	events, err := h.Service.InRange(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err, "events_failed", "failed to list events")
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	events, err := h.Service.Upcoming(r.Context(), time.Now(), limit)
	if err != nil {
		h.fail(w, r, err, "events_failed", "failed to list upcoming events")
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Service.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, err, "event_get_failed", "failed to load event")
		return
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	input := payload.toEvent("", user.EmployeeID, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ev, err := h.Service.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "event_create_failed", "failed to create event")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "event.create", "event", ev.ID, payload)
	api.Created(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "eventID")
	v := shared.NewValidator()
	input := payload.toEvent(id, user.EmployeeID, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ev, err := h.Service.Update(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "event_update_failed", "failed to update event")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "event.update", "event", id, payload)
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "eventID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "event_delete_failed", "failed to delete event")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "event.delete", "event", id, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
