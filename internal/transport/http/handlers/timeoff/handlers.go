package timeoffhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/timeoff"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

const maxAttachmentMultipartBytes = 12 << 20

type Handler struct {
	Service *timeoff.Service
	Audit   *audit.Service
}

func NewHandler(service *timeoff.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/time-off", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeOffTypeRead)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermTimeOffTypeCreate)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermTimeOffTypeUpdate)).Put("/types/{typeID}", h.handleUpdateType)
		r.With(middleware.RequirePermission(auth.PermTimeOffTypeDelete)).Delete("/types/{typeID}", h.handleDeactivateType)

		r.With(middleware.RequirePermission(auth.PermTimeOffBalanceReadOwn)).Get("/balances", h.handleMyBalances)
		r.With(middleware.RequirePermission(auth.PermTimeOffBalanceReadAll)).Get("/balances/{employeeID}", h.handleEmployeeBalances)
		r.With(middleware.RequirePermission(auth.PermTimeOffBalanceAdjust)).Post("/balances/{balanceID}/adjust", h.handleAdjustBalance)

		r.With(middleware.RequirePermission(auth.PermTimeOffRequestCreate)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestReadOwn)).Get("/requests/mine", h.handleMine)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestReadTeam)).Get("/requests/team", h.handleTeam)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestReadAll)).Get("/requests", h.handleAll)
		r.With(middleware.RequireAuth).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestApprove)).Post("/requests/{requestID}/review", h.handleReview)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestCreate)).Post("/requests/{requestID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestCreate)).Post("/requests/{requestID}/attachment", h.handleUploadAttachment)
		r.With(middleware.RequireAuth).Get("/attachments/{attachmentID}/download", h.handleDownloadAttachment)
		r.With(middleware.RequirePermission(auth.PermTimeOffRequestCreate)).Delete("/attachments/{attachmentID}", h.handleDeleteAttachment)

		r.With(middleware.RequireAnyPermission(auth.PermTimeOffRequestReadTeam, auth.PermTimeOffRequestReadAll)).Get("/calendar", h.handleCalendar)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var rule *timeoff.RuleError
	switch {
	case errors.Is(err, timeoff.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "time off record not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, timeoff.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you may not access this time off record", middleware.GetRequestID(r.Context()))
	case errors.As(err, &rule):
		api.Fail(w, http.StatusBadRequest, "rule_violation", rule.Message, middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	types, err := h.Service.ListTypes(r.Context(), includeInactive)
	if err != nil {
		h.fail(w, r, err, "types_failed", "failed to list time off types")
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

type typePayload struct {
	Name                        string  `json:"name"`
	Description                 string  `json:"description"`
	Color                       string  `json:"color"`
	DefaultAllocation           float64 `json:"defaultAllocation"`
	MaxCarryOver                float64 `json:"maxCarryOver"`
	AttachmentRequirement       string  `json:"attachmentRequirement"`
	AttachmentRequiredAfterDays int     `json:"attachmentRequiredAfterDays"`
	RequiresApproval            *bool   `json:"requiresApproval"`
	Unlimited                   bool    `json:"isUnlimited"`
}

func (p typePayload) toType(id string) timeoff.Type {
	// Approval is opt-out: a payload that omits the flag keeps it on.
	requiresApproval := true
	if p.RequiresApproval != nil {
		requiresApproval = *p.RequiresApproval
	}
	return timeoff.Type{
		ID:                          id,
		Name:                        p.Name,
		Description:                 p.Description,
		Color:                       p.Color,
		DefaultAllocation:           p.DefaultAllocation,
		MaxCarryOver:                p.MaxCarryOver,
		AttachmentRequirement:       p.AttachmentRequirement,
		AttachmentRequiredAfterDays: p.AttachmentRequiredAfterDays,
		RequiresApproval:            requiresApproval,
		Unlimited:                   p.Unlimited,
		Active:                      true,
	}
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload typePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	created, err := h.Service.CreateType(r.Context(), payload.toType(""))
	if err != nil {
		h.fail(w, r, err, "type_create_failed", "failed to create time off type")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.type.create", "time_off_type", created.ID, payload)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload typePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "typeID")
	updated, err := h.Service.UpdateType(r.Context(), payload.toType(id))
	if err != nil {
		h.fail(w, r, err, "type_update_failed", "failed to update time off type")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.type.update", "time_off_type", id, payload)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateType(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "typeID")
	if err := h.Service.DeactivateType(r.Context(), id); err != nil {
		h.fail(w, r, err, "type_delete_failed", "failed to deactivate time off type")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.type.deactivate", "time_off_type", id, nil)
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func yearParam(r *http.Request) int {
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			return year
		}
	}
	return time.Now().Year()
}

func (h *Handler) handleMyBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	balances, err := h.Service.Balances(r.Context(), user.EmployeeID, yearParam(r))
	if err != nil {
		h.fail(w, r, err, "balances_failed", "failed to load balances")
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.Service.Balances(r.Context(), chi.URLParam(r, "employeeID"), yearParam(r))
	if err != nil {
		h.fail(w, r, err, "balances_failed", "failed to load balances")
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

type adjustPayload struct {
	Allocated float64 `json:"allocated"`
	CarryOver float64 `json:"carryOver"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload adjustPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "balanceID")
	balance, err := h.Service.AdjustBalance(r.Context(), id, payload.Allocated, payload.CarryOver)
	if err != nil {
		h.fail(w, r, err, "balance_adjust_failed", "failed to adjust balance")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.balance.adjust", "time_off_balance", id, payload)
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

type createRequestPayload struct {
	TypeID    string `json:"typeId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	HalfDay   string `json:"halfDay"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("typeId", payload.TypeID, "time off type is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if payload.HalfDay != "" {
		v.Enum("halfDay", payload.HalfDay, []string{timeoff.HalfDayMorning, timeoff.HalfDayAfternoon}, "half day must be MORNING or AFTERNOON")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), user.EmployeeID, timeoff.CreateRequestInput{
		TypeID:    payload.TypeID,
		StartDate: start,
		EndDate:   end,
		HalfDay:   payload.HalfDay,
		Reason:    payload.Reason,
	}, time.Now())
	if err != nil {
		h.fail(w, r, err, "request_create_failed", "failed to create time off request")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.request.create", "time_off_request", req.ID, map[string]any{"typeId": req.TypeID, "businessDays": req.BusinessDays})
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.Mine(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "requests_failed", "failed to list time off requests")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.Team(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "requests_failed", "failed to list team time off requests")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.All(r.Context(), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err, "requests_failed", "failed to list time off requests")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "request_get_failed", "failed to load time off request")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type reviewPayload struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "requestID")
	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Review(r.Context(), id, user.EmployeeID, payload.Decision, payload.Note, time.Now())
	if err != nil {
		h.fail(w, r, err, "request_review_failed", "failed to review time off request")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.request.review", "time_off_request", id, map[string]string{"decision": payload.Decision})
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "requestID")
	req, err := h.Service.Cancel(r.Context(), id, user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "request_cancel_failed", "failed to cancel time off request")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.request.cancel", "time_off_request", id, nil)
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "requestID")

	if err := r.ParseMultipartForm(maxAttachmentMultipartBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "multipart form upload required", middleware.GetRequestID(r.Context()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a file upload named 'file' is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	attachment, err := h.Service.UploadAttachment(r.Context(), id, user.EmployeeID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(w, r, err, "attachment_upload_failed", "failed to upload attachment")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.attachment.upload", "time_off_request", id, map[string]any{"fileName": attachment.FileName, "size": attachment.Size})
	api.Created(w, attachment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	attachment, content, err := h.Service.DownloadAttachment(r.Context(), chi.URLParam(r, "attachmentID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "attachment_download_failed", "failed to download attachment")
		return
	}

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "attachmentID")
	if err := h.Service.DeleteAttachment(r.Context(), id, user.EmployeeID); err != nil {
		h.fail(w, r, err, "attachment_delete_failed", "failed to delete attachment")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "timeoff.attachment.delete", "time_off_attachment", id, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// handleCalendar lists approved absences overlapping a date range, the feed
// behind the team calendar view.
func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	start, _ := v.Date("start", r.URL.Query().Get("start"))
	end, _ := v.Date("end", r.URL.Query().Get("end"))
	v.DateOrder("start", start, "end", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	requests, err := h.Service.ApprovedInRange(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err, "calendar_failed", "failed to load calendar")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}
