package documenthandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	"bonarda/internal/domain/document"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
	"bonarda/internal/transport/http/shared"
)

const maxDocumentMultipartBytes = 28 << 20

type Handler struct {
	Service *document.Service
	Audit   *audit.Service
}

func NewHandler(service *document.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermDocumentReadAll)).Get("/", h.handleAll)
		r.With(middleware.RequirePermission(auth.PermDocumentCreate)).Post("/", h.handleUpload)
		r.With(middleware.RequirePermission(auth.PermDocumentReadOwn)).Get("/mine", h.handleMine)
		r.With(middleware.RequirePermission(auth.PermDocumentReadOwn)).Get("/shared-with-me", h.handleSharedWithMe)
		r.With(middleware.RequirePermission(auth.PermDocumentSignOwn)).Get("/signatures/mine", h.handleMySignatures)
		r.With(middleware.RequirePermission(auth.PermDocumentSignOwn)).Post("/signatures/{signatureID}/resolve", h.handleResolveSignature)
		r.With(middleware.RequirePermission(auth.PermSharePointBrowse)).Get("/sharepoint", h.handleBrowseSharePoint)
		r.With(middleware.RequireAuth).Get("/{documentID}", h.handleGet)
		r.With(middleware.RequireAuth).Get("/{documentID}/download", h.handleDownload)
		r.With(middleware.RequireAuth).Delete("/{documentID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermDocumentShare)).Post("/{documentID}/shares", h.handleShare)
		r.With(middleware.RequireAuth).Get("/{documentID}/shares", h.handleShares)
		r.With(middleware.RequirePermission(auth.PermDocumentShare)).Post("/{documentID}/signatures", h.handleRequestSignature)
		r.With(middleware.RequireAnyPermission(auth.PermDocumentSignRead, auth.PermDocumentReadAll)).Get("/{documentID}/signatures", h.handleDocumentSignatures)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var rule *document.RuleError
	switch {
	case errors.Is(err, document.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "document not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, document.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you may not access this document", middleware.GetRequestID(r.Context()))
	case errors.As(err, &rule):
		api.Fail(w, http.StatusBadRequest, "rule_violation", rule.Message, middleware.GetRequestID(r.Context()))
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxDocumentMultipartBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "multipart form upload required", middleware.GetRequestID(r.Context()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "a file upload named 'file' is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	doc, err := h.Service.Upload(r.Context(), user.EmployeeID, title, header.Filename, header.Header.Get("Content-Type"), r.FormValue("category"), file)
	if err != nil {
		h.fail(w, r, err, "document_upload_failed", "failed to upload document")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "document.upload", "document", doc.ID, map[string]any{"fileName": doc.FileName, "size": doc.Size})
	api.Created(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	docs, err := h.Service.Mine(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "documents_failed", "failed to list documents")
		return
	}
	api.Success(w, docs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSharedWithMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	docs, err := h.Service.SharedWithMe(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "documents_failed", "failed to list shared documents")
		return
	}
	api.Success(w, docs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	docs, total, err := h.Service.All(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.fail(w, r, err, "documents_failed", "failed to list documents")
		return
	}
	api.Success(w, map[string]any{"items": docs, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	doc, err := h.Service.Get(r.Context(), chi.URLParam(r, "documentID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "document_get_failed", "failed to load document")
		return
	}
	api.Success(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	doc, content, err := h.Service.Download(r.Context(), chi.URLParam(r, "documentID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "document_download_failed", "failed to download document")
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "documentID")
	if err := h.Service.Delete(r.Context(), id, user.EmployeeID, middleware.GetPermissions(r.Context())); err != nil {
		h.fail(w, r, err, "document_delete_failed", "failed to delete document")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "document.delete", "document", id, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type sharePayload struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload sharePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "documentID")
	share, err := h.Service.Share(r.Context(), id, user.EmployeeID, payload.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "document_share_failed", "failed to share document")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "document.share", "document", id, payload)
	api.Created(w, share, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleShares(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	shares, err := h.Service.Shares(r.Context(), chi.URLParam(r, "documentID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "shares_failed", "failed to list shares")
		return
	}
	api.Success(w, shares, middleware.GetRequestID(r.Context()))
}

type signaturePayload struct {
	EmployeeID string `json:"employeeId"`
	Deadline   string `json:"deadline"`
}

func (h *Handler) handleRequestSignature(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload signaturePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "signer is required")
	var deadline *time.Time
	if payload.Deadline != "" {
		if parsed, ok := v.Date("deadline", payload.Deadline); ok {
			deadline = &parsed
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id := chi.URLParam(r, "documentID")
	req, err := h.Service.RequestSignature(r.Context(), id, user.EmployeeID, payload.EmployeeID, deadline, time.Now())
	if err != nil {
		h.fail(w, r, err, "signature_request_failed", "failed to request signature")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "document.signature.request", "document", id, payload)
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

type resolvePayload struct {
	Decision  string `json:"decision"`
	Note      string `json:"note"`
	Signature string `json:"signatureData"`
}

func (h *Handler) handleResolveSignature(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload resolvePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "signatureID")
	req, err := h.Service.Resolve(r.Context(), id, user.EmployeeID, document.Resolution{
		Decision:  payload.Decision,
		Note:      payload.Note,
		Signature: payload.Signature,
		ClientIP:  middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}, time.Now())
	if err != nil {
		h.fail(w, r, err, "signature_resolve_failed", "failed to resolve signature request")
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "document.signature.resolve", "signature_request", id, map[string]string{"decision": payload.Decision})
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMySignatures(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.MySignatureRequests(r.Context(), user.EmployeeID)
	if err != nil {
		h.fail(w, r, err, "signatures_failed", "failed to list signature requests")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDocumentSignatures(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.DocumentSignatures(r.Context(), chi.URLParam(r, "documentID"), user.EmployeeID, middleware.GetPermissions(r.Context()))
	if err != nil {
		h.fail(w, r, err, "signatures_failed", "failed to list signature requests")
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBrowseSharePoint(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.BrowseSharePoint(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		h.fail(w, r, err, "sharepoint_failed", "failed to browse document library")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}
