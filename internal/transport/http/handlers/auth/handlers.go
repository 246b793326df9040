package authhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"bonarda/internal/domain/audit"
	"bonarda/internal/domain/auth"
	cryptoutil "bonarda/internal/platform/crypto"
	"bonarda/internal/transport/http/api"
	"bonarda/internal/transport/http/middleware"
)

const sessionTTL = 8 * time.Hour

type Handler struct {
	Store         *auth.Store
	Secret        string
	Crypto        *cryptoutil.Service
	Audit         *audit.Service
	AllowDevLogin bool
}

func NewHandler(store *auth.Store, secret string, crypto *cryptoutil.Service, auditSvc *audit.Service, allowDevLogin bool) *Handler {
	return &Handler{Store: store, Secret: secret, Crypto: crypto, Audit: auditSvc, AllowDevLogin: allowDevLogin}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		if h.AllowDevLogin {
			r.Post("/dev-login", h.handleDevLogin)
		}
		r.With(middleware.RequireAuth).Post("/logout", h.handleLogout)
		r.With(middleware.RequireAuth).Get("/me", h.handleMe)
		r.With(middleware.RequireAuth).Post("/mfa/setup", h.handleMFASetup)
		r.With(middleware.RequireAuth).Post("/mfa/enable", h.handleMFAEnable)
		r.With(middleware.RequireAuth).Post("/mfa/disable", h.handleMFADisable)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type devLoginRequest struct {
	Email string `json:"email"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	creds, err := h.Store.FindActiveCredentialsByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if creds.PasswordHash == "" || auth.CheckPassword(creds.PasswordHash, payload.Password) != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	if creds.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", middleware.GetRequestID(r.Context()))
			return
		}
		secret, err := h.mfaSecret(creds.MFASecretEnc)
		if err != nil || secret == "" || !totp.Validate(payload.MFACode, secret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
			return
		}
	}

	h.issueSession(w, r, auth.Identity{EmployeeID: creds.EmployeeID, Email: creds.Email, Name: creds.Name})
}

// handleDevLogin bypasses the password check for local development. The route
// is only mounted when ALLOW_DEV_LOGIN is set, and config validation refuses
// that flag in production.
func (h *Handler) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	var payload devLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	creds, err := h.Store.FindActiveCredentialsByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "unknown or inactive employee", middleware.GetRequestID(r.Context()))
		return
	}
	h.issueSession(w, r, auth.Identity{EmployeeID: creds.EmployeeID, Email: creds.Email, Name: creds.Name})
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, ident auth.Identity) {
	sessionID := uuid.NewString()
	if err := h.Store.CreateSession(r.Context(), sessionID, ident.EmployeeID, time.Now().Add(sessionTTL)); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		EmployeeID: ident.EmployeeID,
		Email:      ident.Email,
		Name:       ident.Name,
		SessionID:  sessionID,
	}, sessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), ident.EmployeeID); err != nil {
		slog.Warn("update last_login failed", "employeeId", ident.EmployeeID, "err", err)
	}
	h.Audit.Record(r.Context(), ident.EmployeeID, "auth.login", "session", sessionID, nil)

	api.Success(w, map[string]any{
		"token": token,
		"employee": map[string]string{
			"id":    ident.EmployeeID,
			"email": ident.Email,
			"name":  ident.Name,
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.SessionID != "" {
		if err := h.Store.RevokeSession(r.Context(), user.SessionID); err != nil {
			slog.Warn("logout session revoke failed", "employeeId", user.EmployeeID, "err", err)
		}
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "auth.logout", "session", user.SessionID, nil)
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

// handleMe returns the caller's identity, flattened permissions, roles and
// the navigation entries their grants make visible.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	ident, err := h.Store.IdentityByID(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "employee no longer active", middleware.GetRequestID(r.Context()))
		return
	}
	roles, err := h.Store.RoleNamesFor(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", middleware.GetRequestID(r.Context()))
		return
	}

	perms := middleware.GetPermissions(r.Context())
	api.Success(w, map[string]any{
		"employee": map[string]string{
			"id":    ident.EmployeeID,
			"email": ident.Email,
			"name":  ident.Name,
		},
		"roles":       roles,
		"permissions": perms.Codes(),
		"navigation":  auth.VisibleNavigation(auth.DefaultNavigation, perms),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if h.Crypto == nil || !h.Crypto.Configured() {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires an encryption key", middleware.GetRequestID(r.Context()))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Bonarda",
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	encrypted, err := h.Crypto.EncryptString(key.Secret())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateMFASecret(r.Context(), user.EmployeeID, encrypted); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	// Enabling waits for a verified code; a half-finished setup must not lock
	// the account out.
	if err := h.Store.SetMFAEnabled(r.Context(), user.EmployeeID, false); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"secret": key.Secret(), "otpauthUrl": key.URL()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true, "mfa_enable_failed", "enabled")
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false, "mfa_disable_failed", "disabled")
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enable bool, failCode, status string) {
	user, _ := middleware.GetUser(r.Context())
	if h.Crypto == nil || !h.Crypto.Configured() {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires an encryption key", middleware.GetRequestID(r.Context()))
		return
	}
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	secretEnc, err := h.Store.GetMFASecret(r.Context(), user.EmployeeID)
	if err != nil || len(secretEnc) == 0 {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", middleware.GetRequestID(r.Context()))
		return
	}
	secret, err := h.Crypto.DecryptString(secretEnc)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.SetMFAEnabled(r.Context(), user.EmployeeID, enable); err != nil {
		api.Fail(w, http.StatusInternalServerError, failCode, "failed to update mfa", middleware.GetRequestID(r.Context()))
		return
	}
	h.Audit.Record(r.Context(), user.EmployeeID, "auth.mfa."+status, "employee", user.EmployeeID, nil)
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) mfaSecret(secretEnc []byte) (string, error) {
	if h.Crypto != nil && h.Crypto.Configured() {
		return h.Crypto.DecryptString(secretEnc)
	}
	return string(secretEnc), nil
}
