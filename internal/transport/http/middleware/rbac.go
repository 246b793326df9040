package middleware

import (
	"context"
	"net/http"

	"bonarda/internal/domain/auth"
	"bonarda/internal/transport/http/api"
)

type PermissionStore interface {
	PermissionSetFor(ctx context.Context, employeeID string) (auth.PermissionSet, error)
}

// LoadPermissions resolves the caller's permission set once and stashes it on
// the context for RequirePermission and the handlers.
func LoadPermissions(store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			perms, err := store.PermissionSetFor(r.Context(), user.EmployeeID)
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPerms, perms)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequirePermission(permission string) func(http.Handler) http.Handler {
	return RequireAnyPermission(permission)
}

func RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUser(r.Context()); !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !GetPermissions(r.Context()).HasAny(permissions...) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
