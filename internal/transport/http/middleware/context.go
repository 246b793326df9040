package middleware

import (
	"context"

	"bonarda/internal/domain/auth"
	"bonarda/internal/platform/requestctx"
)

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
	ctxKeyPerms
)

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// GetPermissions returns the caller's permission set, resolved once per
// request by the RBAC layer. Missing means no permissions were loaded.
func GetPermissions(ctx context.Context) auth.PermissionSet {
	perms, _ := ctx.Value(ctxKeyPerms).(auth.PermissionSet)
	return perms
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
