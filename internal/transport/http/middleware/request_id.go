package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"bonarda/internal/platform/requestctx"
)

// RequestID honors an incoming X-Request-Id or assigns a fresh one, and
// echoes it on the response. It also stashes the client address so lower
// layers, the audit trail in particular, can record it without seeing the
// request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := requestctx.WithRequestID(r.Context(), id)
		ctx = requestctx.WithClientIP(ctx, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
