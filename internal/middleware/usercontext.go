package middleware

import (
	"context"
	"net/http"
	"strings"
)

// UserContext extracts the caller identity from the X-User-ID header set by
// the authenticating edge proxy. The service itself performs no credential
// verification.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get("X-User-ID"))
		ctx := r.Context()
		if uid != "" {
			ctx = context.WithValue(ctx, userIDKey, uid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
