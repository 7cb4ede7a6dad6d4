package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hostelops/bunkhouse/internal/security/audit"
	"github.com/hostelops/bunkhouse/internal/security/auth"
	"github.com/hostelops/bunkhouse/internal/security/ratelimit"
)

type OperatorContextKey struct{}
type ClaimsContextKey struct{}

// isPublicPath reports whether a request is served without a token.
// Read-only room listings stay open for the lobby display boards.
func isPublicPath(method, path string) bool {
	if path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		path == "/api/login" ||
		strings.HasPrefix(path, "/ws/") {
		return true
	}
	return method == http.MethodGet &&
		(path == "/api/rooms" || strings.HasPrefix(path, "/api/rooms/"))
}

// roomIDFromPath extracts the room id segment of an /api/rooms/{id}/...
// path. The middleware chain runs outside the mux, so the request's path
// values are not bound yet at this layer.
func roomIDFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/rooms/")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// JWTMiddleware authenticates protected requests and attaches the operator
// identity to the context. It must wrap outside RateLimitMiddleware and
// AuditMiddleware, which read that identity.
func JWTMiddleware(tm *auth.TokenManager, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				auditLog.LogDenied(r.Context(), "", "missing auth header")
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				auditLog.LogDenied(r.Context(), "", "malformed auth header")
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				auditLog.LogDenied(r.Context(), "", "invalid token")
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, OperatorContextKey{}, claims.OperatorID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(GetOperatorFromContext(r.Context())) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operatorID := GetOperatorFromContext(r.Context())

			if r.Method == http.MethodPost {
				switch {
				case r.URL.Path == "/api/assignments":
					auditLog.LogAssignment(r.Context(), operatorID, "", "initiated", "bulk")
				case strings.HasSuffix(r.URL.Path, "/assign"):
					auditLog.LogAssignment(r.Context(), operatorID, roomIDFromPath(r.URL.Path), "initiated", "")
				case strings.HasSuffix(r.URL.Path, "/release"):
					auditLog.LogRelease(r.Context(), operatorID, roomIDFromPath(r.URL.Path), "initiated", "")
				}
			}
			if r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/status") {
				auditLog.LogStatusOverride(r.Context(), operatorID, roomIDFromPath(r.URL.Path), "initiated", "")
			}
			if r.Method == http.MethodDelete {
				auditLog.LogAction(r.Context(), operatorID, "delete", "room", roomIDFromPath(r.URL.Path), "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetOperatorFromContext(ctx context.Context) string {
	if op := ctx.Value(OperatorContextKey{}); op != nil {
		return op.(string)
	}
	return ""
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
