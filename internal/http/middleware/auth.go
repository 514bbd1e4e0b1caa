package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/speoper/dispatch/internal/auth"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRole    contextKey = "role"
)

// Auth validates the bearer token and injects the identity into the context.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "missing token")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid token")
				return
			}

			subject, err := claims.SubjectID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid token")
				return
			}

			role, err := auth.ParseRole(claims.Role)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, subject)
			ctx = context.WithValue(ctx, ContextKeyRole, role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject returns the authenticated user id, or 0 when unauthenticated.
func GetSubject(ctx context.Context) int64 {
	val, _ := ctx.Value(ContextKeySubject).(int64)
	return val
}

// GetRole returns the authenticated role, or "" when unauthenticated.
func GetRole(ctx context.Context) auth.Role {
	val, _ := ctx.Value(ContextKeyRole).(auth.Role)
	return val
}

// RequireRoles allows only the listed roles. It runs after Auth and fails
// closed: a request with no identity in context is treated as unauthenticated.
func RequireRoles(requiredRoles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if role == "" {
				writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
				return
			}

			for _, required := range requiredRoles {
				if role == required {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
		})
	}
}

// RequireDispatcher restricts a route to dispatchers.
func RequireDispatcher(next http.Handler) http.Handler {
	return RequireRoles(auth.RoleDispatcher)(next)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
