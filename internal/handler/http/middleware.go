package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/auth"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/service"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

type contextKey string

const (
	claimsKey      contextKey = "claims"
	permissionsKey contextKey = "permissions"
)

// ClaimsFromContext returns the validated token claims set by Authenticate.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return c
	}
	return nil
}

// PermissionsFromContext returns the permission set resolved by Authenticate.
func PermissionsFromContext(ctx context.Context) []string {
	if p, ok := ctx.Value(permissionsKey).([]string); ok {
		return p
	}
	return nil
}

// HasPermission reports whether the permission set grants the code, honoring
// the wildcard.
func HasPermission(permissions []string, code string) bool {
	for _, p := range permissions {
		if p == code || p == domain.PermissionWildcard {
			return true
		}
	}
	return false
}

// Authenticate validates the bearer token, checks revocation, resolves the
// user's permission set and stores both in the request context. Every failure
// mode surfaces as the same 401, so callers cannot tell a revoked token from
// a malformed one.
func Authenticate(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeJSON(w, http.StatusUnauthorized, response{
					Error: &errorResponse{Code: "TOKEN_INVALID", Message: "invalid or expired token"},
				})
				return
			}

			claims, permissions, err := authService.Authenticate(r.Context(), raw)
			if err != nil {
				writeAppError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, permissionsKey, permissions)
			ctx = logger.WithUserID(ctx, claims.UserID())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects authenticated requests whose permission set does
// not grant the code.
func RequirePermission(code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasPermission(PermissionsFromContext(r.Context()), code) {
				writeJSON(w, http.StatusForbidden, response{
					Error: &errorResponse{Code: "PERMISSION_DENIED", Message: "permission denied"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
