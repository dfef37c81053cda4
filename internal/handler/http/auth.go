package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/service"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest optionally carries the session's refresh token so it can be
// revoked together with the access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// --- Response types ---

// LoginResponse wraps principal data with tokens.
type LoginResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Tokens   any    `json:"tokens"`
}

// --- Handlers ---

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	principal, tokens, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: LoginResponse{
			UserID:   principal.ID,
			Username: principal.Username,
			FullName: principal.FullName,
			Tokens:   tokens,
		},
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: tokens})
}

// Logout handles POST /api/v1/auth/logout (authenticated).
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "TOKEN_INVALID", Message: "invalid or expired token"},
		})
		return
	}

	// The refresh token is optional; an empty or unreadable body still
	// revokes the access token.
	var req LogoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.service.Logout(r.Context(), claims, req.RefreshToken); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "logged_out"}})
}

// IssueCompat handles POST /api/v1/auth/compat-token. It authenticates like
// login but returns a single extended-lifetime token for legacy clients.
func (h *AuthHandler) IssueCompat(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	raw, claims, err := h.service.IssueCompat(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]any{
			"token":      raw,
			"token_type": "Bearer",
			"expires_at": claims.ExpiresAt.Time,
		},
	})
}

// Me handles GET /api/v1/auth/me (authenticated). It returns the claims and
// the freshly resolved permission set for the calling user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "TOKEN_INVALID", Message: "invalid or expired token"},
		})
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]any{
			"user_id":     claims.UserID(),
			"username":    claims.Username,
			"scope":       claims.Scope,
			"permissions": PermissionsFromContext(r.Context()),
		},
	})
}
