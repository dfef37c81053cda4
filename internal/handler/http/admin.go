package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/cache"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/service"
)

// Permission codes guarding the administrative endpoints.
const (
	PermCacheInvalidate = "admin.cache.invalidate"
	PermTokenInspect    = "admin.tokens.inspect"
)

// AdminHandler exposes cache invalidation and token inspection to operators
// and to the services that own role and permission assignments.
type AdminHandler struct {
	invalidator *cache.Invalidator
	service     *service.AuthService
	logger      *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(invalidator *cache.Invalidator, svc *service.AuthService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{invalidator: invalidator, service: svc, logger: logger}
}

// InvalidateUser handles POST /api/v1/admin/cache/invalidate/user/{id}
func (h *AdminHandler) InvalidateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := h.invalidator.InvalidateUser(r.Context(), userID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "invalidated", "user_id": userID}})
}

// InvalidateRole handles POST /api/v1/admin/cache/invalidate/role/{id}
func (h *AdminHandler) InvalidateRole(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")
	if err := h.invalidator.InvalidateRole(r.Context(), roleID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "invalidated", "role_id": roleID}})
}

// InvalidatePermission handles POST /api/v1/admin/cache/invalidate/permission/{id}
func (h *AdminHandler) InvalidatePermission(w http.ResponseWriter, r *http.Request) {
	permissionID := chi.URLParam(r, "id")
	if err := h.invalidator.InvalidatePermission(r.Context(), permissionID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "invalidated", "permission_id": permissionID}})
}

// InvalidateMenu handles POST /api/v1/admin/cache/invalidate/menu
func (h *AdminHandler) InvalidateMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.invalidator.InvalidateMenu(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "invalidated", "scope": "menu"}})
}

// TokenStatus handles GET /api/v1/admin/tokens/{id}/status. It reports
// whether the token ID sits on the denylist.
func (h *AdminHandler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "id")

	revoked, err := h.service.IsRevoked(r.Context(), tokenID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]any{
			"token_id": tokenID,
			"revoked":  revoked,
		},
	})
}
