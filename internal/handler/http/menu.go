package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/menu"
)

const defaultLanguage = "uz"

var supportedLanguages = map[string]bool{
	"uz": true,
	"ru": true,
	"en": true,
}

// MenuHandler serves the permission-filtered navigation tree.
type MenuHandler struct {
	resolver *menu.Resolver
	logger   *slog.Logger
}

// NewMenuHandler creates a new menu HTTP handler.
func NewMenuHandler(resolver *menu.Resolver, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{resolver: resolver, logger: logger}
}

// GetMenu handles GET /api/v1/menu (authenticated). The language comes from
// the lang query parameter, then Accept-Language, then the default.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "TOKEN_INVALID", Message: "invalid or expired token"},
		})
		return
	}

	language := requestLanguage(r)
	permissions := PermissionsFromContext(r.Context())

	tree, err := h.resolver.GetMenu(r.Context(), claims.UserID(), permissions, language)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]any{
			"language": language,
			"menu":     tree,
		},
	})
}

func requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); supportedLanguages[lang] {
		return lang
	}
	// Only the primary tag matters; weights are ignored.
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if len(tag) > 2 {
			tag = tag[:2]
		}
		if supportedLanguages[tag] {
			return tag
		}
	}
	return defaultLanguage
}
