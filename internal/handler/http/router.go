package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/service"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/health"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/middleware"
)

const serviceName = "identity"

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	AuthHandler   *AuthHandler
	MenuHandler   *MenuHandler
	AdminHandler  *AdminHandler
	AuthService   *service.AuthService
	HealthHandler *health.Handler
	Logger        *slog.Logger
	CORS          middleware.CORSConfig
}

// NewRouter builds the HTTP routing tree with the full middleware chain.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/refresh", cfg.AuthHandler.Refresh)
				r.Post("/compat-token", cfg.AuthHandler.IssueCompat)
			})

			r.Group(func(r chi.Router) {
				r.Use(Authenticate(cfg.AuthService))
				r.Post("/logout", cfg.AuthHandler.Logout)
				r.Get("/me", cfg.AuthHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.AuthService))
			r.Get("/menu", cfg.MenuHandler.GetMenu)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(Authenticate(cfg.AuthService))

			r.Route("/cache/invalidate", func(r chi.Router) {
				r.Use(RequirePermission(PermCacheInvalidate))
				r.Post("/user/{id}", cfg.AdminHandler.InvalidateUser)
				r.Post("/role/{id}", cfg.AdminHandler.InvalidateRole)
				r.Post("/permission/{id}", cfg.AdminHandler.InvalidatePermission)
				r.Post("/menu", cfg.AdminHandler.InvalidateMenu)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequirePermission(PermTokenInspect))
				r.Get("/tokens/{id}/status", cfg.AdminHandler.TokenStatus)
			})
		})
	})

	return r
}
