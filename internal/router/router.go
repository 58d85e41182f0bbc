package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Techtaurant/be/internal/config"
	"github.com/Techtaurant/be/internal/handler"
	"github.com/Techtaurant/be/internal/middleware"
	"github.com/Techtaurant/be/internal/model"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	OAuth   *handler.OAuthHandler
	User    *handler.UserHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(authMiddleware.Authenticate)

	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Browser redirects of the authorization code flow.
	if h.OAuth != nil {
		r.Get("/oauth2/authorization/{provider}", h.OAuth.Authorize)
		r.Get("/login/oauth2/code/{provider}", h.OAuth.Callback)
	}

	r.Route("/open-api", func(open chi.Router) {
		open.Use(middleware.Timeout(cfg.RequestTimeout))

		open.Post("/auth/refresh", h.Auth.Refresh)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		// Logout must work with expired or missing credentials.
		api.Post("/auth/logout", h.Auth.Logout)

		api.With(authMiddleware.RequireAuth).Get("/users/me", h.User.Me)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin)).Patch("/admin/users/{id}/role", h.User.UpdateRole)
	})

	return r
}
