package routes

import (
	"github.com/BradenHooton/authgate/internal/handlers"
	"github.com/BradenHooton/authgate/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	rateLimitConfig middleware.RateLimitConfig,
) {
	router.Get("/health", healthHandler.Health)

	// Public auth routes share one per-IP budget
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/verify-2fa", authHandler.Verify2FA)
		r.Post("/logout", authHandler.Logout)
		r.Post("/verify-token", authHandler.VerifyToken)
	})
}
