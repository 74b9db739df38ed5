package routes

import (
	"github.com/aydintok/gatehouse/internal/auth"
	"github.com/aydintok/gatehouse/internal/handlers"
	"github.com/aydintok/gatehouse/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	sessionManager *auth.SessionManager,
) {
	rateLimitConfig := middleware.DefaultLoginRateLimit()

	// Public routes - no session required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)

	// Protected routes - valid session required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(sessionManager))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/session", authHandler.Session)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/admin/accounts/{accountID}/ips", adminHandler.ListQuotaRecords)
			r.Post("/admin/accounts/{accountID}/ips/{ip}/block", adminHandler.BlockIP)
			r.Post("/admin/accounts/{accountID}/ips/{ip}/unblock", adminHandler.UnblockIP)
			r.Delete("/admin/accounts/{accountID}/ips/{ip}", adminHandler.DeleteQuotaRecord)
			r.Get("/admin/audit/{username}", adminHandler.GetAuditTrail)
		})
	})
}
