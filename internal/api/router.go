/**
 * @description
 * This file sets up the HTTP router for the banking service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, CORS, and
 * authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sabinbank/banking-service/internal/auth"
)

// Routes creates and returns the router for the banking service.
func Routes(h *BankHandlers, tokens *auth.TokenManager, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public endpoints.
	r.Post("/api/auth/signup", h.SignupHandler)
	r.Post("/api/auth/login", h.LoginHandler)
	r.Post("/api/auth/forgot-password/send-otp", h.SendOTPHandler)
	r.Post("/api/auth/forgot-password/verify-otp", h.VerifyOTPHandler)
	r.Post("/api/auth/forgot-password/reset", h.ResetPasswordHandler)
	r.Post("/api/admin/login", h.AdminLoginHandler)
	r.Post("/api/admin/setup", h.AdminSetupHandler)

	// Customer endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))
		r.Use(RequireRole(auth.RoleUser))

		r.Get("/api/dashboard", h.DashboardHandler)
		r.Post("/api/transactions", h.CashOperationHandler)
		r.Post("/api/transfers", h.TransferHandler)
		r.Get("/api/cards", h.ListCardsHandler)
		r.Post("/api/cards/request", h.RequestCardHandler)
	})

	// Back-office endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))
		r.Use(RequireRole(auth.RoleAdmin))

		r.Get("/api/admin/dashboard", h.AdminDashboardHandler)
		r.Get("/api/admin/users", h.AdminListUsersHandler)
		r.Post("/api/admin/users/decision", h.AdminUserDecisionHandler)
		r.Get("/api/admin/cards", h.AdminListCardsHandler)
		r.Patch("/api/admin/cards", h.AdminCardStatusHandler)
		r.Get("/api/admin/card-requests", h.AdminListCardRequestsHandler)
		r.Patch("/api/admin/card-requests/{id}", h.AdminCardDecisionHandler)
		r.Get("/api/admin/transactions", h.AdminTransactionsHandler)
		r.Post("/api/admin/reset-balance", h.AdminResetBalanceHandler)
	})

	return r
}
