/**
 * @description
 * This file contains the authentication middleware for the banking API. It
 * extracts the Bearer token from incoming requests, verifies it with the
 * token manager, and stores the verified claims in the request context for
 * handlers to read.
 *
 * @dependencies
 * - net/http, strings: Standard Go libraries.
 * - internal/auth: Token verification.
 */

package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/sabinbank/banking-service/internal/auth"
)

type contextKey string

const claimsContextKey = contextKey("claims")

// writeAuthError writes the same JSON error envelope the handlers use, so
// middleware rejections look identical to every other API error.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetClaims retrieves the verified token claims from the request context.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// AuthMiddleware verifies the Bearer token on every request and injects the
// claims into the context. Requests without a valid token are rejected.
func AuthMiddleware(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Authorization header with Bearer token required")
				return
			}

			claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Printf("level=warn component=api msg=\"token rejected\" path=%s err=%v", r.URL.Path, err)
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose verified claims do not carry the given
// role. It must run after AuthMiddleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || claims.Role != role {
				writeAuthError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
