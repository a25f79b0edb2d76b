// internal/auth/middleware.go

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/matcha-app/matcha-backend/internal/common/utils"
)

// context keys for the authenticated principal
type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxEmail    contextKey = "email"
	ctxUsername contextKey = "username"
)

// Middleware provides authentication middleware
type Middleware struct {
	service Service
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(service Service) *Middleware {
	return &Middleware{
		service: service,
	}
}

// Authenticate verifies the JWT and adds the principal to the request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			utils.ErrorResponse(w, "Missing or invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.service.ValidateToken(r.Context(), token)
		if err != nil {
			utils.ErrorResponse(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if claims.Type != "access" {
			utils.ErrorResponse(w, "Invalid token type", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxEmail, claims.Email)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireVerified ensures the user has verified their email.
// Must run after Authenticate.
func (m *Middleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := m.service.GetUserByID(r.Context(), userID)
		if err != nil {
			utils.ErrorResponse(w, "User not found", http.StatusNotFound)
			return
		}

		if !user.IsVerified {
			utils.ErrorResponse(w, "Please verify your account first", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the JWT from the Authorization header.
// Supports "Bearer <token>" format.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(ctxUserID).(int64)
	return userID, ok
}

// GetUsernameFromContext extracts the username from the request context
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ctxUsername).(string)
	return username, ok
}
