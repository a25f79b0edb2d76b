// internal/auth/handlers.go

package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/matcha-app/matcha-backend/internal/common/utils"
)

// Handler handles authentication HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates a new auth handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailAlreadyExists):
			utils.ErrorResponse(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, ErrUsernameAlreadyExists):
			utils.ErrorResponse(w, "Username already taken", http.StatusConflict)
		default:
			log.Printf("Register failed: %v", err)
			utils.ErrorResponse(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, user, http.StatusCreated)
}

// VerifyEmail handles GET /api/auth/verify?token=
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.ErrorResponse(w, "Missing verification token", http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			utils.ErrorResponse(w, "Invalid verification token", http.StatusBadRequest)
			return
		}
		log.Printf("Email verification failed: %v", err)
		utils.ErrorResponse(w, "Verification failed", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Account verified successfully", http.StatusOK)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			utils.ErrorResponse(w, "Invalid username or password", http.StatusUnauthorized)
		case errors.Is(err, ErrUserNotVerified):
			utils.ErrorResponse(w, "Please verify your account first", http.StatusForbidden)
		case errors.Is(err, ErrTooManyAttempts):
			utils.ErrorResponse(w, "Too many login attempts, try again later", http.StatusTooManyRequests)
		default:
			log.Printf("Login failed: %v", err)
			utils.ErrorResponse(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, resp, http.StatusOK)
}

// Refresh handles POST /api/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		utils.ErrorResponse(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	utils.SuccessResponse(w, resp, http.StatusOK)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		utils.ErrorResponse(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	utils.MessageResponse(w, "Logged out", http.StatusOK)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.InitiatePasswordReset(r.Context(), req.Email); err != nil {
		log.Printf("Password reset initiation failed: %v", err)
		utils.ErrorResponse(w, "Failed to initiate password reset", http.StatusInternalServerError)
		return
	}

	// Same response whether or not the email exists
	utils.MessageResponse(w, "If that email is registered, a reset link has been sent", http.StatusOK)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			utils.ErrorResponse(w, "Invalid or expired reset token", http.StatusBadRequest)
			return
		}
		log.Printf("Password reset failed: %v", err)
		utils.ErrorResponse(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Password updated successfully", http.StatusOK)
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
		return
	}

	utils.SuccessResponse(w, user, http.StatusOK)
}
