// internal/auth/models.go
// Data structures for the authentication system.

package auth

import (
	"time"
)

// User represents an account in the identity store
type User struct {
	ID                  int64      `json:"id" db:"id"`
	Email               string     `json:"email" db:"email"`
	Username            string     `json:"username" db:"username"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	FirstName           *string    `json:"first_name" db:"first_name"`
	LastName            *string    `json:"last_name" db:"last_name"`
	IsVerified          bool       `json:"is_verified" db:"is_verified"`
	VerificationToken   *string    `json:"-" db:"verification_token"`
	ResetToken          *string    `json:"-" db:"reset_token"`
	ResetTokenExpiresAt *time.Time `json:"-" db:"reset_token_expires_at"`
	LastSeen            *time.Time `json:"last_seen" db:"last_seen"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// RegisterRequest is what the client sends to create an account
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password  string `json:"password" validate:"required,min=8,max=100"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

// LoginRequest handles username login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ForgotPasswordRequest initiates a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// AuthResponse is returned on successful login/refresh
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}
