// internal/auth/service.go
// Business logic for registration, verification, login and password reset.

package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/matcha-app/matcha-backend/internal/common/utils"
	"github.com/matcha-app/matcha-backend/internal/mailer"
)

// Common errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotVerified       = errors.New("user not verified")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTooManyAttempts       = errors.New("too many attempts")
)

// Service interface
type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	InitiatePasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUserByID(ctx context.Context, userID int64) (*User, error)
}

// Config holds service configuration
type Config struct {
	JWTSecret           string
	AccessTokenExpiry   time.Duration
	RefreshTokenExpiry  time.Duration
	BCryptCost          int
	BaseURL             string
	LoginAttemptsMax    int
	LoginAttemptsWindow time.Duration
}

// service implementation
type service struct {
	repo   Repository
	redis  *redis.Client // optional, nil disables rate limiting and revocation
	mailer mailer.Provider
	config *Config
}

// NewService creates a new auth service
func NewService(repo Repository, redisClient *redis.Client, emailProvider mailer.Provider, config *Config) Service {
	return &service{
		repo:   repo,
		redis:  redisClient,
		mailer: emailProvider,
		config: config,
	}
}

// Register creates a new user account and sends a verification email
func (s *service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if taken, err := s.repo.IsEmailTaken(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailAlreadyExists
	}

	if taken, err := s.repo.IsUsernameTaken(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, ErrUsernameAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken := uuid.NewString()
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	user := &User{
		Email:             email,
		Username:          username,
		PasswordHash:      string(hashed),
		FirstName:         &firstName,
		LastName:          &lastName,
		VerificationToken: &verificationToken,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	// Verification email is best-effort: registration succeeds regardless
	go s.sendVerificationEmail(user.Email, verificationToken)

	return user, nil
}

func (s *service) sendVerificationEmail(to, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := &mailer.Email{
		To:      to,
		Subject: "Verify your Matcha account",
		Body: fmt.Sprintf("Welcome to Matcha!\n\nVerify your account by opening:\n%s/api/auth/verify?token=%s",
			s.config.BaseURL, token),
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		log.Printf("Failed to send verification email to %s: %v", to, err)
	}
}

// VerifyEmail marks the account matching the token as verified
func (s *service) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.repo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return s.repo.MarkVerified(ctx, user.ID)
}

// Login authenticates a user and issues a token pair
func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if err := s.checkLoginRateLimit(ctx, username); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.recordLoginAttempt(ctx, username)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordLoginAttempt(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrUserNotVerified
	}

	if err := s.repo.UpdateLastSeen(ctx, user.ID); err != nil {
		log.Printf("Failed to update last_seen for user %d: %v", user.ID, err)
	}

	return s.issueTokens(user)
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateJWT(refreshToken, s.config.JWTSecret)
	if err != nil || claims.Type != "refresh" {
		return nil, ErrInvalidToken
	}

	if s.isRevoked(ctx, refreshToken) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Logout revokes the refresh token when redis is available
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := utils.ValidateJWT(refreshToken, s.config.JWTSecret)
	if err != nil || claims.Type != "refresh" {
		return ErrInvalidToken
	}

	if s.redis == nil {
		return nil
	}

	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}

	return s.redis.Set(ctx, revokedKey(refreshToken), "1", ttl).Err()
}

// ValidateToken validates an access or refresh token
func (s *service) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := utils.ValidateJWT(token, s.config.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// InitiatePasswordReset stores a reset token and emails it
func (s *service) InitiatePasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Don't reveal whether the email is registered
			return nil
		}
		return err
	}

	token := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, user.ID, token, time.Now().Add(time.Hour)); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msg := &mailer.Email{
			To:      user.Email,
			Subject: "Reset your Matcha password",
			Body: fmt.Sprintf("A password reset was requested for your account.\n\nUse this token within one hour: %s",
				token),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Printf("Failed to send reset email to %s: %v", user.Email, err)
		}
	}()

	return nil
}

// ResetPassword completes a reset with a valid token
func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.repo.GetUserByResetToken(ctx, token)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, string(hashed))
}

// GetUserByID retrieves a user
func (s *service) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// issueTokens builds an access/refresh pair for the user
func (s *service) issueTokens(user *User) (*AuthResponse, error) {
	now := time.Now()

	access, err := utils.GenerateJWT(&utils.JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Type:      "access",
		ExpiresAt: now.Add(s.config.AccessTokenExpiry).Unix(),
		IssuedAt:  now.Unix(),
	}, s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := utils.GenerateJWT(&utils.JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Type:      "refresh",
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry).Unix(),
		IssuedAt:  now.Unix(),
	}, s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

// Rate limiting and revocation helpers (no-ops without redis)

func loginAttemptsKey(username string) string {
	return "login_attempts:" + username
}

func revokedKey(token string) string {
	return "revoked_token:" + token
}

func (s *service) checkLoginRateLimit(ctx context.Context, username string) error {
	if s.redis == nil {
		return nil
	}

	count, err := s.redis.Get(ctx, loginAttemptsKey(username)).Int()
	if err != nil && err != redis.Nil {
		log.Printf("Rate limit check failed for %s: %v", username, err)
		return nil
	}

	if count >= s.config.LoginAttemptsMax {
		return ErrTooManyAttempts
	}

	return nil
}

func (s *service) recordLoginAttempt(ctx context.Context, username string) {
	if s.redis == nil {
		return
	}

	key := loginAttemptsKey(username)
	pipe := s.redis.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.config.LoginAttemptsWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Failed to record login attempt for %s: %v", username, err)
	}
}

func (s *service) isRevoked(ctx context.Context, token string) bool {
	if s.redis == nil {
		return false
	}

	exists, err := s.redis.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		log.Printf("Revocation check failed: %v", err)
		return false
	}

	return exists > 0
}
