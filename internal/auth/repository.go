// internal/auth/repository.go

package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines the identity store interface
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*User, error)
	GetUserByResetToken(ctx context.Context, token string) (*User, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	MarkVerified(ctx context.Context, userID int64) error
	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastSeen(ctx context.Context, userID int64) error
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateUser inserts the user and its empty profile in one transaction
func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (email, username, password_hash, first_name, last_name, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash,
		user.FirstName, user.LastName, user.VerificationToken,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id) VALUES ($1)`, user.ID); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepository) getUser(ctx context.Context, where string, arg interface{}) (*User, error) {
	var user User
	query := `
		SELECT id, email, username, password_hash, first_name, last_name,
		       is_verified, verification_token, reset_token, reset_token_expires_at,
		       last_seen, created_at, updated_at
		FROM users
		WHERE ` + where

	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *postgresRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "id = $1", id)
}

// GetUserByEmail retrieves a user by email
func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "email = $1", email)
}

// GetUserByUsername retrieves a user by username
func (r *postgresRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, "username = $1", username)
}

// GetUserByVerificationToken retrieves a user by verification token
func (r *postgresRepository) GetUserByVerificationToken(ctx context.Context, token string) (*User, error) {
	return r.getUser(ctx, "verification_token = $1", token)
}

// GetUserByResetToken retrieves a user by a non-expired reset token
func (r *postgresRepository) GetUserByResetToken(ctx context.Context, token string) (*User, error) {
	var user User
	query := `
		SELECT id, email, username, password_hash, first_name, last_name,
		       is_verified, verification_token, reset_token, reset_token_expires_at,
		       last_seen, created_at, updated_at
		FROM users
		WHERE reset_token = $1 AND reset_token_expires_at > NOW()`

	err := r.db.GetContext(ctx, &user, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// IsEmailTaken checks whether an email is already registered
func (r *postgresRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	return exists, err
}

// IsUsernameTaken checks whether a username is already registered
func (r *postgresRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	return exists, err
}

// MarkVerified flags the account as verified and clears the token
func (r *postgresRepository) MarkVerified(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL, updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// SetResetToken stores a password-reset token with its expiry
func (r *postgresRepository) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $1, reset_token_expires_at = $2, updated_at = NOW()
		WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, token, expiresAt, userID)
	return err
}

// UpdatePassword replaces the password hash and clears any reset token
func (r *postgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// UpdateLastSeen bumps the last_seen timestamp
func (r *postgresRepository) UpdateLastSeen(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id = $1`, userID)
	return err
}
