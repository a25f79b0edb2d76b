// internal/auth/service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matcha-app/matcha-backend/internal/mailer"
)

type fakeRepository struct {
	users  map[int64]*User
	nextID int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[int64]*User), nextID: 1}
}

func (f *fakeRepository) CreateUser(ctx context.Context, user *User) error {
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) GetUserByVerificationToken(ctx context.Context, token string) (*User, error) {
	for _, u := range f.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) GetUserByResetToken(ctx context.Context, token string) (*User, error) {
	for _, u := range f.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(time.Now()) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := f.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeRepository) MarkVerified(ctx context.Context, userID int64) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.IsVerified = true
	u.VerificationToken = nil
	return nil
}

func (f *fakeRepository) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeRepository) UpdateLastSeen(ctx context.Context, userID int64) error {
	now := time.Now()
	if u, ok := f.users[userID]; ok {
		u.LastSeen = &now
	}
	return nil
}

func newTestService(repo *fakeRepository) Service {
	return NewService(repo, nil, mailer.NewMockProvider(), &Config{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BCryptCost:         4, // minimum cost to keep tests fast
		BaseURL:            "http://localhost:8080",
	})
}

func register(t *testing.T, svc Service) *User {
	t.Helper()
	user, err := svc.Register(context.Background(), &RegisterRequest{
		Email:     "Alice@Example.com",
		Username:  "Alice",
		Password:  "s3cretPass!",
		FirstName: "Alice",
		LastName:  "Martin",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterNormalizesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo)

	user := register(t, svc)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.VerificationToken)

	_, err := svc.Register(ctx, &RegisterRequest{
		Email:    "alice@example.com",
		Username: "other",
		Password: "password1",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = svc.Register(ctx, &RegisterRequest{
		Email:    "other@example.com",
		Username: "ALICE",
		Password: "password1",
	})
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestLoginRequiresVerification(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo)

	user := register(t, svc)

	_, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "s3cretPass!"})
	assert.ErrorIs(t, err, ErrUserNotVerified)

	require.NoError(t, svc.VerifyEmail(ctx, *user.VerificationToken))

	resp, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "s3cretPass!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo)

	user := register(t, svc)
	require.NoError(t, svc.VerifyEmail(ctx, *user.VerificationToken))

	_, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmailInvalidToken(t *testing.T) {
	svc := newTestService(newFakeRepository())
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), "bogus"), ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo)

	user := register(t, svc)
	require.NoError(t, svc.VerifyEmail(ctx, *user.VerificationToken))

	resp, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "s3cretPass!"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted as a refresh token
	_, err = svc.RefreshToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo)

	user := register(t, svc)
	require.NoError(t, svc.VerifyEmail(ctx, *user.VerificationToken))

	// Unknown email is silently accepted
	assert.NoError(t, svc.InitiatePasswordReset(ctx, "unknown@example.com"))

	require.NoError(t, svc.InitiatePasswordReset(ctx, "alice@example.com"))
	require.NotNil(t, user.ResetToken)

	require.NoError(t, svc.ResetPassword(ctx, *user.ResetToken, "newPassword1"))

	_, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "s3cretPass!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "newPassword1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}
