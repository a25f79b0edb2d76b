// internal/profile/repository.go

package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines the profile repository interface
type Repository interface {
	// Profile CRUD
	GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error)

	// Photos
	AddPhoto(ctx context.Context, photo *Photo) error
	GetPhoto(ctx context.Context, photoID int64) (*Photo, error)
	GetUserPhotos(ctx context.Context, userID int64) ([]*Photo, error)
	CountUserPhotos(ctx context.Context, userID int64) (int, error)
	DeletePhoto(ctx context.Context, photoID int64, userID int64) error
	SetProfilePicture(ctx context.Context, photoID int64, userID int64) error

	// Visits
	RecordVisit(ctx context.Context, visitorID, visitedID int64) (isNew bool, err error)
	GetVisitors(ctx context.Context, userID int64, limit int) ([]*ProfileVisit, error)

	// Blocking lookup (owned by matching, read here for visibility checks)
	IsBlockedEitherWay(ctx context.Context, userID, targetID int64) (bool, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const profileColumns = `
	p.user_id, u.username, u.first_name, u.last_name,
	p.biography, p.age, p.gender, p.sexual_orientation, p.interests,
	p.latitude, p.longitude, p.city, p.fame_rating,
	u.is_verified, u.last_seen, p.updated_at`

// GetProfileByUserID retrieves a profile joined with identity fields
func (r *postgresRepository) GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	query := `
		SELECT ` + profileColumns + `
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`

	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// UpdateProfile applies a partial update with a dynamically built SET clause
func (r *postgresRepository) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	var setClauses []string
	var args []interface{}
	argCount := 1

	if req.Biography != nil {
		setClauses = append(setClauses, fmt.Sprintf("biography = $%d", argCount))
		args = append(args, *req.Biography)
		argCount++
	}
	if req.Age != nil {
		setClauses = append(setClauses, fmt.Sprintf("age = $%d", argCount))
		args = append(args, *req.Age)
		argCount++
	}
	if req.Gender != nil {
		setClauses = append(setClauses, fmt.Sprintf("gender = $%d", argCount))
		args = append(args, *req.Gender)
		argCount++
	}
	if req.SexualOrientation != nil {
		setClauses = append(setClauses, fmt.Sprintf("sexual_orientation = $%d", argCount))
		args = append(args, *req.SexualOrientation)
		argCount++
	}
	if req.Interests != nil {
		setClauses = append(setClauses, fmt.Sprintf("interests = $%d", argCount))
		args = append(args, pq.Array(req.Interests))
		argCount++
	}
	if req.Latitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("latitude = $%d", argCount))
		args = append(args, *req.Latitude)
		argCount++
	}
	if req.Longitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("longitude = $%d", argCount))
		args = append(args, *req.Longitude)
		argCount++
	}
	if req.City != nil {
		setClauses = append(setClauses, fmt.Sprintf("city = $%d", argCount))
		args = append(args, *req.City)
		argCount++
	}

	// Always bump updated_at
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, time.Now())
	argCount++

	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE profiles
		SET %s
		WHERE user_id = $%d`,
		strings.Join(setClauses, ", "),
		argCount,
	)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return r.GetProfileByUserID(ctx, userID)
}

// AddPhoto inserts a photo; first photo becomes the profile picture
func (r *postgresRepository) AddPhoto(ctx context.Context, photo *Photo) error {
	query := `
		INSERT INTO photos (user_id, data, mime_type, is_profile_picture)
		VALUES ($1, $2, $3,
			NOT EXISTS (SELECT 1 FROM photos WHERE user_id = $1))
		RETURNING id, is_profile_picture, created_at`

	return r.db.QueryRowContext(ctx, query,
		photo.UserID, photo.Data, photo.MimeType,
	).Scan(&photo.ID, &photo.IsProfilePicture, &photo.CreatedAt)
}

// GetPhoto retrieves a single photo
func (r *postgresRepository) GetPhoto(ctx context.Context, photoID int64) (*Photo, error) {
	var photo Photo
	query := `
		SELECT id, user_id, data, mime_type, is_profile_picture, created_at
		FROM photos
		WHERE id = $1`

	err := r.db.GetContext(ctx, &photo, query, photoID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}

	return &photo, nil
}

// GetUserPhotos lists photos, profile picture first then upload time ascending
func (r *postgresRepository) GetUserPhotos(ctx context.Context, userID int64) ([]*Photo, error) {
	var photos []*Photo
	query := `
		SELECT id, user_id, data, mime_type, is_profile_picture, created_at
		FROM photos
		WHERE user_id = $1
		ORDER BY is_profile_picture DESC, created_at ASC`

	err := r.db.SelectContext(ctx, &photos, query, userID)
	return photos, err
}

// CountUserPhotos returns the number of photos a user owns
func (r *postgresRepository) CountUserPhotos(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM photos WHERE user_id = $1`, userID)
	return count, err
}

// DeletePhoto removes a photo owned by the user
func (r *postgresRepository) DeletePhoto(ctx context.Context, photoID int64, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM photos WHERE id = $1 AND user_id = $2`, photoID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPhotoNotFound
	}

	return nil
}

// SetProfilePicture unsets all flags then sets one, inside a transaction
func (r *postgresRepository) SetProfilePicture(ctx context.Context, photoID int64, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE photos SET is_profile_picture = FALSE WHERE user_id = $1`, userID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE photos SET is_profile_picture = TRUE WHERE id = $1 AND user_id = $2`,
		photoID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPhotoNotFound
	}

	return tx.Commit()
}

// RecordVisit upserts the (visitor, visited, day) row.
// Returns true when the row was newly inserted (first visit of the day).
func (r *postgresRepository) RecordVisit(ctx context.Context, visitorID, visitedID int64) (bool, error) {
	var inserted bool
	query := `
		INSERT INTO profile_visits (visitor_id, visited_id, visited_on, visited_at)
		VALUES ($1, $2, CURRENT_DATE, NOW())
		ON CONFLICT (visitor_id, visited_id, visited_on)
		DO UPDATE SET visited_at = NOW()
		RETURNING (xmax = 0) AS inserted`

	err := r.db.GetContext(ctx, &inserted, query, visitorID, visitedID)
	return inserted, err
}

// GetVisitors lists recent visitors of a profile
func (r *postgresRepository) GetVisitors(ctx context.Context, userID int64, limit int) ([]*ProfileVisit, error) {
	var visits []*ProfileVisit
	query := `
		SELECT v.visitor_id, v.visited_id, v.visited_on, v.visited_at,
		       u.username AS visitor_username
		FROM profile_visits v
		JOIN users u ON u.id = v.visitor_id
		WHERE v.visited_id = $1
		ORDER BY v.visited_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &visits, query, userID, limit)
	return visits, err
}

// IsBlockedEitherWay checks for a block in either direction
func (r *postgresRepository) IsBlockedEitherWay(ctx context.Context, userID, targetID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)`

	err := r.db.GetContext(ctx, &exists, query, userID, targetID)
	return exists, err
}
