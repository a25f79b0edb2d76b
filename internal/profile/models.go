// internal/profile/models.go

package profile

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Gender and orientation values follow the product's French vocabulary
const (
	GenderMale   = "homme"
	GenderFemale = "femme"

	OrientationHetero = "hetero"
	OrientationHomo   = "homo"
	OrientationBi     = "bi"
)

// Common errors
var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrTooManyPhotos      = errors.New("photo limit reached")
	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrInvalidGender      = errors.New("invalid gender")
	ErrInvalidOrientation = errors.New("invalid sexual orientation")
)

// Profile is the user's public profile joined with identity fields
type Profile struct {
	UserID            int64          `json:"user_id" db:"user_id"`
	Username          string         `json:"username" db:"username"`
	FirstName         *string        `json:"first_name" db:"first_name"`
	LastName          *string        `json:"last_name" db:"last_name"`
	Biography         string         `json:"biography" db:"biography"`
	Age               *int           `json:"age" db:"age"`
	Gender            *string        `json:"gender" db:"gender"`
	SexualOrientation string         `json:"sexual_orientation" db:"sexual_orientation"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	Latitude          *float64       `json:"latitude" db:"latitude"`
	Longitude         *float64       `json:"longitude" db:"longitude"`
	City              *string        `json:"city" db:"city"`
	FameRating        int            `json:"fame_rating" db:"fame_rating"`
	IsVerified        bool           `json:"is_verified" db:"is_verified"`
	LastSeen          *time.Time     `json:"last_seen" db:"last_seen"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`

	// Populated separately
	Photos []*Photo `json:"photos,omitempty"`
}

// Photo stores the image bytes as a base64 blob in the database
type Photo struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Data             string    `json:"data" db:"data"`
	MimeType         string    `json:"mime_type" db:"mime_type"`
	IsProfilePicture bool      `json:"is_profile_picture" db:"is_profile_picture"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ProfileVisit records who viewed whom, one row per calendar day
type ProfileVisit struct {
	VisitorID int64     `json:"visitor_id" db:"visitor_id"`
	VisitedID int64     `json:"visited_id" db:"visited_id"`
	VisitedOn time.Time `json:"visited_on" db:"visited_on"`
	VisitedAt time.Time `json:"visited_at" db:"visited_at"`

	// Joined visitor info
	VisitorUsername *string `json:"visitor_username,omitempty" db:"visitor_username"`
}

// UpdateProfileRequest holds partial profile updates
type UpdateProfileRequest struct {
	Biography         *string   `json:"biography" validate:"omitempty,max=500"`
	Age               *int      `json:"age" validate:"omitempty,gte=18,lte=100"`
	Gender            *string   `json:"gender" validate:"omitempty,oneof=homme femme"`
	SexualOrientation *string   `json:"sexualOrientation" validate:"omitempty,oneof=hetero homo bi"`
	Interests         []string  `json:"interests" validate:"omitempty,max=10,dive,min=1,max=50"`
	Latitude          *float64  `json:"latitude" validate:"omitempty,latitude"`
	Longitude         *float64  `json:"longitude" validate:"omitempty,longitude"`
	City              *string   `json:"city" validate:"omitempty,max=255"`
}

// AddPhotoRequest uploads a base64-encoded image
type AddPhotoRequest struct {
	Data     string `json:"data" validate:"required"`
	MimeType string `json:"mimeType" validate:"required,oneof=image/jpeg image/png image/gif image/webp"`
}
