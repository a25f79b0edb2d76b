// internal/matching/models.go

package matching

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrNoProfilePhoto    = errors.New("must have a profile picture to like")
	ErrCannotLikeSelf    = errors.New("cannot like yourself")
	ErrCannotBlockSelf   = errors.New("cannot block yourself")
	ErrBlocked           = errors.New("user is blocked")
)

// Like is a directed edge in the interaction ledger
type Like struct {
	LikerID   int64     `json:"liker_id" db:"liker_id"`
	LikedID   int64     `json:"liked_id" db:"liked_id"`
	IsLike    bool      `json:"is_like" db:"is_like"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Match is an undirected edge stored with user1_id < user2_id
type Match struct {
	User1ID   int64     `json:"user1_id" db:"user1_id"`
	User2ID   int64     `json:"user2_id" db:"user2_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// InteractionCounts feeds the fame rating computation
type InteractionCounts struct {
	LikesReceived    int `db:"likes_received"`
	DislikesReceived int `db:"dislikes_received"`
	VisitsReceived   int `db:"visits_received"`
	Matches          int `db:"matches"`
}

// Candidate is a browse result row
type Candidate struct {
	UserID            int64          `json:"user_id" db:"user_id"`
	Username          string         `json:"username" db:"username"`
	FirstName         *string        `json:"first_name" db:"first_name"`
	Biography         string         `json:"biography" db:"biography"`
	Age               int            `json:"age" db:"age"`
	Gender            string         `json:"gender" db:"gender"`
	SexualOrientation string         `json:"sexual_orientation" db:"sexual_orientation"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	Latitude          *float64       `json:"latitude" db:"latitude"`
	Longitude         *float64       `json:"longitude" db:"longitude"`
	City              *string        `json:"city" db:"city"`
	FameRating        int            `json:"fame_rating" db:"fame_rating"`
	LastSeen          *time.Time     `json:"last_seen" db:"last_seen"`

	// Computed per-viewer
	Distance   *float64 `json:"distance,omitempty"`
	CommonTags int      `json:"common_tags"`

	// Ordered profile-picture-first so the UI needs no secondary fetch
	Photos []*CandidatePhoto `json:"photos"`
}

// CandidatePhoto is the photo payload attached to browse results
type CandidatePhoto struct {
	ID               int64  `json:"id" db:"id"`
	UserID           int64  `json:"-" db:"user_id"`
	Data             string `json:"data" db:"data"`
	MimeType         string `json:"mime_type" db:"mime_type"`
	IsProfilePicture bool   `json:"is_profile_picture" db:"is_profile_picture"`
}

// ViewerProfile is the subset of the viewer's profile the selector needs
type ViewerProfile struct {
	UserID            int64          `db:"user_id"`
	Age               *int           `db:"age"`
	Gender            *string        `db:"gender"`
	SexualOrientation *string        `db:"sexual_orientation"`
	Interests         pq.StringArray `db:"interests"`
	Latitude          *float64       `db:"latitude"`
	Longitude         *float64       `db:"longitude"`
}

// Browse sort keys
const (
	SortDistance    = "distance"
	SortAge         = "age"
	SortFameRating  = "fame_rating"
	SortCommonTags  = "common_tags"
	SortIntelligent = "intelligent"
)

// BrowseFilters are the optional browse query parameters
type BrowseFilters struct {
	AgeMin      *int
	AgeMax      *int
	MaxDistance *float64
	MinFame     *int
	MaxFame     *int
	CommonTags  []string
	SortBy      string
	SortOrder   string // "asc" or "desc"
}

// BrowseResult is the browse response payload
type BrowseResult struct {
	Profiles []*Candidate `json:"profiles"`
	Total    int          `json:"total"`
}

// LikeRequest is the body of POST /api/profile/like
type LikeRequest struct {
	TargetUserID int64 `json:"targetUserId" validate:"required,gt=0"`
	IsLike       *bool `json:"isLike" validate:"required"`
}

// BlockRequest is the body of POST /api/profile/block
type BlockRequest struct {
	TargetUserID int64 `json:"targetUserId" validate:"required,gt=0"`
}

// ReportRequest is the body of POST /api/profile/report
type ReportRequest struct {
	TargetUserID int64  `json:"targetUserId" validate:"required,gt=0"`
	Reason       string `json:"reason" validate:"required,min=3,max=1000"`
}
