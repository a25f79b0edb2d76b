// internal/profile/service.go

package profile

import (
	"context"
	"encoding/base64"
	"log"
)

// Notifier records a user-facing event. Implemented by the notifications
// service; failures are logged and swallowed by callers.
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error
}

// FameCalculator recomputes a user's fame rating from the interaction ledger.
// Implemented by the matching service.
type FameCalculator interface {
	Recalculate(ctx context.Context, userID int64) error
}

// Service defines profile business logic
type Service interface {
	GetMyProfile(ctx context.Context, userID int64) (*Profile, error)
	GetProfile(ctx context.Context, targetID, viewerID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error)

	AddPhoto(ctx context.Context, userID int64, req *AddPhotoRequest) (*Photo, error)
	GetPhotos(ctx context.Context, userID int64) ([]*Photo, error)
	DeletePhoto(ctx context.Context, userID, photoID int64) error
	SetProfilePicture(ctx context.Context, userID, photoID int64) error

	GetVisitors(ctx context.Context, userID int64, limit int) ([]*ProfileVisit, error)
}

type service struct {
	repo      Repository
	notifier  Notifier
	fame      FameCalculator
	maxPhotos int
}

// NewService creates a new profile service
func NewService(repo Repository, notifier Notifier, fame FameCalculator, maxPhotos int) Service {
	return &service{
		repo:      repo,
		notifier:  notifier,
		fame:      fame,
		maxPhotos: maxPhotos,
	}
}

// GetMyProfile returns the caller's own profile with photos
func (s *service) GetMyProfile(ctx context.Context, userID int64) (*Profile, error) {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Photos, err = s.repo.GetUserPhotos(ctx, userID)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// GetProfile returns another user's profile and records the visit.
// Visits are idempotent per calendar day; a visit notification and a fame
// recompute happen only on the first visit of the day.
func (s *service) GetProfile(ctx context.Context, targetID, viewerID int64) (*Profile, error) {
	if targetID != viewerID {
		blocked, err := s.repo.IsBlockedEitherWay(ctx, viewerID, targetID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, ErrUserBlocked
		}
	}

	profile, err := s.repo.GetProfileByUserID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	profile.Photos, err = s.repo.GetUserPhotos(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if targetID != viewerID {
		s.recordVisit(ctx, viewerID, targetID)
	}

	return profile, nil
}

// recordVisit is best-effort: a failed visit record never fails the profile fetch
func (s *service) recordVisit(ctx context.Context, viewerID, targetID int64) {
	isNew, err := s.repo.RecordVisit(ctx, viewerID, targetID)
	if err != nil {
		log.Printf("Failed to record visit %d -> %d: %v", viewerID, targetID, err)
		return
	}

	if !isNew {
		return
	}

	if err := s.notifier.Notify(ctx, targetID, "visit", map[string]interface{}{
		"visitor_id": viewerID,
	}); err != nil {
		log.Printf("Failed to send visit notification to %d: %v", targetID, err)
	}

	if err := s.fame.Recalculate(ctx, targetID); err != nil {
		log.Printf("Failed to recompute fame for %d: %v", targetID, err)
	}
}

// UpdateProfile applies a partial update
func (s *service) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	return s.repo.UpdateProfile(ctx, userID, req)
}

// AddPhoto validates and stores a base64-encoded image
func (s *service) AddPhoto(ctx context.Context, userID int64, req *AddPhotoRequest) (*Photo, error) {
	if _, err := base64.StdEncoding.DecodeString(req.Data); err != nil {
		return nil, ErrInvalidImageFormat
	}

	count, err := s.repo.CountUserPhotos(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxPhotos {
		return nil, ErrTooManyPhotos
	}

	photo := &Photo{
		UserID:   userID,
		Data:     req.Data,
		MimeType: req.MimeType,
	}

	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}

	return photo, nil
}

// GetPhotos lists a user's photos
func (s *service) GetPhotos(ctx context.Context, userID int64) ([]*Photo, error) {
	return s.repo.GetUserPhotos(ctx, userID)
}

// DeletePhoto removes a photo the user owns
func (s *service) DeletePhoto(ctx context.Context, userID, photoID int64) error {
	return s.repo.DeletePhoto(ctx, photoID, userID)
}

// SetProfilePicture makes the given photo the profile picture
func (s *service) SetProfilePicture(ctx context.Context, userID, photoID int64) error {
	return s.repo.SetProfilePicture(ctx, photoID, userID)
}

// GetVisitors lists recent visitors
func (s *service) GetVisitors(ctx context.Context, userID int64, limit int) ([]*ProfileVisit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.GetVisitors(ctx, userID, limit)
}
