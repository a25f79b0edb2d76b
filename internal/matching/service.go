// internal/matching/service.go

package matching

import (
	"context"
	"log"
	"time"
)

// Notifier delivers interaction notifications. Implemented by the
// notifications service; failures are logged, never surfaced to callers.
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error
}

type Service interface {
	Browse(ctx context.Context, viewerID int64, filters *BrowseFilters) (*BrowseResult, error)
	Like(ctx context.Context, likerID, targetID int64, isLike bool) (isMatch bool, err error)
	Unlike(ctx context.Context, likerID, targetID int64) (hadMatch bool, err error)
	Block(ctx context.Context, blockerID, targetID int64) error
	Report(ctx context.Context, reporterID, targetID int64, reason string) error
	Recalculate(ctx context.Context, userID int64) error
}

type Config struct {
	BrowsePageSize int
}

type service struct {
	repo     Repository
	notifier Notifier
	fame     *FameService
	pageSize int
}

func NewService(repo Repository, notifier Notifier, cfg *Config) Service {
	pageSize := cfg.BrowsePageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		fame:     NewFameService(repo),
		pageSize: pageSize,
	}
}

// Browse returns compatible candidates for the viewer, scored and sorted.
// The viewer must have at least an age and a gender set.
func (s *service) Browse(ctx context.Context, viewerID int64, filters *BrowseFilters) (*BrowseResult, error) {
	start := time.Now()
	defer func() { browseDuration.Observe(time.Since(start).Seconds()) }()

	viewer, err := s.repo.GetViewerProfile(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer.Age == nil || viewer.Gender == nil || *viewer.Gender == "" {
		return nil, ErrProfileIncomplete
	}

	orientation := ""
	if viewer.SexualOrientation != nil {
		orientation = *viewer.SexualOrientation
	}
	prefs := CompatiblePreferences(*viewer.Gender, orientation)

	candidates, err := s.repo.FindCandidates(ctx, viewerID, prefs, filters)
	if err != nil {
		return nil, err
	}

	// Tag intersection counting switches to partial matching only when the
	// caller filtered on explicit tags.
	partial := len(filters.CommonTags) > 0

	filtered := candidates[:0]
	for _, c := range candidates {
		c.Distance = candidateDistance(viewer, c)
		c.CommonTags = CommonTagCount(viewer.Interests, c.Interests, partial)

		if filters.MaxDistance != nil {
			if c.Distance == nil || *c.Distance > *filters.MaxDistance {
				continue
			}
		}
		if len(filters.CommonTags) > 0 && !hasAllTags(filters.CommonTags, c.Interests) {
			continue
		}
		filtered = append(filtered, c)
	}

	sortCandidates(filtered, filters.SortBy, filters.SortOrder)

	total := len(filtered)
	if total > s.pageSize {
		filtered = filtered[:s.pageSize]
	}

	if err := s.attachPhotos(ctx, filtered); err != nil {
		return nil, err
	}

	return &BrowseResult{Profiles: filtered, Total: total}, nil
}

func (s *service) attachPhotos(ctx context.Context, candidates []*Candidate) error {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}

	photos, err := s.repo.GetPhotosForUsers(ctx, ids)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		c.Photos = photos[c.UserID]
		if c.Photos == nil {
			c.Photos = []*CandidatePhoto{}
		}
	}
	return nil
}

// Like records a like or dislike of the target. Liking requires the liker
// to have at least one photo. Returns whether a new mutual match was created.
func (s *service) Like(ctx context.Context, likerID, targetID int64, isLike bool) (bool, error) {
	if likerID == targetID {
		return false, ErrCannotLikeSelf
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrUserNotFound
	}

	if isLike {
		count, err := s.repo.CountPhotos(ctx, likerID)
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, ErrNoProfilePhoto
		}
	}

	blocked, err := s.repo.IsBlockedEitherWay(ctx, likerID, targetID)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, ErrBlocked
	}

	alreadyLiked, err := s.repo.HasLiked(ctx, likerID, targetID)
	if err != nil {
		return false, err
	}

	newlyMatched, err := s.repo.LikeAndMatch(ctx, likerID, targetID, isLike)
	if err != nil {
		return false, err
	}

	result := "dislike"
	if isLike {
		result = "like"
	}
	likesProcessed.WithLabelValues(result).Inc()

	if newlyMatched {
		matchesCreated.Inc()
		s.notify(ctx, targetID, "match", map[string]interface{}{"userId": likerID})
		s.notify(ctx, likerID, "match", map[string]interface{}{"userId": targetID})
	} else if isLike && !alreadyLiked {
		// Re-sending an existing like must not spam the target
		s.notify(ctx, targetID, "like", map[string]interface{}{"userId": likerID})
	}

	s.recalcBoth(ctx, likerID, targetID)
	return newlyMatched, nil
}

// Unlike withdraws a previous like. When the like sustained a match, the
// match dissolves and the former partner is notified.
func (s *service) Unlike(ctx context.Context, likerID, targetID int64) (bool, error) {
	if likerID == targetID {
		return false, ErrCannotLikeSelf
	}

	hadMatch, err := s.repo.UnlikeAndUnmatch(ctx, likerID, targetID)
	if err != nil {
		return false, err
	}

	if hadMatch {
		matchesDissolved.Inc()
		s.notify(ctx, targetID, "unlike", map[string]interface{}{"userId": likerID})
	}

	s.recalcBoth(ctx, likerID, targetID)
	return hadMatch, nil
}

// Block hides the target from the blocker and vice versa. The target is
// never notified.
func (s *service) Block(ctx context.Context, blockerID, targetID int64) error {
	if blockerID == targetID {
		return ErrCannotBlockSelf
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	if err := s.repo.BlockUser(ctx, blockerID, targetID); err != nil {
		return err
	}

	blocksCreated.Inc()
	s.recalcBoth(ctx, blockerID, targetID)
	return nil
}

func (s *service) Report(ctx context.Context, reporterID, targetID int64, reason string) error {
	if reporterID == targetID {
		return ErrCannotBlockSelf
	}

	exists, err := s.repo.UserExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	return s.repo.CreateReport(ctx, reporterID, targetID, reason)
}

// Recalculate refreshes one user's fame rating. Exposed so the profile
// service can trigger it after recording a visit.
func (s *service) Recalculate(ctx context.Context, userID int64) error {
	return s.fame.Recalculate(ctx, userID)
}

func (s *service) notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipientID, event, data); err != nil {
		log.Printf("Failed to send %s notification to user %d: %v", event, recipientID, err)
	}
}

func (s *service) recalcBoth(ctx context.Context, a, b int64) {
	for _, id := range []int64{a, b} {
		if err := s.fame.Recalculate(ctx, id); err != nil {
			log.Printf("Failed to recalculate fame for user %d: %v", id, err)
		}
	}
}
