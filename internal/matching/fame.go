// internal/matching/fame.go
// Fame rating computation. The rating rewards incoming interest and
// mutual matches, penalizes dislikes, and never drops below zero.

package matching

import (
	"context"
	"log"
)

const (
	fameLikeWeight    = 2
	fameVisitWeight   = 1
	fameMatchWeight   = 5
	fameDislikeWeight = 1
)

// ComputeFameRating derives a user's fame rating from their interaction
// counters: 2 per like received, 1 per profile visit received, 5 per match,
// minus 1 per dislike received, clamped at zero.
func ComputeFameRating(c InteractionCounts) int {
	fame := fameLikeWeight*c.LikesReceived +
		fameVisitWeight*c.VisitsReceived +
		fameMatchWeight*c.Matches -
		fameDislikeWeight*c.DislikesReceived
	if fame < 0 {
		fame = 0
	}
	return fame
}

// FameService recomputes and persists fame ratings from interaction counters.
type FameService struct {
	repo Repository
}

func NewFameService(repo Repository) *FameService {
	return &FameService{repo: repo}
}

// Recalculate refreshes the stored fame rating for one user. It is called
// after every interaction that changes the user's counters (like, dislike,
// unlike, match, visit).
func (f *FameService) Recalculate(ctx context.Context, userID int64) error {
	counts, err := f.repo.GetInteractionCounts(ctx, userID)
	if err != nil {
		return err
	}

	fame := ComputeFameRating(counts)

	if err := f.repo.UpdateFameRating(ctx, userID, fame); err != nil {
		return err
	}

	fameRatingObserved.Observe(float64(fame))
	log.Printf("Fame rating for user %d recalculated to %d", userID, fame)
	return nil
}
