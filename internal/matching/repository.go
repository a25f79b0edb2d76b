// internal/matching/repository.go

package matching

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	GetViewerProfile(ctx context.Context, userID int64) (*ViewerProfile, error)
	FindCandidates(ctx context.Context, viewerID int64, prefs []Preference, filters *BrowseFilters) ([]*Candidate, error)
	GetPhotosForUsers(ctx context.Context, userIDs []int64) (map[int64][]*CandidatePhoto, error)

	UserExists(ctx context.Context, userID int64) (bool, error)
	CountPhotos(ctx context.Context, userID int64) (int, error)
	IsBlockedEitherWay(ctx context.Context, userID1, userID2 int64) (bool, error)
	HasLiked(ctx context.Context, likerID, likedID int64) (bool, error)

	LikeAndMatch(ctx context.Context, likerID, likedID int64, isLike bool) (newlyMatched bool, err error)
	UnlikeAndUnmatch(ctx context.Context, likerID, likedID int64) (hadMatch bool, err error)
	BlockUser(ctx context.Context, blockerID, blockedID int64) error
	CreateReport(ctx context.Context, reporterID, reportedID int64, reason string) error

	GetInteractionCounts(ctx context.Context, userID int64) (InteractionCounts, error)
	UpdateFameRating(ctx context.Context, userID int64, fame int) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetViewerProfile(ctx context.Context, userID int64) (*ViewerProfile, error) {
	var vp ViewerProfile
	query := `
		SELECT p.user_id, p.gender, p.sexual_orientation, p.age,
		       p.latitude, p.longitude, p.interests
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`

	err := r.db.GetContext(ctx, &vp, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer profile: %w", err)
	}
	return &vp, nil
}

// candidateQuery assembles the browse SELECT from typed filter values. Each
// condition appends its SQL fragment and arguments in a fixed order so the
// generated placeholders always line up with the argument list.
type candidateQuery struct {
	conditions []string
	args       []interface{}
}

func (q *candidateQuery) bind(condition string, args ...interface{}) string {
	n := len(q.args)
	for i := range args {
		condition = strings.Replace(condition, "?", fmt.Sprintf("$%d", n+i+1), 1)
	}
	q.args = append(q.args, args...)
	return condition
}

func (q *candidateQuery) add(condition string, args ...interface{}) {
	q.conditions = append(q.conditions, q.bind(condition, args...))
}

func (r *postgresRepository) FindCandidates(ctx context.Context, viewerID int64, prefs []Preference, filters *BrowseFilters) ([]*Candidate, error) {
	q := &candidateQuery{}

	q.add("p.user_id <> ?", viewerID)
	q.add("u.is_verified = TRUE")
	q.add("p.age IS NOT NULL")
	q.add("p.gender IS NOT NULL AND p.gender <> ''")

	// Orientation compatibility: one (gender, orientations) clause per
	// preference pool, joined with OR. An empty candidate orientation is
	// treated as bisexual, so pools containing 'bi' also accept it.
	if len(prefs) > 0 {
		var pools []string
		for _, pref := range prefs {
			clause := "(p.gender = ? AND (p.sexual_orientation = ANY(?)"
			for _, o := range pref.Orientations {
				if o == orientationBi {
					clause += " OR p.sexual_orientation IS NULL OR p.sexual_orientation = ''"
					break
				}
			}
			clause += "))"
			pools = append(pools, q.bind(clause, pref.Gender, pq.Array(pref.Orientations)))
		}
		q.conditions = append(q.conditions, "("+strings.Join(pools, " OR ")+")")
	}

	q.add("NOT EXISTS (SELECT 1 FROM likes l WHERE l.liker_id = ? AND l.liked_id = p.user_id)", viewerID)
	q.add(`NOT EXISTS (SELECT 1 FROM blocks b
		WHERE (b.blocker_id = ? AND b.blocked_id = p.user_id)
		   OR (b.blocker_id = p.user_id AND b.blocked_id = ?))`, viewerID, viewerID)

	if filters.AgeMin != nil {
		q.add("p.age >= ?", *filters.AgeMin)
	}
	if filters.AgeMax != nil {
		q.add("p.age <= ?", *filters.AgeMax)
	}
	if filters.MinFame != nil {
		q.add("p.fame_rating >= ?", *filters.MinFame)
	}
	if filters.MaxFame != nil {
		q.add("p.fame_rating <= ?", *filters.MaxFame)
	}

	query := `
		SELECT p.user_id, u.username, u.first_name,
		       p.gender, COALESCE(p.sexual_orientation, '') AS sexual_orientation,
		       p.age, COALESCE(p.biography, '') AS biography, p.city,
		       p.latitude, p.longitude, p.fame_rating, p.interests,
		       u.last_seen
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE ` + strings.Join(q.conditions, "\n\t\t  AND ")

	var candidates []*Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, q.args...); err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return candidates, nil
}

func (r *postgresRepository) GetPhotosForUsers(ctx context.Context, userIDs []int64) (map[int64][]*CandidatePhoto, error) {
	photos := make(map[int64][]*CandidatePhoto, len(userIDs))
	if len(userIDs) == 0 {
		return photos, nil
	}

	query := `
		SELECT id, user_id, data, mime_type, is_profile_picture
		FROM photos
		WHERE user_id = ANY($1)
		ORDER BY user_id, is_profile_picture DESC, created_at ASC`

	var rows []*CandidatePhoto
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to get candidate photos: %w", err)
	}

	for _, p := range rows {
		photos[p.UserID] = append(photos[p.UserID], p)
	}
	return photos, nil
}

func (r *postgresRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) CountPhotos(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM photos WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) IsBlockedEitherWay(ctx context.Context, userID1, userID2 int64) (bool, error) {
	var blocked bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)`
	err := r.db.GetContext(ctx, &blocked, query, userID1, userID2)
	if err != nil {
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return blocked, nil
}

func (r *postgresRepository) HasLiked(ctx context.Context, likerID, likedID int64) (bool, error) {
	var liked bool
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE liker_id = $1 AND liked_id = $2 AND is_like = TRUE)`
	err := r.db.GetContext(ctx, &liked, query, likerID, likedID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}

// LikeAndMatch records a like or dislike and, when the like is reciprocated,
// creates the match in the same transaction. Re-liking overwrites the
// previous interaction.
func (r *postgresRepository) LikeAndMatch(ctx context.Context, likerID, likedID int64, isLike bool) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO likes (liker_id, liked_id, is_like)
		VALUES ($1, $2, $3)
		ON CONFLICT (liker_id, liked_id)
		DO UPDATE SET is_like = EXCLUDED.is_like, created_at = NOW()`,
		likerID, likedID, isLike)
	if err != nil {
		return false, fmt.Errorf("failed to record like: %w", err)
	}

	newlyMatched := false
	if isLike {
		var reciprocated bool
		err = tx.GetContext(ctx, &reciprocated,
			`SELECT EXISTS(SELECT 1 FROM likes WHERE liker_id = $1 AND liked_id = $2 AND is_like = TRUE)`,
			likedID, likerID)
		if err != nil {
			return false, fmt.Errorf("failed to check reciprocal like: %w", err)
		}

		if reciprocated {
			u1, u2 := likerID, likedID
			if u1 > u2 {
				u1, u2 = u2, u1
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO matches (user1_id, user2_id)
				VALUES ($1, $2)
				ON CONFLICT (user1_id, user2_id) DO NOTHING`,
				u1, u2)
			if err != nil {
				return false, fmt.Errorf("failed to create match: %w", err)
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return false, fmt.Errorf("failed to read match result: %w", err)
			}
			newlyMatched = rows > 0
		}
	} else {
		// A dislike dissolves an existing match.
		if err := dissolveMatch(ctx, tx, likerID, likedID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like: %w", err)
	}
	return newlyMatched, nil
}

// UnlikeAndUnmatch removes a like and dissolves any match it sustained.
// The conversation, if any, is deactivated rather than deleted so history
// survives a later re-match.
func (r *postgresRepository) UnlikeAndUnmatch(ctx context.Context, likerID, likedID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM likes WHERE liker_id = $1 AND liked_id = $2`, likerID, likedID)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}

	hadMatch, err := deleteMatch(ctx, tx, likerID, likedID)
	if err != nil {
		return false, err
	}
	if hadMatch {
		if err := deactivateConversation(ctx, tx, likerID, likedID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit unlike: %w", err)
	}
	return hadMatch, nil
}

// BlockUser records the block and severs every relationship with the blocked
// user: likes both ways, the match, and the conversation. Idempotent.
func (r *postgresRepository) BlockUser(ctx context.Context, blockerID, blockedID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO blocks (blocker_id, blocked_id)
		VALUES ($1, $2)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING`,
		blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to record block: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM likes
		WHERE (liker_id = $1 AND liked_id = $2)
		   OR (liker_id = $2 AND liked_id = $1)`,
		blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to remove likes: %w", err)
	}

	hadMatch, err := deleteMatch(ctx, tx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if hadMatch {
		if err := deactivateConversation(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit block: %w", err)
	}
	return nil
}

func (r *postgresRepository) CreateReport(ctx context.Context, reporterID, reportedID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (reporter_id, reported_id, reason)
		VALUES ($1, $2, $3)`,
		reporterID, reportedID, reason)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetInteractionCounts(ctx context.Context, userID int64) (InteractionCounts, error) {
	var counts InteractionCounts
	query := `
		SELECT
			(SELECT COUNT(*) FROM likes WHERE liked_id = $1 AND is_like = TRUE)  AS likes_received,
			(SELECT COUNT(*) FROM likes WHERE liked_id = $1 AND is_like = FALSE) AS dislikes_received,
			(SELECT COUNT(*) FROM profile_visits WHERE visited_id = $1)          AS visits_received,
			(SELECT COUNT(*) FROM matches WHERE user1_id = $1 OR user2_id = $1)  AS matches`

	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return counts, fmt.Errorf("failed to get interaction counts: %w", err)
	}
	return counts, nil
}

func (r *postgresRepository) UpdateFameRating(ctx context.Context, userID int64, fame int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET fame_rating = $1, updated_at = NOW() WHERE user_id = $2`,
		fame, userID)
	if err != nil {
		return fmt.Errorf("failed to update fame rating: %w", err)
	}
	return nil
}

func deleteMatch(ctx context.Context, tx *sqlx.Tx, userID1, userID2 int64) (bool, error) {
	u1, u2 := userID1, userID2
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM matches WHERE user1_id = $1 AND user2_id = $2`, u1, u2)
	if err != nil {
		return false, fmt.Errorf("failed to delete match: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read unmatch result: %w", err)
	}
	return rows > 0, nil
}

func dissolveMatch(ctx context.Context, tx *sqlx.Tx, userID1, userID2 int64) error {
	hadMatch, err := deleteMatch(ctx, tx, userID1, userID2)
	if err != nil {
		return err
	}
	if hadMatch {
		return deactivateConversation(ctx, tx, userID1, userID2)
	}
	return nil
}

func deactivateConversation(ctx context.Context, tx *sqlx.Tx, userID1, userID2 int64) error {
	u1, u2 := userID1, userID2
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE conversations SET is_active = FALSE
		WHERE user1_id = $1 AND user2_id = $2`,
		u1, u2)
	if err != nil {
		return fmt.Errorf("failed to deactivate conversation: %w", err)
	}
	return nil
}
