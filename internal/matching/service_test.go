// internal/matching/service_test.go

package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeKey struct {
	liker, liked int64
}

type pairKey struct {
	u1, u2 int64
}

func pair(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// fakeConversation mirrors the columns of the conversations table.
type fakeConversation struct {
	user1ID  int64
	user2ID  int64
	isActive bool
}

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	users         map[int64]*ViewerProfile
	photos        map[int64]int
	likes         map[likeKey]bool // value: is_like
	matches       map[pairKey]bool
	conversations map[pairKey]*fakeConversation
	blocks        map[likeKey]bool
	reports       []string
	candidates    []*Candidate
	fame          map[int64]int
	visits        map[int64]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:         make(map[int64]*ViewerProfile),
		photos:        make(map[int64]int),
		likes:         make(map[likeKey]bool),
		matches:       make(map[pairKey]bool),
		conversations: make(map[pairKey]*fakeConversation),
		blocks:        make(map[likeKey]bool),
		fame:          make(map[int64]int),
		visits:        make(map[int64]int),
	}
}

func (f *fakeRepository) openConversation(a, b int64) *fakeConversation {
	p := pair(a, b)
	conv := &fakeConversation{user1ID: p.u1, user2ID: p.u2, isActive: true}
	f.conversations[p] = conv
	return conv
}

// dissolveMatch mirrors the transactional transition: the match row goes
// away and the pair's conversation is deactivated.
func (f *fakeRepository) dissolveMatch(a, b int64) bool {
	p := pair(a, b)
	hadMatch := f.matches[p]
	delete(f.matches, p)
	if hadMatch {
		if conv, ok := f.conversations[p]; ok {
			conv.isActive = false
		}
	}
	return hadMatch
}

func (f *fakeRepository) addUser(id int64, photos int) {
	age := 25
	gender := genderFemale
	f.users[id] = &ViewerProfile{UserID: id, Age: &age, Gender: &gender}
	f.photos[id] = photos
}

func (f *fakeRepository) GetViewerProfile(ctx context.Context, userID int64) (*ViewerProfile, error) {
	vp, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return vp, nil
}

func (f *fakeRepository) FindCandidates(ctx context.Context, viewerID int64, prefs []Preference, filters *BrowseFilters) ([]*Candidate, error) {
	return f.candidates, nil
}

func (f *fakeRepository) GetPhotosForUsers(ctx context.Context, userIDs []int64) (map[int64][]*CandidatePhoto, error) {
	return map[int64][]*CandidatePhoto{}, nil
}

func (f *fakeRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeRepository) CountPhotos(ctx context.Context, userID int64) (int, error) {
	return f.photos[userID], nil
}

func (f *fakeRepository) IsBlockedEitherWay(ctx context.Context, a, b int64) (bool, error) {
	return f.blocks[likeKey{a, b}] || f.blocks[likeKey{b, a}], nil
}

func (f *fakeRepository) HasLiked(ctx context.Context, likerID, likedID int64) (bool, error) {
	isLike, ok := f.likes[likeKey{likerID, likedID}]
	return ok && isLike, nil
}

func (f *fakeRepository) LikeAndMatch(ctx context.Context, likerID, likedID int64, isLike bool) (bool, error) {
	f.likes[likeKey{likerID, likedID}] = isLike

	if !isLike {
		f.dissolveMatch(likerID, likedID)
		return false, nil
	}

	reciprocal, ok := f.likes[likeKey{likedID, likerID}]
	if ok && reciprocal && !f.matches[pair(likerID, likedID)] {
		f.matches[pair(likerID, likedID)] = true
		return true, nil
	}
	return false, nil
}

func (f *fakeRepository) UnlikeAndUnmatch(ctx context.Context, likerID, likedID int64) (bool, error) {
	delete(f.likes, likeKey{likerID, likedID})
	return f.dissolveMatch(likerID, likedID), nil
}

func (f *fakeRepository) BlockUser(ctx context.Context, blockerID, blockedID int64) error {
	f.blocks[likeKey{blockerID, blockedID}] = true
	delete(f.likes, likeKey{blockerID, blockedID})
	delete(f.likes, likeKey{blockedID, blockerID})
	f.dissolveMatch(blockerID, blockedID)
	return nil
}

func (f *fakeRepository) CreateReport(ctx context.Context, reporterID, reportedID int64, reason string) error {
	f.reports = append(f.reports, reason)
	return nil
}

func (f *fakeRepository) GetInteractionCounts(ctx context.Context, userID int64) (InteractionCounts, error) {
	counts := InteractionCounts{VisitsReceived: f.visits[userID]}
	for k, isLike := range f.likes {
		if k.liked != userID {
			continue
		}
		if isLike {
			counts.LikesReceived++
		} else {
			counts.DislikesReceived++
		}
	}
	for k := range f.matches {
		if k.u1 == userID || k.u2 == userID {
			counts.Matches++
		}
	}
	return counts, nil
}

func (f *fakeRepository) UpdateFameRating(ctx context.Context, userID int64, fame int) error {
	f.fame[userID] = fame
	return nil
}

// fakeNotifier records Notify calls.
type fakeNotifier struct {
	events []notifyCall
}

type notifyCall struct {
	recipient int64
	event     string
}

func (f *fakeNotifier) Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error {
	f.events = append(f.events, notifyCall{recipientID, event})
	return nil
}

func (f *fakeNotifier) eventsFor(recipient int64) []string {
	var out []string
	for _, e := range f.events {
		if e.recipient == recipient {
			out = append(out, e.event)
		}
	}
	return out
}

func newTestService(repo *fakeRepository, notifier *fakeNotifier) Service {
	return NewService(repo, notifier, &Config{BrowsePageSize: 50})
}

func TestLikeCreatesMatchWhenReciprocated(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	repo.addUser(1, 1)
	repo.addUser(2, 1)

	isMatch, err := svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)
	assert.False(t, isMatch)
	assert.Equal(t, []string{"like"}, notifier.eventsFor(2))

	isMatch, err = svc.Like(ctx, 2, 1, true)
	require.NoError(t, err)
	assert.True(t, isMatch)

	// Both sides get a match notification
	assert.Contains(t, notifier.eventsFor(1), "match")
	assert.Contains(t, notifier.eventsFor(2), "match")

	// Exactly one match exists for the pair
	assert.True(t, repo.matches[pair(1, 2)])
	assert.Len(t, repo.matches, 1)

	// Fame reflects the like and the match on both sides
	assert.Equal(t, 7, repo.fame[1]) // 1 like * 2 + 1 match * 5
	assert.Equal(t, 7, repo.fame[2])
}

func TestRepeatedLikeNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	repo.addUser(1, 1)
	repo.addUser(2, 1)

	_, err := svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)
	_, err = svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"like"}, notifier.eventsFor(2))
}

func TestLikeRequiresPhoto(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{})

	repo.addUser(1, 0)
	repo.addUser(2, 1)

	_, err := svc.Like(ctx, 1, 2, true)
	assert.ErrorIs(t, err, ErrNoProfilePhoto)

	// Disliking does not require a photo
	_, err = svc.Like(ctx, 1, 2, false)
	assert.NoError(t, err)
}

func TestLikeSelfAndUnknownTarget(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{})

	repo.addUser(1, 1)

	_, err := svc.Like(ctx, 1, 1, true)
	assert.ErrorIs(t, err, ErrCannotLikeSelf)

	_, err = svc.Like(ctx, 1, 99, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLikeBlockedUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{})

	repo.addUser(1, 1)
	repo.addUser(2, 1)
	repo.blocks[likeKey{2, 1}] = true

	_, err := svc.Like(ctx, 1, 2, true)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestDislikeDissolvesMatch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	repo.addUser(1, 1)
	repo.addUser(2, 1)

	_, err := svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)
	isMatch, err := svc.Like(ctx, 2, 1, true)
	require.NoError(t, err)
	require.True(t, isMatch)
	conv := repo.openConversation(1, 2)

	_, err = svc.Like(ctx, 1, 2, false)
	require.NoError(t, err)
	assert.Empty(t, repo.matches)
	assert.False(t, conv.isActive)
}

func TestUnlikeNotifiesOnlyWhenMatched(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	repo.addUser(1, 1)
	repo.addUser(2, 1)

	// Unmatched unlike: no notification
	_, err := svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)
	hadMatch, err := svc.Unlike(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hadMatch)
	assert.NotContains(t, notifier.eventsFor(2), "unlike")

	// Matched unlike: match dissolves and the former partner hears about it
	_, err = svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)
	_, err = svc.Like(ctx, 2, 1, true)
	require.NoError(t, err)
	conv := repo.openConversation(1, 2)

	hadMatch, err = svc.Unlike(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, hadMatch)
	assert.Empty(t, repo.matches)
	assert.False(t, conv.isActive)
	assert.Contains(t, notifier.eventsFor(2), "unlike")
}

func TestBlockSeversRelationshipSilently(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	repo.addUser(1, 1)
	repo.addUser(2, 1)

	_, err := svc.Like(ctx, 1, 2, true)
	require.NoError(t, err)
	_, err = svc.Like(ctx, 2, 1, true)
	require.NoError(t, err)
	conv := repo.openConversation(1, 2)

	notifier.events = nil

	require.NoError(t, svc.Block(ctx, 1, 2))

	assert.Empty(t, repo.matches)
	assert.Empty(t, repo.likes)
	assert.False(t, conv.isActive)
	// The blocked user is never notified
	assert.Empty(t, notifier.eventsFor(2))

	// Blocking again is fine
	assert.NoError(t, svc.Block(ctx, 1, 2))

	assert.ErrorIs(t, svc.Block(ctx, 1, 1), ErrCannotBlockSelf)
}

func TestBrowseRequiresCompleteProfile(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{})

	gender := genderMale
	repo.users[1] = &ViewerProfile{UserID: 1, Gender: &gender} // no age

	_, err := svc.Browse(ctx, 1, &BrowseFilters{SortBy: SortDistance})
	assert.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestBrowseFiltersAndCapsResults(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, &fakeNotifier{}, &Config{BrowsePageSize: 2})

	age := 30
	gender := genderMale
	lat, lon := 48.8566, 2.3522
	repo.users[1] = &ViewerProfile{
		UserID: 1, Age: &age, Gender: &gender,
		Latitude: &lat, Longitude: &lon,
		Interests: []string{"hiking", "jazz"},
	}

	nearLat, nearLon := 48.86, 2.35    // essentially Paris
	farLat, farLon := 45.7640, 4.8357  // Lyon
	repo.candidates = []*Candidate{
		{UserID: 2, Age: 28, Latitude: &nearLat, Longitude: &nearLon, Interests: []string{"hiking"}},
		{UserID: 3, Age: 31, Latitude: &nearLat, Longitude: &nearLon, Interests: []string{"jazz", "hiking"}},
		{UserID: 4, Age: 29, Latitude: &farLat, Longitude: &farLon, Interests: []string{"hiking"}},
		{UserID: 5, Age: 35, Interests: []string{"hiking"}}, // no coordinates
	}

	maxDist := 50.0
	result, err := svc.Browse(ctx, 1, &BrowseFilters{
		MaxDistance: &maxDist,
		SortBy:      SortCommonTags,
		SortOrder:   "desc",
	})
	require.NoError(t, err)

	// Lyon and the coordinate-less candidate are filtered out
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Profiles, 2)
	assert.Equal(t, int64(3), result.Profiles[0].UserID)
	assert.Equal(t, 2, result.Profiles[0].CommonTags)

	// Page cap applies after counting the total
	result, err = svc.Browse(ctx, 1, &BrowseFilters{SortBy: SortIntelligent})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Len(t, result.Profiles, 2)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{})

	repo.addUser(1, 1)
	repo.addUser(2, 1)

	require.NoError(t, svc.Report(ctx, 1, 2, "fake account"))
	assert.Equal(t, []string{"fake account"}, repo.reports)

	assert.ErrorIs(t, svc.Report(ctx, 1, 99, "spam"), ErrUserNotFound)
}
