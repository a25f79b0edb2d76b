// internal/profile/service_test.go

package profile

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visitKey struct {
	visitor, visited int64
}

type fakeRepository struct {
	profiles map[int64]*Profile
	photos   map[int64][]*Photo
	visits   map[visitKey]int // times recorded today
	blocks   map[visitKey]bool
	nextID   int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		profiles: make(map[int64]*Profile),
		photos:   make(map[int64][]*Photo),
		visits:   make(map[visitKey]int),
		blocks:   make(map[visitKey]bool),
		nextID:   1,
	}
}

func (f *fakeRepository) GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeRepository) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if req.Biography != nil {
		p.Biography = *req.Biography
	}
	if req.Interests != nil {
		p.Interests = req.Interests
	}
	return p, nil
}

func (f *fakeRepository) AddPhoto(ctx context.Context, photo *Photo) error {
	photo.ID = f.nextID
	f.nextID++
	photo.IsProfilePicture = len(f.photos[photo.UserID]) == 0
	f.photos[photo.UserID] = append(f.photos[photo.UserID], photo)
	return nil
}

func (f *fakeRepository) GetPhoto(ctx context.Context, photoID int64) (*Photo, error) {
	for _, photos := range f.photos {
		for _, p := range photos {
			if p.ID == photoID {
				return p, nil
			}
		}
	}
	return nil, ErrPhotoNotFound
}

func (f *fakeRepository) GetUserPhotos(ctx context.Context, userID int64) ([]*Photo, error) {
	return f.photos[userID], nil
}

func (f *fakeRepository) CountUserPhotos(ctx context.Context, userID int64) (int, error) {
	return len(f.photos[userID]), nil
}

func (f *fakeRepository) DeletePhoto(ctx context.Context, photoID, userID int64) error {
	photos := f.photos[userID]
	for i, p := range photos {
		if p.ID == photoID {
			f.photos[userID] = append(photos[:i], photos[i+1:]...)
			return nil
		}
	}
	return ErrPhotoNotFound
}

func (f *fakeRepository) SetProfilePicture(ctx context.Context, photoID, userID int64) error {
	found := false
	for _, p := range f.photos[userID] {
		if p.ID == photoID {
			found = true
		}
	}
	if !found {
		return ErrPhotoNotFound
	}
	for _, p := range f.photos[userID] {
		p.IsProfilePicture = p.ID == photoID
	}
	return nil
}

func (f *fakeRepository) RecordVisit(ctx context.Context, visitorID, visitedID int64) (bool, error) {
	key := visitKey{visitorID, visitedID}
	f.visits[key]++
	return f.visits[key] == 1, nil
}

func (f *fakeRepository) GetVisitors(ctx context.Context, userID int64, limit int) ([]*ProfileVisit, error) {
	var out []*ProfileVisit
	for key := range f.visits {
		if key.visited == userID {
			out = append(out, &ProfileVisit{VisitorID: key.visitor, VisitedID: key.visited})
		}
	}
	return out, nil
}

func (f *fakeRepository) IsBlockedEitherWay(ctx context.Context, userID, targetID int64) (bool, error) {
	return f.blocks[visitKey{userID, targetID}] || f.blocks[visitKey{targetID, userID}], nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Notify(ctx context.Context, recipientID int64, event string, data map[string]interface{}) error {
	f.events = append(f.events, event)
	return nil
}

type fakeFame struct {
	calls int
}

func (f *fakeFame) Recalculate(ctx context.Context, userID int64) error {
	f.calls++
	return nil
}

const maxPhotosForTest = 5

func newTestService(repo *fakeRepository, notifier *fakeNotifier, fame *fakeFame) Service {
	return NewService(repo, notifier, fame, maxPhotosForTest)
}

func TestGetProfileRecordsVisitOncePerDay(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	fame := &fakeFame{}
	svc := newTestService(repo, notifier, fame)

	repo.profiles[2] = &Profile{UserID: 2, Username: "bob"}

	_, err := svc.GetProfile(ctx, 2, 1)
	require.NoError(t, err)
	_, err = svc.GetProfile(ctx, 2, 1)
	require.NoError(t, err)

	// Two views, one recorded visit, one notification, one fame recompute
	assert.Equal(t, 2, repo.visits[visitKey{1, 2}])
	assert.Equal(t, []string{"visit"}, notifier.events)
	assert.Equal(t, 1, fame.calls)
}

func TestGetOwnProfileRecordsNoVisit(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeFame{})

	repo.profiles[1] = &Profile{UserID: 1, Username: "alice"}

	_, err := svc.GetProfile(ctx, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, repo.visits)
	assert.Empty(t, notifier.events)
}

func TestGetProfileBlockedEitherWay(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{}, &fakeFame{})

	repo.profiles[2] = &Profile{UserID: 2, Username: "bob"}
	repo.blocks[visitKey{2, 1}] = true

	_, err := svc.GetProfile(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrUserBlocked)
	assert.Empty(t, repo.visits)
}

func TestAddPhotoValidatesAndLimits(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{}, &fakeFame{})

	valid := base64.StdEncoding.EncodeToString([]byte("image bytes"))

	_, err := svc.AddPhoto(ctx, 1, &AddPhotoRequest{Data: "not base64!!!", MimeType: "image/jpeg"})
	assert.ErrorIs(t, err, ErrInvalidImageFormat)

	for i := 0; i < maxPhotosForTest; i++ {
		_, err := svc.AddPhoto(ctx, 1, &AddPhotoRequest{Data: valid, MimeType: "image/jpeg"})
		require.NoError(t, err)
	}

	_, err = svc.AddPhoto(ctx, 1, &AddPhotoRequest{Data: valid, MimeType: "image/jpeg"})
	assert.ErrorIs(t, err, ErrTooManyPhotos)

	// First upload became the profile picture
	photos, err := svc.GetPhotos(ctx, 1)
	require.NoError(t, err)
	require.Len(t, photos, maxPhotosForTest)
	assert.True(t, photos[0].IsProfilePicture)
	assert.False(t, photos[1].IsProfilePicture)
}

func TestUpdateProfileInterestsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{}, &fakeFame{})

	repo.profiles[1] = &Profile{UserID: 1, Username: "alice"}

	_, err := svc.UpdateProfile(ctx, 1, &UpdateProfileRequest{
		Interests: []string{"Musique", "Cinéma"},
	})
	require.NoError(t, err)

	got, err := svc.GetMyProfile(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Musique", "Cinéma"}, []string(got.Interests))
}

func TestSetProfilePictureSwaps(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeNotifier{}, &fakeFame{})

	valid := base64.StdEncoding.EncodeToString([]byte("image"))
	first, err := svc.AddPhoto(ctx, 1, &AddPhotoRequest{Data: valid, MimeType: "image/png"})
	require.NoError(t, err)
	second, err := svc.AddPhoto(ctx, 1, &AddPhotoRequest{Data: valid, MimeType: "image/png"})
	require.NoError(t, err)

	require.NoError(t, svc.SetProfilePicture(ctx, 1, second.ID))

	photos, _ := svc.GetPhotos(ctx, 1)
	for _, p := range photos {
		assert.Equal(t, p.ID == second.ID, p.IsProfilePicture)
	}

	assert.False(t, first.IsProfilePicture)
}
