package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/repository"
)

type voteKey struct {
	reviewID   uint64
	customerID uint64
}

type fakeReviewStore struct {
	nextID    uint64
	customers map[uint64]*model.Customer // keyed by user ID
	roles     map[uint64][]model.Role
	movies    map[uint64]*model.Movie
	reviews   map[uint64]*model.Review
	votes     map[voteKey]*model.ReviewVote
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{
		customers: map[uint64]*model.Customer{},
		roles:     map[uint64][]model.Role{},
		movies:    map[uint64]*model.Movie{},
		reviews:   map[uint64]*model.Review{},
		votes:     map[voteKey]*model.ReviewVote{},
	}
}

func (f *fakeReviewStore) id() uint64 { f.nextID++; return f.nextID }

func (f *fakeReviewStore) addCustomer(userID uint64) *model.Customer {
	c := &model.Customer{ID: f.id(), UserID: userID}
	f.customers[userID] = c
	f.roles[userID] = []model.Role{model.RoleCustomer}
	return c
}

func (f *fakeReviewStore) addMovie() *model.Movie {
	m := &model.Movie{ID: f.id()}
	f.movies[m.ID] = m
	return m
}

func (f *fakeReviewStore) CustomerByUserID(_ context.Context, userID uint64) (*model.Customer, error) {
	c, ok := f.customers[userID]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeReviewStore) SetCustomerCensored(_ context.Context, customerID uint64, moderatorUserID *uint64) error {
	for _, c := range f.customers {
		if c.ID == customerID {
			c.CensoredBy = moderatorUserID
			return nil
		}
	}
	return repository.ErrCustomerNotFound
}

func (f *fakeReviewStore) RolesByUser(_ context.Context, userID uint64) ([]model.Role, error) {
	return f.roles[userID], nil
}

func (f *fakeReviewStore) MovieByID(_ context.Context, id uint64) (*model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return m, nil
}

func (f *fakeReviewStore) CreateReview(_ context.Context, r *model.Review) error {
	for _, existing := range f.reviews {
		if existing.MovieID == r.MovieID && existing.CustomerID == r.CustomerID {
			return repository.ErrDuplicate
		}
	}
	r.ID = f.id()
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeReviewStore) UpdateReview(_ context.Context, id, customerID uint64, rating int, body string) error {
	r, ok := f.reviews[id]
	if !ok || r.CustomerID != customerID {
		return repository.ErrReviewNotFound
	}
	r.Rating = rating
	r.Text = body
	return nil
}

func (f *fakeReviewStore) ReviewByID(_ context.Context, id uint64) (*model.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	rp := *r
	return &rp, nil
}

func (f *fakeReviewStore) ReviewsByMovie(_ context.Context, movieID uint64, includeCensored bool) ([]model.Review, error) {
	var out []model.Review
	for _, r := range f.reviews {
		if r.MovieID != movieID {
			continue
		}
		if r.Censored && !includeCensored {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReviewStore) SetReviewCensored(_ context.Context, id uint64, censored bool, moderatorUserID *uint64) error {
	r, ok := f.reviews[id]
	if !ok {
		return repository.ErrReviewNotFound
	}
	r.Censored = censored
	r.CensoredBy = moderatorUserID
	return nil
}

func (f *fakeReviewStore) UpsertVote(_ context.Context, v *model.ReviewVote) error {
	key := voteKey{v.ReviewID, v.CustomerID}
	if existing, ok := f.votes[key]; ok {
		existing.Value = v.Value
		return nil
	}
	v.ID = f.id()
	f.votes[key] = v
	return nil
}

func (f *fakeReviewStore) VoteCounts(_ context.Context, reviewID uint64) (int, int, error) {
	up, down := 0, 0
	for _, v := range f.votes {
		if v.ReviewID != reviewID {
			continue
		}
		if v.Value == model.Upvote {
			up++
		} else {
			down++
		}
	}
	return up, down, nil
}

func (f *fakeReviewStore) MovieRatings(_ context.Context, movieID uint64) ([]int, error) {
	var out []int
	for _, r := range f.reviews {
		if r.MovieID == movieID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func newReviewForTest(t *testing.T) (*ReviewService, *fakeReviewStore) {
	t.Helper()
	store := newFakeReviewStore()
	return NewReviewService(store, nil, zerolog.Nop()), store
}

func TestSubmitReview(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	store.addCustomer(10)
	movie := store.addMovie()

	review, err := svc.SubmitReview(ctx, 10, movie.ID, 8, "tense and lean")
	require.NoError(t, err)
	assert.NotZero(t, review.ID)

	_, err = svc.SubmitReview(ctx, 10, movie.ID, 9, "changed my mind")
	assert.ErrorIs(t, err, ErrDuplicateAction)
}

func TestSubmitReviewRatingBounds(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	store.addCustomer(10)
	movie := store.addMovie()

	_, err := svc.SubmitReview(ctx, 10, movie.ID, 11, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.SubmitReview(ctx, 10, movie.ID, -1, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSubmitReviewCensoredCustomer(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	customer := store.addCustomer(10)
	moderator := uint64(99)
	customer.CensoredBy = &moderator
	movie := store.addMovie()

	_, err := svc.SubmitReview(ctx, 10, movie.ID, 5, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateReviewOwnership(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	store.addCustomer(10)
	store.addCustomer(11)
	movie := store.addMovie()

	review, err := svc.SubmitReview(ctx, 10, movie.ID, 6, "fine")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateReview(ctx, 10, review.ID, 9, "grew on me"))
	assert.Equal(t, 9, store.reviews[review.ID].Rating)

	assert.ErrorIs(t, svc.UpdateReview(ctx, 11, review.ID, 1, ""), ErrPermissionDenied)
}

func TestCastVote(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	store.addCustomer(10)
	store.addCustomer(11)
	movie := store.addMovie()

	review, err := svc.SubmitReview(ctx, 10, movie.ID, 7, "")
	require.NoError(t, err)

	// Voting on one's own review is denied.
	assert.ErrorIs(t, svc.CastVote(ctx, 10, review.ID, model.Upvote), ErrPermissionDenied)

	require.NoError(t, svc.CastVote(ctx, 11, review.ID, model.Upvote))
	up, down, err := svc.VoteTally(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, up)
	assert.Equal(t, 0, down)

	// Re-voting replaces the stored polarity; never a second row.
	require.NoError(t, svc.CastVote(ctx, 11, review.ID, model.Downvote))
	up, down, err = svc.VoteTally(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, up)
	assert.Equal(t, 1, down)

	// Casting the identical vote again is a no-op.
	require.NoError(t, svc.CastVote(ctx, 11, review.ID, model.Downvote))
	up, down, err = svc.VoteTally(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, up)
	assert.Equal(t, 1, down)
}

func TestCensorRequiresModerator(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	store.addCustomer(10)
	store.addCustomer(11)
	movie := store.addMovie()

	review, err := svc.SubmitReview(ctx, 10, movie.ID, 2, "awful")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Censor(ctx, 11, review.ID), ErrPermissionDenied)

	store.roles[99] = []model.Role{model.RoleModerator}
	require.NoError(t, svc.Censor(ctx, 99, review.ID))
	assert.True(t, store.reviews[review.ID].Censored)
	require.NotNil(t, store.reviews[review.ID].CensoredBy)
	assert.Equal(t, uint64(99), *store.reviews[review.ID].CensoredBy)

	// Censored reviews drop out of the public listing but stay in the
	// moderation view.
	public, err := svc.Reviews(ctx, movie.ID, false)
	require.NoError(t, err)
	assert.Empty(t, public)
	all, err := svc.Reviews(ctx, movie.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Uncensor(ctx, 99, review.ID))
	assert.False(t, store.reviews[review.ID].Censored)
	assert.Nil(t, store.reviews[review.ID].CensoredBy)
}

func TestCensorCustomer(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	customer := store.addCustomer(10)
	movie := store.addMovie()
	store.roles[99] = []model.Role{model.RoleModerator}

	assert.ErrorIs(t, svc.CensorCustomer(ctx, 10, customer.ID), ErrPermissionDenied)
	assert.ErrorIs(t, svc.CensorCustomer(ctx, 99, 12345), ErrNotFound)

	require.NoError(t, svc.CensorCustomer(ctx, 99, customer.ID))
	_, err := svc.SubmitReview(ctx, 10, movie.ID, 5, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, svc.UncensorCustomer(ctx, 99, customer.ID))
	_, err = svc.SubmitReview(ctx, 10, movie.ID, 5, "")
	require.NoError(t, err)
}

func TestAverageRatingFloors(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	movie := store.addMovie()

	avg, err := svc.AverageRating(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, avg)

	for i, rating := range []int{7, 7, 8} {
		store.addCustomer(uint64(20 + i))
		_, err := svc.SubmitReview(ctx, uint64(20+i), movie.ID, rating, "")
		require.NoError(t, err)
	}
	avg, err = svc.AverageRating(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, avg) // floor(22/3)
}

func TestAverageRatingIncludesCensored(t *testing.T) {
	svc, store := newReviewForTest(t)
	ctx := context.Background()
	movie := store.addMovie()
	store.addCustomer(10)
	store.roles[99] = []model.Role{model.RoleAdmin}

	review, err := svc.SubmitReview(ctx, 10, movie.ID, 10, "")
	require.NoError(t, err)
	require.NoError(t, svc.Censor(ctx, 99, review.ID))

	avg, err := svc.AverageRating(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, avg)
}
