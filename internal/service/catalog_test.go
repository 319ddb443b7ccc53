package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/repository"
)

type fakeCatalogStore struct {
	nextID uint64
	movies map[uint64]*model.Movie
	bySlug map[string]uint64
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		movies: make(map[uint64]*model.Movie),
		bySlug: make(map[string]uint64),
	}
}

func (f *fakeCatalogStore) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalogStore) CreateMovie(_ context.Context, m *model.Movie) error {
	if _, taken := f.bySlug[m.SearchTitle]; taken {
		return repository.ErrDuplicate
	}
	m.ID = f.id()
	f.movies[m.ID] = m
	f.bySlug[m.SearchTitle] = m.ID
	return nil
}

func (f *fakeCatalogStore) MovieByID(_ context.Context, id uint64) (*model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return m, nil
}

func (f *fakeCatalogStore) MovieBySearchTitle(_ context.Context, searchTitle string) (*model.Movie, error) {
	id, ok := f.bySlug[searchTitle]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return f.movies[id], nil
}

func (f *fakeCatalogStore) ListMovies(_ context.Context) ([]model.Movie, error) {
	out := make([]model.Movie, 0, len(f.movies))
	for _, m := range f.movies {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeCatalogStore) DeleteMovie(_ context.Context, id uint64) error {
	m, ok := f.movies[id]
	if !ok {
		return repository.ErrMovieNotFound
	}
	delete(f.bySlug, m.SearchTitle)
	delete(f.movies, id)
	return nil
}

func newCatalogForTest(t *testing.T) (*CatalogService, *fakeCatalogStore) {
	t.Helper()
	store := newFakeCatalogStore()
	return NewCatalogService(store, zerolog.Nop()), store
}

func movieInput(title string) MovieInput {
	return MovieInput{
		Title:       title,
		Director:    "Lana Wachowski",
		Synopsis:    "A hacker learns the truth.",
		Duration:    model.Duration{Hours: 2, Minutes: 16},
		ReleaseDate: time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC),
		Rating:      model.RatingR,
		Cast:        []string{"Keanu Reeves"},
		Writers:     []string{"Lana Wachowski"},
		Categories:  []string{"Sci-Fi"},
	}
}

func TestAddMovieValidation(t *testing.T) {
	svc, _ := newCatalogForTest(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*MovieInput)
	}{
		{"blank title", func(in *MovieInput) { in.Title = "   " }},
		{"unknown rating", func(in *MovieInput) { in.Rating = "PG18" }},
		{"no searchable characters", func(in *MovieInput) { in.Title = "!!!" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := movieInput("The Matrix")
			tc.mutate(&in)
			_, err := svc.AddMovie(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestAddMovieDuplicateTitle(t *testing.T) {
	svc, _ := newCatalogForTest(t)
	ctx := context.Background()

	first, err := svc.AddMovie(ctx, movieInput("The Matrix"))
	require.NoError(t, err)
	assert.Equal(t, "THEMATRIX", first.SearchTitle)

	// Normalizes to the same search title as the first.
	_, err = svc.AddMovie(ctx, movieInput("the MATRIX!"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestFindByTitleNormalizes(t *testing.T) {
	svc, _ := newCatalogForTest(t)
	ctx := context.Background()

	added, err := svc.AddMovie(ctx, movieInput("Spider-Man: No Way Home"))
	require.NoError(t, err)

	for _, q := range []string{"spiderman no way home", "SPIDER MAN NO WAY HOME!", "Spider-Man: No Way Home"} {
		got, err := svc.FindByTitle(ctx, q)
		require.NoError(t, err, "query %q", q)
		assert.Equal(t, added.ID, got.ID)
	}

	_, err = svc.FindByTitle(ctx, "Inception")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.FindByTitle(ctx, "???")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRemoveMovie(t *testing.T) {
	svc, store := newCatalogForTest(t)
	ctx := context.Background()

	added, err := svc.AddMovie(ctx, movieInput("Dune"))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveMovie(ctx, added.ID))
	assert.Empty(t, store.movies)

	err = svc.RemoveMovie(ctx, added.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Movie(ctx, added.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The slug is free again.
	_, err = svc.AddMovie(ctx, movieInput("Dune"))
	require.NoError(t, err)
}
