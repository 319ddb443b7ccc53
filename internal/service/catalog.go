package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/repository"
)

// CatalogStore is the persistence surface the movie catalog needs.
type CatalogStore interface {
	CreateMovie(ctx context.Context, m *model.Movie) error
	MovieByID(ctx context.Context, id uint64) (*model.Movie, error)
	MovieBySearchTitle(ctx context.Context, searchTitle string) (*model.Movie, error)
	ListMovies(ctx context.Context) ([]model.Movie, error)
	DeleteMovie(ctx context.Context, id uint64) error
}

// CatalogService administers and serves the movie catalog.
type CatalogService struct {
	store CatalogStore
	log   zerolog.Logger
}

func NewCatalogService(store CatalogStore, log zerolog.Logger) *CatalogService {
	return &CatalogService{store: store, log: log.With().Str("svc", "catalog").Logger()}
}

// MovieInput is what an admin supplies when adding a movie.
type MovieInput struct {
	Title       string
	Director    string
	Synopsis    string
	Duration    model.Duration
	ReleaseDate time.Time
	Rating      model.MsrbRating
	Cast        []string
	Writers     []string
	Categories  []string
}

// AddMovie registers a movie.  The searchable title is derived from the
// display title; two movies normalizing to the same search title are a
// Conflict.
func (s *CatalogService) AddMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if !in.Rating.Valid() {
		return nil, fmt.Errorf("%w: unknown MSRB rating %q", ErrInvalidArgument, in.Rating)
	}
	searchTitle := model.SearchTitle(title)
	if searchTitle == "" {
		return nil, fmt.Errorf("%w: title must contain at least one letter or digit", ErrInvalidArgument)
	}
	movie := &model.Movie{
		Title:       title,
		SearchTitle: searchTitle,
		Director:    in.Director,
		Synopsis:    in.Synopsis,
		Duration:    in.Duration,
		ReleaseDate: in.ReleaseDate,
		Rating:      in.Rating,
		Cast:        in.Cast,
		Writers:     in.Writers,
		Categories:  in.Categories,
	}
	if err := s.store.CreateMovie(ctx, movie); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a movie titled %q already exists", ErrConflict, title)
		}
		return nil, err
	}
	s.log.Info().Uint64("movie_id", movie.ID).Str("title", title).Msg("movie added")
	return movie, nil
}

// Movie returns one movie by ID.
func (s *CatalogService) Movie(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := s.store.MovieByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: movie %d", ErrNotFound, id)
		}
		return nil, err
	}
	return m, nil
}

// FindByTitle looks a movie up by title, insensitively to case,
// whitespace and punctuation: "The Matrix!" and "the matrix" find the
// same movie.
func (s *CatalogService) FindByTitle(ctx context.Context, title string) (*model.Movie, error) {
	searchTitle := model.SearchTitle(title)
	if searchTitle == "" {
		return nil, fmt.Errorf("%w: title must contain at least one letter or digit", ErrInvalidArgument)
	}
	m, err := s.store.MovieBySearchTitle(ctx, searchTitle)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: no movie titled %q", ErrNotFound, title)
		}
		return nil, err
	}
	return m, nil
}

// Movies lists the catalog, newest release first.
func (s *CatalogService) Movies(ctx context.Context) ([]model.Movie, error) {
	return s.store.ListMovies(ctx)
}

// RemoveMovie deletes a movie with its reviews, votes, screenings and
// tickets.
func (s *CatalogService) RemoveMovie(ctx context.Context, id uint64) error {
	if err := s.store.DeleteMovie(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return fmt.Errorf("%w: movie %d", ErrNotFound, id)
		}
		return err
	}
	s.log.Info().Uint64("movie_id", id).Msg("movie removed")
	return nil
}
