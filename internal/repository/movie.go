package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ecinema/ecinema/internal/model"
)

// The cast, writer and category sets are stored as JSON arrays in TEXT
// columns; they are read and written wholesale with the movie.

const movieCols = `id, title, search_title, director, synopsis, duration_minutes,
	release_date, msrb_rating, cast_names, writer_names, categories, created_at, updated_at`

func scanMovie(row interface{ Scan(...any) error }) (*model.Movie, error) {
	var m model.Movie
	var minutes int
	var rating string
	var castJSON, writersJSON, categoriesJSON []byte
	err := row.Scan(&m.ID, &m.Title, &m.SearchTitle, &m.Director, &m.Synopsis, &minutes,
		&m.ReleaseDate, &rating, &castJSON, &writersJSON, &categoriesJSON,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Rating = model.MsrbRating(rating)
	if m.Duration, err = model.DurationFromMinutes(minutes); err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{{castJSON, &m.Cast}, {writersJSON, &m.Writers}, {categoriesJSON, &m.Categories}} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, err
			}
		}
	}
	return &m, nil
}

// CreateMovie inserts a movie.  A duplicate search title returns
// ErrDuplicate.  The generated ID is written back to m.
func (s *Store) CreateMovie(ctx context.Context, m *model.Movie) error {
	castJSON, err := json.Marshal(m.Cast)
	if err != nil {
		return err
	}
	writersJSON, err := json.Marshal(m.Writers)
	if err != nil {
		return err
	}
	categoriesJSON, err := json.Marshal(m.Categories)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies
	           (title, search_title, director, synopsis, duration_minutes, release_date,
	            msrb_rating, cast_names, writer_names, categories)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.q().ExecContext(ctx, q, m.Title, m.SearchTitle, m.Director, m.Synopsis,
		m.Duration.TotalMinutes(), m.ReleaseDate, string(m.Rating),
		castJSON, writersJSON, categoriesJSON)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// MovieByID returns a movie or ErrMovieNotFound.
func (s *Store) MovieByID(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := scanMovie(s.q().QueryRowContext(ctx,
		`SELECT `+movieCols+` FROM movies WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// MovieBySearchTitle looks a movie up by its normalized title, the
// case- and punctuation-insensitive path.  Returns ErrMovieNotFound
// when nothing matches.
func (s *Store) MovieBySearchTitle(ctx context.Context, searchTitle string) (*model.Movie, error) {
	m, err := scanMovie(s.q().QueryRowContext(ctx,
		`SELECT `+movieCols+` FROM movies WHERE search_title = ?`, searchTitle))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMovies returns the catalog ordered by release date, newest first.
func (s *Store) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT `+movieCols+` FROM movies ORDER BY release_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// DeleteMovie removes a movie and its dependents: review votes,
// reviews, tickets on its screenings, screening seats, screenings and
// the movie row, explicitly and in one transaction.  Returns
// ErrMovieNotFound when the movie does not exist.
func (s *Store) DeleteMovie(ctx context.Context, id uint64) error {
	return s.withTx(ctx, func(tx *Store) error {
		var exists int
		err := tx.q().QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
		steps := []string{
			`DELETE rv FROM review_votes rv
			   JOIN reviews r ON r.id = rv.review_id
			  WHERE r.movie_id = ?`,
			`DELETE FROM reviews WHERE movie_id = ?`,
			`DELETE t FROM tickets t
			   JOIN screening_seats ss ON ss.id = t.screening_seat_id
			   JOIN screenings sc ON sc.id = ss.screening_id
			  WHERE sc.movie_id = ?`,
			`DELETE ss FROM screening_seats ss
			   JOIN screenings sc ON sc.id = ss.screening_id
			  WHERE sc.movie_id = ?`,
			`DELETE FROM screenings WHERE movie_id = ?`,
			`DELETE FROM movies WHERE id = ?`,
		}
		for _, step := range steps {
			if _, err := tx.q().ExecContext(ctx, step, id); err != nil {
				return err
			}
		}
		return nil
	})
}
