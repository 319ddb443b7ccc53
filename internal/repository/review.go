package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ecinema/ecinema/internal/model"
)

const reviewCols = `id, movie_id, customer_id, rating, body, is_censored, censored_by,
	created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
	var r model.Review
	var censoredBy sql.NullInt64
	err := row.Scan(&r.ID, &r.MovieID, &r.CustomerID, &r.Rating, &r.Text,
		&r.Censored, &censoredBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if censoredBy.Valid {
		uid := uint64(censoredBy.Int64)
		r.CensoredBy = &uid
	}
	return &r, nil
}

// CreateReview inserts a review.  The (movie, customer) pair is unique;
// a second review by the same customer returns ErrDuplicate.  The
// generated ID is written back to r.
func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	const q = `INSERT INTO reviews (movie_id, customer_id, rating, body) VALUES (?, ?, ?, ?)`
	res, err := s.q().ExecContext(ctx, q, r.MovieID, r.CustomerID, r.Rating, r.Text)
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
	r.ID = uint64(id)
	return nil
}

// UpdateReview rewrites the rating and body of a customer's review.
// The owner check lives in the WHERE clause.  Returns ErrReviewNotFound
// when the customer has no such review.
func (s *Store) UpdateReview(ctx context.Context, id, customerID uint64, rating int, body string) error {
	const q = `UPDATE reviews SET rating = ?, body = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND customer_id = ?`
	res, err := s.q().ExecContext(ctx, q, rating, body, id, customerID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var exists int
		err := s.q().QueryRowContext(ctx,
			`SELECT 1 FROM reviews WHERE id = ? AND customer_id = ?`, id, customerID).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReviewNotFound
			}
			return err
		}
	}
	return nil
}

// ReviewByID returns a review or ErrReviewNotFound.
func (s *Store) ReviewByID(ctx context.Context, id uint64) (*model.Review, error) {
	r, err := scanReview(s.q().QueryRowContext(ctx,
		`SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return r, nil
}

// ReviewsByMovie lists a movie's reviews, newest first.  Censored
// reviews are excluded unless includeCensored is set (the moderation
// view).
func (s *Store) ReviewsByMovie(ctx context.Context, movieID uint64, includeCensored bool) ([]model.Review, error) {
	q := `SELECT ` + reviewCols + ` FROM reviews WHERE movie_id = ?`
	if !includeCensored {
		q += ` AND is_censored = FALSE`
	}
	q += ` ORDER BY created_at DESC, id DESC`
	rows, err := s.q().QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// SetReviewCensored flips a review's censorship flag, recording the
// moderator on censor and clearing it on uncensor.  Returns
// ErrReviewNotFound when the review does not exist.
func (s *Store) SetReviewCensored(ctx context.Context, id uint64, censored bool, moderatorUserID *uint64) error {
	var by any
	if censored && moderatorUserID != nil {
		by = *moderatorUserID
	}
	const q = `UPDATE reviews SET is_censored = ?, censored_by = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := s.q().ExecContext(ctx, q, censored, by, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var exists int
		err := s.q().QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReviewNotFound
			}
			return err
		}
	}
	return nil
}

// UpsertVote records a customer's vote on a review.  The (review,
// voter) pair is unique; voting again replaces the stored polarity in
// place, so repeating an identical vote is a harmless no-op.
func (s *Store) UpsertVote(ctx context.Context, v *model.ReviewVote) error {
	const q = `INSERT INTO review_votes (review_id, customer_id, vote)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE vote = VALUES(vote), updated_at = CURRENT_TIMESTAMP`
	_, err := s.q().ExecContext(ctx, q, v.ReviewID, v.CustomerID, string(v.Value))
	return err
}

// VoteCounts tallies a review's upvotes and downvotes.
func (s *Store) VoteCounts(ctx context.Context, reviewID uint64) (up, down int, err error) {
	const q = `SELECT
	             COALESCE(SUM(vote = 'UPVOTE'), 0),
	             COALESCE(SUM(vote = 'DOWNVOTE'), 0)
	           FROM review_votes WHERE review_id = ?`
	err = s.q().QueryRowContext(ctx, q, reviewID).Scan(&up, &down)
	return up, down, err
}

// MovieRatings returns every rating recorded for a movie, censored
// reviews included.  The average is computed over them at the service
// layer.
func (s *Store) MovieRatings(ctx context.Context, movieID uint64) ([]int, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT rating FROM reviews WHERE movie_id = ?`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ratings []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
