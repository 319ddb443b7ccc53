package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ecinema/ecinema/internal/model"
	"github.com/ecinema/ecinema/internal/repository"
)

// ReviewStore is the persistence surface the review engine needs.
type ReviewStore interface {
	CustomerByUserID(ctx context.Context, userID uint64) (*model.Customer, error)
	SetCustomerCensored(ctx context.Context, customerID uint64, moderatorUserID *uint64) error
	RolesByUser(ctx context.Context, userID uint64) ([]model.Role, error)
	MovieByID(ctx context.Context, id uint64) (*model.Movie, error)

	CreateReview(ctx context.Context, r *model.Review) error
	UpdateReview(ctx context.Context, id, customerID uint64, rating int, body string) error
	ReviewByID(ctx context.Context, id uint64) (*model.Review, error)
	ReviewsByMovie(ctx context.Context, movieID uint64, includeCensored bool) ([]model.Review, error)
	SetReviewCensored(ctx context.Context, id uint64, censored bool, moderatorUserID *uint64) error

	UpsertVote(ctx context.Context, v *model.ReviewVote) error
	VoteCounts(ctx context.Context, reviewID uint64) (up, down int, err error)
	MovieRatings(ctx context.Context, movieID uint64) ([]int, error)
}

const avgRatingTTL = 5 * time.Minute

// ReviewService runs reviews, votes, censorship and the movie rating
// aggregate.  The aggregate read is cached in Redis with a short TTL
// and invalidated on every review write; a nil redis client disables
// the cache.
type ReviewService struct {
	store ReviewStore
	cache *redis.Client
	log   zerolog.Logger
}

func NewReviewService(store ReviewStore, cache *redis.Client, log zerolog.Logger) *ReviewService {
	return &ReviewService{store: store, cache: cache, log: log.With().Str("svc", "review").Logger()}
}

// SubmitReview posts a customer's review of a movie.  One review per
// (customer, movie); a second submission is a DuplicateAction and must
// go through UpdateReview instead.  Censored customers may not post.
func (s *ReviewService) SubmitReview(ctx context.Context, userID, movieID uint64, rating int, text string) (*model.Review, error) {
	customer, err := s.customer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer.Censored() {
		return nil, fmt.Errorf("%w: customer is censored", ErrPermissionDenied)
	}
	if !model.ValidRating(rating) {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidArgument, model.MinRating, model.MaxRating)
	}
	if _, err := s.store.MovieByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: movie %d", ErrNotFound, movieID)
		}
		return nil, err
	}
	review := &model.Review{MovieID: movieID, CustomerID: customer.ID, Rating: rating, Text: text}
	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: movie %d already reviewed", ErrDuplicateAction, movieID)
		}
		return nil, err
	}
	s.invalidateAverage(ctx, movieID)
	s.log.Info().Uint64("review_id", review.ID).Uint64("movie_id", movieID).
		Uint64("customer_id", customer.ID).Int("rating", rating).Msg("review submitted")
	return review, nil
}

// UpdateReview rewrites the caller's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID uint64, rating int, text string) error {
	customer, err := s.customer(ctx, userID)
	if err != nil {
		return err
	}
	if customer.Censored() {
		return fmt.Errorf("%w: customer is censored", ErrPermissionDenied)
	}
	if !model.ValidRating(rating) {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidArgument, model.MinRating, model.MaxRating)
	}
	review, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return err
	}
	if review.CustomerID != customer.ID {
		return fmt.Errorf("%w: review %d belongs to another customer", ErrPermissionDenied, reviewID)
	}
	if err := s.store.UpdateReview(ctx, reviewID, customer.ID, rating, text); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return err
	}
	s.invalidateAverage(ctx, review.MovieID)
	return nil
}

// CastVote records the caller's vote on a review.  Voting on one's own
// review is denied; re-voting replaces the stored polarity, so casting
// the identical vote again is an idempotent no-op.
func (s *ReviewService) CastVote(ctx context.Context, userID, reviewID uint64, vote model.Vote) error {
	customer, err := s.customer(ctx, userID)
	if err != nil {
		return err
	}
	if !vote.Valid() {
		return fmt.Errorf("%w: unknown vote %q", ErrInvalidArgument, vote)
	}
	review, err := s.store.ReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return err
	}
	if review.CustomerID == customer.ID {
		return fmt.Errorf("%w: cannot vote on own review", ErrPermissionDenied)
	}
	return s.store.UpsertVote(ctx, &model.ReviewVote{
		ReviewID:   reviewID,
		CustomerID: customer.ID,
		Value:      vote,
	})
}

// VoteTally returns a review's upvote and downvote counts.
func (s *ReviewService) VoteTally(ctx context.Context, reviewID uint64) (up, down int, err error) {
	if _, err := s.store.ReviewByID(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return 0, 0, fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return 0, 0, err
	}
	return s.store.VoteCounts(ctx, reviewID)
}

// Censor hides a review from public listings.  Requires MODERATOR or
// ADMIN authority; the censoring moderator is recorded on the review.
func (s *ReviewService) Censor(ctx context.Context, moderatorUserID, reviewID uint64) error {
	return s.setCensored(ctx, moderatorUserID, reviewID, true)
}

// Uncensor restores a censored review to public view.
func (s *ReviewService) Uncensor(ctx context.Context, moderatorUserID, reviewID uint64) error {
	return s.setCensored(ctx, moderatorUserID, reviewID, false)
}

func (s *ReviewService) setCensored(ctx context.Context, moderatorUserID, reviewID uint64, censored bool) error {
	if err := s.requireModerator(ctx, moderatorUserID); err != nil {
		return err
	}
	var by *uint64
	if censored {
		by = &moderatorUserID
	}
	if err := s.store.SetReviewCensored(ctx, reviewID, censored, by); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
		}
		return err
	}
	s.log.Info().Uint64("review_id", reviewID).Uint64("moderator_id", moderatorUserID).
		Bool("censored", censored).Msg("review censorship changed")
	return nil
}

// CensorCustomer bars a customer from submitting or updating reviews.
// Requires MODERATOR or ADMIN authority; existing reviews are untouched
// and stay subject to per-review censorship.
func (s *ReviewService) CensorCustomer(ctx context.Context, moderatorUserID, customerID uint64) error {
	return s.setCustomerCensored(ctx, moderatorUserID, customerID, true)
}

// UncensorCustomer lets a censored customer post again.
func (s *ReviewService) UncensorCustomer(ctx context.Context, moderatorUserID, customerID uint64) error {
	return s.setCustomerCensored(ctx, moderatorUserID, customerID, false)
}

func (s *ReviewService) setCustomerCensored(ctx context.Context, moderatorUserID, customerID uint64, censored bool) error {
	if err := s.requireModerator(ctx, moderatorUserID); err != nil {
		return err
	}
	var by *uint64
	if censored {
		by = &moderatorUserID
	}
	if err := s.store.SetCustomerCensored(ctx, customerID, by); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return err
	}
	s.log.Info().Uint64("customer_id", customerID).Uint64("moderator_id", moderatorUserID).
		Bool("censored", censored).Msg("customer censorship changed")
	return nil
}

// Reviews lists a movie's reviews, newest first.  Censored reviews are
// visible only when includeCensored is set; that path is for the
// moderation view and is role-gated at the handler.
func (s *ReviewService) Reviews(ctx context.Context, movieID uint64, includeCensored bool) ([]model.Review, error) {
	if _, err := s.store.MovieByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: movie %d", ErrNotFound, movieID)
		}
		return nil, err
	}
	return s.store.ReviewsByMovie(ctx, movieID, includeCensored)
}

// AverageRating returns the floor of the mean rating over every review
// of the movie, censored ones included, or 0 with no reviews.
func (s *ReviewService) AverageRating(ctx context.Context, movieID uint64) (int, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, avgRatingKey(movieID)).Result()
		if err == nil {
			if avg, convErr := strconv.Atoi(cached); convErr == nil {
				return avg, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("rating cache read failed")
		}
	}
	if _, err := s.store.MovieByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return 0, fmt.Errorf("%w: movie %d", ErrNotFound, movieID)
		}
		return 0, err
	}
	ratings, err := s.store.MovieRatings(ctx, movieID)
	if err != nil {
		return 0, err
	}
	avg := model.FloorAverage(ratings)
	if s.cache != nil {
		if err := s.cache.Set(ctx, avgRatingKey(movieID), strconv.Itoa(avg), avgRatingTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("rating cache write failed")
		}
	}
	return avg, nil
}

func (s *ReviewService) customer(ctx context.Context, userID uint64) (*model.Customer, error) {
	customer, err := s.store.CustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, fmt.Errorf("%w: user %d holds no customer authority", ErrPermissionDenied, userID)
		}
		return nil, err
	}
	return customer, nil
}

func (s *ReviewService) requireModerator(ctx context.Context, userID uint64) error {
	roles, err := s.store.RolesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if r == model.RoleModerator || r == model.RoleAdmin {
			return nil
		}
	}
	return fmt.Errorf("%w: moderator authority required", ErrPermissionDenied)
}

func (s *ReviewService) invalidateAverage(ctx context.Context, movieID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, avgRatingKey(movieID)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("rating cache invalidate failed")
	}
}

func avgRatingKey(movieID uint64) string {
	return "movie:avg_rating:" + strconv.FormatUint(movieID, 10)
}
