package model

import "time"

// Rating bounds for reviews.  Out-of-range ratings are rejected at the
// service layer.
const (
	MinRating = 0
	MaxRating = 10
)

// ValidRating reports whether r is on the review rating scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// FloorAverage returns the floor of the arithmetic mean of the given
// ratings, or 0 when there are none.  Ratings are non-negative so
// integer division is the floor.
func FloorAverage(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}

// Review is a customer's writeup of a movie.  A customer writes at most
// one review per movie; resubmissions must go through the update path.
// Censorship hides the review from public listings without deleting it.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – reviewed movie.
//  CustomerID – writing customer.
//  Rating     – integer rating on [MinRating,MaxRating].
//  Text       – free-text body.
//  Censored   – set by a moderator, clears on uncensor.
//  CensoredBy – user id of the censoring moderator, nil when not censored.
type Review struct {
	ID         uint64    `json:"id"`                    // reviews.id
	MovieID    uint64    `json:"movie_id"`              // reviews.movie_id
	CustomerID uint64    `json:"customer_id"`           // reviews.customer_id
	Rating     int       `json:"rating"`                // reviews.rating
	Text       string    `json:"text"`                  // reviews.body
	Censored   bool      `json:"censored"`              // reviews.is_censored
	CensoredBy *uint64   `json:"censored_by,omitempty"` // reviews.censored_by (nullable)
	CreatedAt  time.Time `json:"created_at"`            // reviews.created_at
	UpdatedAt  time.Time `json:"updated_at"`            // reviews.updated_at
}

// Vote is the polarity of a review vote.
type Vote string

const (
	Upvote   Vote = "UPVOTE"
	Downvote Vote = "DOWNVOTE"
)

// Valid reports whether the vote is a known polarity.
func (v Vote) Valid() bool {
	return v == Upvote || v == Downvote
}

// ReviewVote records one customer's vote on one review.  (review,
// voter) is unique; casting again replaces the stored value in place
// rather than adding a second row.
type ReviewVote struct {
	ID         uint64    `json:"id"`          // review_votes.id
	ReviewID   uint64    `json:"review_id"`   // review_votes.review_id
	CustomerID uint64    `json:"customer_id"` // review_votes.customer_id
	Value      Vote      `json:"vote"`        // review_votes.vote
	CreatedAt  time.Time `json:"created_at"`  // review_votes.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // review_votes.updated_at
}
