package repository

import "errors"

// ErrDuplicate is returned when an insert or update hits a uniqueness
// constraint: duplicate showroom letter, seat already ticketed, second
// review for a movie.  The service layer maps it onto its Conflict or
// DuplicateAction kinds depending on the operation.
var ErrDuplicate = errors.New("duplicate record")

// Per-entity not-found sentinels.  Each lookup method documents which
// one it returns.
var (
	ErrShowroomNotFound  = errors.New("showroom not found")
	ErrSeatNotFound      = errors.New("screening seat not found")
	ErrScreeningNotFound = errors.New("screening not found")
	ErrMovieNotFound     = errors.New("movie not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrCardNotFound      = errors.New("payment card not found")
	ErrUserNotFound      = errors.New("user not found")
)
