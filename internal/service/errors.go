// Package service implements the application engines on top of the
// repository: theater layout and scheduling, seat booking, reviews and
// voting, and the movie catalog.  Services accept narrow store
// interfaces so tests can run them against in-memory fakes.
package service

import "errors"

// Error kinds returned by every service operation.  Handlers map them
// onto HTTP statuses; anything not wrapping one of these is a 500.
var (
	// ErrNotFound: the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the operation lost to an earlier, conflicting write
	// (seat already booked, showroom letter taken, screening overlap).
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument: the request is structurally valid but violates
	// a domain rule (rating out of range, more tokens than held).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPermissionDenied: the caller lacks the authority or ownership
	// the operation requires.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrExpired: the operation arrived too late (booking or refunding
	// after showtime, expired payment card).
	ErrExpired = errors.New("expired")
	// ErrDuplicateAction: the caller already performed this one-shot
	// action (second review for the same movie).
	ErrDuplicateAction = errors.New("duplicate action")
)
