package model

import (
	"fmt"
	"time"
)

// Screening is one scheduled showing of a movie in a showroom.  EndAt
// is derived from the movie duration when the screening is created.
// Screenings in the same showroom never overlap in time.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – movie being shown.
//  ShowroomID – room the screening takes place in.
//  ShowAt     – when the screening begins (UTC).
//  EndAt      – ShowAt + movie duration (UTC).
//  CreatedAt  – creation timestamp.
type Screening struct {
	ID         uint64    `json:"id"`          // screenings.id
	MovieID    uint64    `json:"movie_id"`    // screenings.movie_id
	ShowroomID uint64    `json:"showroom_id"` // screenings.showroom_id
	ShowAt     time.Time `json:"show_at"`     // screenings.show_at
	EndAt      time.Time `json:"end_at"`      // screenings.end_at
	CreatedAt  time.Time `json:"created_at"`  // screenings.created_at
}

// Started reports whether the screening has already begun at the given
// instant.  Bookings and refunds are both rejected once it has.
func (s Screening) Started(now time.Time) bool {
	return !s.ShowAt.After(now)
}

// Overlaps implements the interval-overlap test used by the scheduler:
// [aStart,aEnd] and [bStart,bEnd] overlap when aStart <= bEnd AND
// bStart <= aEnd.  The test is inclusive on both ends, so a screening
// ending exactly when another starts still counts as a clash.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// ScreeningSeat is the bookable instance of a physical seat for one
// specific screening.  One is created per ShowroomSeat when the
// screening is scheduled.  Booked state is derived, not stored: the
// seat is booked iff TicketID is non-nil.  Seats order by (row,
// number).
type ScreeningSeat struct {
	ID             uint64  `json:"id"`                  // screening_seats.id
	ScreeningID    uint64  `json:"screening_id"`        // screening_seats.screening_id
	ShowroomSeatID uint64  `json:"showroom_seat_id"`    // screening_seats.showroom_seat_id
	Row            string  `json:"row"`                 // joined from showroom_seats.row_letter
	Number         uint32  `json:"number"`              // joined from showroom_seats.seat_number
	TicketID       *uint64 `json:"ticket_id,omitempty"` // screening_seats.ticket_id (nullable, unique)
}

// Booked reports whether a ticket is linked to this seat.
func (s ScreeningSeat) Booked() bool {
	return s.TicketID != nil
}

// Label returns the seat designation shown to customers, e.g. "C7".
func (s ScreeningSeat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}
