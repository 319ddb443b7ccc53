package model

import (
	"fmt"
	"time"
)

// RoomLetter designates a physical showroom.  The theater uses the 26
// letters A through Z, and a letter identifies at most one showroom.
type RoomLetter string

// Valid reports whether the letter is one of the 26 room designators.
func (l RoomLetter) Valid() bool {
	return len(l) == 1 && l[0] >= 'A' && l[0] <= 'Z'
}

// Showroom represents a physical theater room with a fixed seat grid.
// The grid is created once, together with the showroom, and consists of
// Rows×SeatsPerRow ShowroomSeats.  Screenings scheduled in the room
// snapshot the grid into bookable ScreeningSeats.
//
// Fields:
//  ID          – primary key identifier.
//  Letter      – unique room designator (A–Z).
//  Rows        – number of seating rows (at most 26, one letter each).
//  SeatsPerRow – number of seats in every row.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Showroom struct {
	ID          uint64     `json:"id"`            // showrooms.id
	Letter      RoomLetter `json:"letter"`        // showrooms.letter
	Rows        uint32     `json:"rows"`          // showrooms.row_count
	SeatsPerRow uint32     `json:"seats_per_row"` // showrooms.seats_per_row
	CreatedAt   time.Time  `json:"created_at"`    // showrooms.created_at
	UpdatedAt   time.Time  `json:"updated_at"`    // showrooms.updated_at
}

// ShowroomSeat is one physical seat inside a showroom, addressed by its
// row letter and 1-based seat number.  (showroom, row, number) is
// unique; seats are never created individually after the room exists.
type ShowroomSeat struct {
	ID         uint64 `json:"id"`          // showroom_seats.id
	ShowroomID uint64 `json:"showroom_id"` // showroom_seats.showroom_id
	Row        string `json:"row"`         // showroom_seats.row_letter (A..)
	Number     uint32 `json:"number"`      // showroom_seats.seat_number (1..seats_per_row)
}

// Label returns the seat designation shown to customers, e.g. "C7".
func (s ShowroomSeat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}

// SeatGrid builds the full seat set for a new showroom: rows labelled
// A.. and seat numbers 1..seatsPerRow.  The caller is responsible for
// validating the dimensions first.
func SeatGrid(rows, seatsPerRow uint32) []ShowroomSeat {
	seats := make([]ShowroomSeat, 0, rows*seatsPerRow)
	for r := uint32(0); r < rows; r++ {
		row := string(rune('A' + r))
		for n := uint32(1); n <= seatsPerRow; n++ {
			seats = append(seats, ShowroomSeat{Row: row, Number: n})
		}
	}
	return seats
}
