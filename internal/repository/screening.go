package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ecinema/ecinema/internal/model"
)

const screeningCols = `id, movie_id, showroom_id, show_at, end_at, created_at`

func scanScreening(row interface{ Scan(...any) error }) (*model.Screening, error) {
	var sc model.Screening
	err := row.Scan(&sc.ID, &sc.MovieID, &sc.ShowroomID, &sc.ShowAt, &sc.EndAt, &sc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// CreateScreening persists a screening and snapshots the showroom's
// seat grid into screening_seats, all in one transaction.  The showroom
// row is locked first so concurrent schedules for the same room
// serialize, and the overlap check runs under that lock: an overlap
// returns ErrDuplicate, a vanished room ErrShowroomNotFound.  The
// snapshot is a single INSERT..SELECT so a screening is never visible
// with a partial seat set.  The generated ID is written back to sc.
func (s *Store) CreateScreening(ctx context.Context, sc *model.Screening) error {
	return s.withTx(ctx, func(tx *Store) error {
		var roomID uint64
		err := tx.q().QueryRowContext(ctx,
			`SELECT id FROM showrooms WHERE id = ? FOR UPDATE`, sc.ShowroomID).Scan(&roomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowroomNotFound
			}
			return err
		}
		overlaps, err := tx.OverlappingScreenings(ctx, sc.ShowroomID, sc.ShowAt, sc.EndAt)
		if err != nil {
			return err
		}
		if len(overlaps) > 0 {
			return ErrDuplicate
		}
		const ins = `INSERT INTO screenings (movie_id, showroom_id, show_at, end_at) VALUES (?, ?, ?, ?)`
		res, err := tx.q().ExecContext(ctx, ins, sc.MovieID, sc.ShowroomID, sc.ShowAt.UTC(), sc.EndAt.UTC())
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		sc.ID = uint64(id)
		const snapshot = `INSERT INTO screening_seats (screening_id, showroom_seat_id)
		                  SELECT ?, id FROM showroom_seats WHERE showroom_id = ?`
		_, err = tx.q().ExecContext(ctx, snapshot, sc.ID, sc.ShowroomID)
		return err
	})
}

// ScreeningByID returns a screening or ErrScreeningNotFound.
func (s *Store) ScreeningByID(ctx context.Context, id uint64) (*model.Screening, error) {
	sc, err := scanScreening(s.q().QueryRowContext(ctx,
		`SELECT `+screeningCols+` FROM screenings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreeningNotFound
		}
		return nil, err
	}
	return sc, nil
}

// OverlappingScreenings returns the screenings of a showroom whose
// [show_at, end_at] interval overlaps [start, end].  The comparison is
// inclusive on both ends: a screening ending exactly at start (or
// starting exactly at end) is reported as an overlap.  CreateScreening
// runs this under the room lock.
func (s *Store) OverlappingScreenings(ctx context.Context, showroomID uint64, start, end time.Time) ([]model.Screening, error) {
	const q = `SELECT ` + screeningCols + ` FROM screenings
	           WHERE showroom_id = ? AND show_at <= ? AND end_at >= ?`
	rows, err := s.q().QueryContext(ctx, q, showroomID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overlaps []model.Screening
	for rows.Next() {
		sc, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		overlaps = append(overlaps, *sc)
	}
	return overlaps, rows.Err()
}

// ScreeningsByShowroom lists a room's screenings ordered by start time.
func (s *Store) ScreeningsByShowroom(ctx context.Context, showroomID uint64) ([]model.Screening, error) {
	return s.listScreenings(ctx,
		`SELECT `+screeningCols+` FROM screenings WHERE showroom_id = ? ORDER BY show_at ASC`, showroomID)
}

// ScreeningsByMovie lists a movie's screenings ordered by start time.
func (s *Store) ScreeningsByMovie(ctx context.Context, movieID uint64) ([]model.Screening, error) {
	return s.listScreenings(ctx,
		`SELECT `+screeningCols+` FROM screenings WHERE movie_id = ? ORDER BY show_at ASC`, movieID)
}

func (s *Store) listScreenings(ctx context.Context, query string, arg any) ([]model.Screening, error) {
	rows, err := s.q().QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Screening
	for rows.Next() {
		sc, err := scanScreening(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sc)
	}
	return result, rows.Err()
}

// SeatsByScreening returns the screening's seat snapshot joined with
// the physical seat labels, ordered by (row, number).
func (s *Store) SeatsByScreening(ctx context.Context, screeningID uint64) ([]model.ScreeningSeat, error) {
	const q = `SELECT ss.id, ss.screening_id, ss.showroom_seat_id, rs.row_letter, rs.seat_number, ss.ticket_id
	           FROM screening_seats ss
	           JOIN showroom_seats rs ON rs.id = ss.showroom_seat_id
	           WHERE ss.screening_id = ?
	           ORDER BY rs.row_letter ASC, rs.seat_number ASC`
	rows, err := s.q().QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ScreeningSeat
	for rows.Next() {
		var seat model.ScreeningSeat
		var ticketID sql.NullInt64
		if err := rows.Scan(&seat.ID, &seat.ScreeningID, &seat.ShowroomSeatID,
			&seat.Row, &seat.Number, &ticketID); err != nil {
			return nil, err
		}
		if ticketID.Valid {
			tid := uint64(ticketID.Int64)
			seat.TicketID = &tid
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// ScreeningSeat loads one bookable seat together with its screening,
// which the booking engine needs for the showtime checks.  Returns
// ErrSeatNotFound when the seat does not exist.
func (s *Store) ScreeningSeat(ctx context.Context, id uint64) (*model.ScreeningSeat, *model.Screening, error) {
	const q = `SELECT ss.id, ss.screening_id, ss.showroom_seat_id, rs.row_letter, rs.seat_number, ss.ticket_id,
	                  sc.id, sc.movie_id, sc.showroom_id, sc.show_at, sc.end_at, sc.created_at
	           FROM screening_seats ss
	           JOIN showroom_seats rs ON rs.id = ss.showroom_seat_id
	           JOIN screenings sc ON sc.id = ss.screening_id
	           WHERE ss.id = ?`
	var seat model.ScreeningSeat
	var sc model.Screening
	var ticketID sql.NullInt64
	err := s.q().QueryRowContext(ctx, q, id).Scan(
		&seat.ID, &seat.ScreeningID, &seat.ShowroomSeatID, &seat.Row, &seat.Number, &ticketID,
		&sc.ID, &sc.MovieID, &sc.ShowroomID, &sc.ShowAt, &sc.EndAt, &sc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSeatNotFound
		}
		return nil, nil, err
	}
	if ticketID.Valid {
		tid := uint64(ticketID.Int64)
		seat.TicketID = &tid
	}
	return &seat, &sc, nil
}

// DeleteScreening removes a screening, its seat snapshot and any
// tickets sold for it, in one transaction.  Callers are responsible for
// refunds/notification before calling.  Returns ErrScreeningNotFound
// when the screening does not exist.
func (s *Store) DeleteScreening(ctx context.Context, id uint64) error {
	return s.withTx(ctx, func(tx *Store) error {
		var exists int
		err := tx.q().QueryRowContext(ctx, `SELECT 1 FROM screenings WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrScreeningNotFound
			}
			return err
		}
		steps := []string{
			`DELETE t FROM tickets t
			   JOIN screening_seats ss ON ss.id = t.screening_seat_id
			  WHERE ss.screening_id = ?`,
			`DELETE FROM screening_seats WHERE screening_id = ?`,
			`DELETE FROM screenings WHERE id = ?`,
		}
		for _, step := range steps {
			if _, err := tx.q().ExecContext(ctx, step, id); err != nil {
				return err
			}
		}
		return nil
	})
}
