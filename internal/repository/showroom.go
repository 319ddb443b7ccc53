package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ecinema/ecinema/internal/model"
)

// CreateShowroom inserts a showroom together with its full seat grid in
// one transaction.  The generated showroom ID is written back to room.
// A duplicate room letter returns ErrDuplicate; the letter's UNIQUE
// constraint also catches races that slip past the caller's check.
func (s *Store) CreateShowroom(ctx context.Context, room *model.Showroom, seats []model.ShowroomSeat) error {
	return s.withTx(ctx, func(tx *Store) error {
		const q = `INSERT INTO showrooms (letter, row_count, seats_per_row) VALUES (?, ?, ?)`
		res, err := tx.q().ExecContext(ctx, q, string(room.Letter), room.Rows, room.SeatsPerRow)
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
		room.ID = uint64(id)
		if len(seats) == 0 {
			return nil
		}
		// Bulk insert the grid in a single statement.
		query := `INSERT INTO showroom_seats (showroom_id, row_letter, seat_number) VALUES `
		args := make([]any, 0, len(seats)*3)
		for i, seat := range seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, room.ID, seat.Row, seat.Number)
		}
		_, err = tx.q().ExecContext(ctx, query, args...)
		return err
	})
}

// ShowroomByID returns a showroom or ErrShowroomNotFound.
func (s *Store) ShowroomByID(ctx context.Context, id uint64) (*model.Showroom, error) {
	const q = `SELECT id, letter, row_count, seats_per_row, created_at, updated_at
	           FROM showrooms WHERE id = ?`
	var room model.Showroom
	var letter string
	err := s.q().QueryRowContext(ctx, q, id).Scan(
		&room.ID, &letter, &room.Rows, &room.SeatsPerRow, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowroomNotFound
		}
		return nil, err
	}
	room.Letter = model.RoomLetter(letter)
	return &room, nil
}

// ListShowrooms returns every showroom ordered by letter.
func (s *Store) ListShowrooms(ctx context.Context) ([]model.Showroom, error) {
	const q = `SELECT id, letter, row_count, seats_per_row, created_at, updated_at
	           FROM showrooms ORDER BY letter ASC`
	rows, err := s.q().QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Showroom
	for rows.Next() {
		var room model.Showroom
		var letter string
		if err := rows.Scan(&room.ID, &letter, &room.Rows, &room.SeatsPerRow,
			&room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		room.Letter = model.RoomLetter(letter)
		result = append(result, room)
	}
	return result, rows.Err()
}

// SeatsByShowroom returns the physical seat grid ordered by (row,
// number).
func (s *Store) SeatsByShowroom(ctx context.Context, showroomID uint64) ([]model.ShowroomSeat, error) {
	const q = `SELECT id, showroom_id, row_letter, seat_number
	           FROM showroom_seats WHERE showroom_id = ?
	           ORDER BY row_letter ASC, seat_number ASC`
	rows, err := s.q().QueryContext(ctx, q, showroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ShowroomSeat
	for rows.Next() {
		var seat model.ShowroomSeat
		if err := rows.Scan(&seat.ID, &seat.ShowroomID, &seat.Row, &seat.Number); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// DeleteShowroom removes a showroom and everything hanging off it:
// tickets on its screening seats, the screening seats, the screenings,
// the physical seats and finally the room itself.  The fan-out is
// explicit and runs in one transaction so a half-deleted room is never
// observable.  Returns ErrShowroomNotFound when the room does not
// exist.
func (s *Store) DeleteShowroom(ctx context.Context, id uint64) error {
	return s.withTx(ctx, func(tx *Store) error {
		var exists int
		err := tx.q().QueryRowContext(ctx, `SELECT 1 FROM showrooms WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowroomNotFound
			}
			return err
		}
		steps := []string{
			`DELETE t FROM tickets t
			   JOIN screening_seats ss ON ss.id = t.screening_seat_id
			   JOIN screenings sc ON sc.id = ss.screening_id
			  WHERE sc.showroom_id = ?`,
			`DELETE ss FROM screening_seats ss
			   JOIN screenings sc ON sc.id = ss.screening_id
			  WHERE sc.showroom_id = ?`,
			`DELETE FROM screenings WHERE showroom_id = ?`,
			`DELETE FROM showroom_seats WHERE showroom_id = ?`,
			`DELETE FROM showrooms WHERE id = ?`,
		}
		for _, step := range steps {
			if _, err := tx.q().ExecContext(ctx, step, id); err != nil {
				return err
			}
		}
		return nil
	})
}
