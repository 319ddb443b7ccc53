package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ecinema/ecinema/internal/model"
)

const ticketCols = `id, serial, customer_id, screening_seat_id, payment_card_id,
	ticket_type, status, price_cents, tokens_spent, created_at`

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	var t model.Ticket
	var cardID sql.NullInt64
	var typ, status string
	err := row.Scan(&t.ID, &t.Serial, &t.CustomerID, &t.ScreeningSeatID, &cardID,
		&typ, &status, &t.PriceCents, &t.TokensSpent, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if cardID.Valid {
		cid := uint64(cardID.Int64)
		t.PaymentCardID = &cid
	}
	t.Type = model.TicketType(typ)
	t.Status = model.TicketStatus(status)
	return &t, nil
}

// CreateTicket finalizes a booking in one transaction: spend the
// customer's tokens, insert the ticket and claim the seat.  The seat
// claim is a conditional update guarded by ticket_id IS NULL, so two
// concurrent bookings for the same seat cannot both succeed; the loser
// gets ErrDuplicate and the transaction rolls back, restoring the
// tokens.  The generated ticket ID is written back to t.
func (s *Store) CreateTicket(ctx context.Context, t *model.Ticket) error {
	return s.withTx(ctx, func(tx *Store) error {
		if t.TokensSpent > 0 {
			const spend = `UPDATE customers
			               SET tokens = GREATEST(CAST(tokens AS SIGNED) - ?, 0),
			                   updated_at = CURRENT_TIMESTAMP
			               WHERE id = ?`
			if _, err := tx.q().ExecContext(ctx, spend, t.TokensSpent, t.CustomerID); err != nil {
				return err
			}
		}
		const ins = `INSERT INTO tickets
		             (serial, customer_id, screening_seat_id, payment_card_id,
		              ticket_type, status, price_cents, tokens_spent)
		             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		var cardID any
		if t.PaymentCardID != nil {
			cardID = *t.PaymentCardID
		}
		res, err := tx.q().ExecContext(ctx, ins, t.Serial, t.CustomerID, t.ScreeningSeatID,
			cardID, string(t.Type), string(t.Status), t.PriceCents, t.TokensSpent)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
		const claim = `UPDATE screening_seats SET ticket_id = ? WHERE id = ? AND ticket_id IS NULL`
		claimed, err := tx.q().ExecContext(ctx, claim, t.ID, t.ScreeningSeatID)
		if err != nil {
			return err
		}
		if affected, _ := claimed.RowsAffected(); affected == 0 {
			return ErrDuplicate
		}
		return nil
	})
}

// TicketByID returns a ticket or ErrTicketNotFound.
func (s *Store) TicketByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, err := scanTicket(s.q().QueryRowContext(ctx,
		`SELECT `+ticketCols+` FROM tickets WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// TicketWithShowtime returns a ticket together with the screening start
// time of its seat, which the refund path compares against the clock.
func (s *Store) TicketWithShowtime(ctx context.Context, id uint64) (*model.Ticket, time.Time, error) {
	const q = `SELECT t.id, t.serial, t.customer_id, t.screening_seat_id, t.payment_card_id,
	                  t.ticket_type, t.status, t.price_cents, t.tokens_spent, t.created_at,
	                  sc.show_at
	           FROM tickets t
	           JOIN screening_seats ss ON ss.id = t.screening_seat_id
	           JOIN screenings sc ON sc.id = ss.screening_id
	           WHERE t.id = ?`
	var t model.Ticket
	var cardID sql.NullInt64
	var typ, status string
	var showAt time.Time
	err := s.q().QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Serial, &t.CustomerID, &t.ScreeningSeatID, &cardID,
		&typ, &status, &t.PriceCents, &t.TokensSpent, &t.CreatedAt, &showAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, ErrTicketNotFound
		}
		return nil, time.Time{}, err
	}
	if cardID.Valid {
		cid := uint64(cardID.Int64)
		t.PaymentCardID = &cid
	}
	t.Type = model.TicketType(typ)
	t.Status = model.TicketStatus(status)
	return &t, showAt, nil
}

// RefundTicket marks a VALID ticket REFUNDED, releases its seat and
// returns the spent tokens to the customer, in one transaction.  The
// status flip is conditional on the current status so a double refund
// is a no-op reported as ErrDuplicate.
func (s *Store) RefundTicket(ctx context.Context, t *model.Ticket) error {
	return s.withTx(ctx, func(tx *Store) error {
		const flip = `UPDATE tickets SET status = ? WHERE id = ? AND status = ?`
		res, err := tx.q().ExecContext(ctx, flip,
			string(model.TicketRefunded), t.ID, string(model.TicketValid))
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrDuplicate
		}
		const release = `UPDATE screening_seats SET ticket_id = NULL WHERE ticket_id = ?`
		if _, err := tx.q().ExecContext(ctx, release, t.ID); err != nil {
			return err
		}
		if t.TokensSpent > 0 {
			const refund = `UPDATE customers SET tokens = tokens + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
			if _, err := tx.q().ExecContext(ctx, refund, t.TokensSpent, t.CustomerID); err != nil {
				return err
			}
		}
		return nil
	})
}

// TicketsByCustomer lists a customer's tickets, newest first.
func (s *Store) TicketsByCustomer(ctx context.Context, customerID uint64) ([]model.Ticket, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT `+ticketCols+` FROM tickets WHERE customer_id = ? ORDER BY created_at DESC, id DESC`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}
