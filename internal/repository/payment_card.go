package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ecinema/ecinema/internal/model"
)

const cardCols = `id, customer_id, last_four, billing_address, city, state, zipcode,
	exp_month, exp_year, created_at`

func scanCard(row interface{ Scan(...any) error }) (*model.PaymentCard, error) {
	var c model.PaymentCard
	err := row.Scan(&c.ID, &c.CustomerID, &c.LastFour, &c.Billing, &c.City, &c.State,
		&c.Zip, &c.ExpMonth, &c.ExpYear, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCard stores a payment card.  The generated ID is written back
// to card.  The per-customer card limit is enforced at the service
// layer; the repository just persists.
func (s *Store) CreateCard(ctx context.Context, card *model.PaymentCard) error {
	const q = `INSERT INTO payment_cards
	           (customer_id, last_four, billing_address, city, state, zipcode, exp_month, exp_year)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.q().ExecContext(ctx, q, card.CustomerID, card.LastFour, card.Billing,
		card.City, card.State, card.Zip, card.ExpMonth, card.ExpYear)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	card.ID = uint64(id)
	return nil
}

// CardByID returns a card or ErrCardNotFound.
func (s *Store) CardByID(ctx context.Context, id uint64) (*model.PaymentCard, error) {
	c, err := scanCard(s.q().QueryRowContext(ctx,
		`SELECT `+cardCols+` FROM payment_cards WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return c, nil
}

// CardsByCustomer lists a customer's cards, oldest first.
func (s *Store) CardsByCustomer(ctx context.Context, customerID uint64) ([]model.PaymentCard, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT `+cardCols+` FROM payment_cards WHERE customer_id = ? ORDER BY id ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.PaymentCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// CountCards returns the number of cards a customer has on file.
func (s *Store) CountCards(ctx context.Context, customerID uint64) (int, error) {
	var n int
	err := s.q().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_cards WHERE customer_id = ?`, customerID).Scan(&n)
	return n, err
}

// DeleteCard removes a customer's card.  The owner check lives in the
// WHERE clause so a customer cannot delete another customer's card.
// Returns ErrCardNotFound when nothing matched.
func (s *Store) DeleteCard(ctx context.Context, id, customerID uint64) error {
	res, err := s.q().ExecContext(ctx,
		`DELETE FROM payment_cards WHERE id = ? AND customer_id = ?`, id, customerID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCardNotFound
	}
	return nil
}
