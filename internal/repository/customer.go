package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ecinema/ecinema/internal/model"
)

const customerCols = `id, user_id, tokens, censored_by, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	var censoredBy sql.NullInt64
	err := row.Scan(&c.ID, &c.UserID, &c.Tokens, &censoredBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if censoredBy.Valid {
		uid := uint64(censoredBy.Int64)
		c.CensoredBy = &uid
	}
	return &c, nil
}

// CustomerByUserID resolves the CUSTOMER authority for a user, or
// ErrCustomerNotFound when the user holds no such authority.
func (s *Store) CustomerByUserID(ctx context.Context, userID uint64) (*model.Customer, error) {
	c, err := scanCustomer(s.q().QueryRowContext(ctx,
		`SELECT `+customerCols+` FROM customers WHERE user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// CustomerByID returns a customer record or ErrCustomerNotFound.
func (s *Store) CustomerByID(ctx context.Context, id uint64) (*model.Customer, error) {
	c, err := scanCustomer(s.q().QueryRowContext(ctx,
		`SELECT `+customerCols+` FROM customers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// AddTokens credits loyalty tokens to a customer's balance.  Returns
// ErrCustomerNotFound when the customer does not exist.
func (s *Store) AddTokens(ctx context.Context, customerID uint64, n uint32) error {
	const q = `UPDATE customers SET tokens = tokens + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := s.q().ExecContext(ctx, q, n, customerID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// RowsAffected is also 0 when n is 0 and the row exists; only
		// report not-found when the row truly is missing.
		var exists int
		if err := s.q().QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, customerID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return err
		}
	}
	return nil
}

// SetCustomerCensored records (or clears) the moderator censoring a
// customer.  Pass nil to lift the censorship.
func (s *Store) SetCustomerCensored(ctx context.Context, customerID uint64, moderatorUserID *uint64) error {
	const q = `UPDATE customers SET censored_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	var arg any
	if moderatorUserID != nil {
		arg = *moderatorUserID
	}
	res, err := s.q().ExecContext(ctx, q, arg, customerID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var exists int
		if err := s.q().QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, customerID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return err
		}
	}
	return nil
}
