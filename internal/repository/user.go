package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ecinema/ecinema/internal/model"
)

const userCols = `id, email, password_hash, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser registers an account in one transaction: the user row, the
// CUSTOMER authority grant and the customer record carrying the loyalty
// balance.  A duplicate email returns ErrDuplicate.  The generated user
// ID is written back to u.
func (s *Store) CreateUser(ctx context.Context, u *model.User) (*model.Customer, error) {
	var customer model.Customer
	err := s.withTx(ctx, func(tx *Store) error {
		const ins = `INSERT INTO users (email, password_hash, is_active) VALUES (?, ?, TRUE)`
		res, err := tx.q().ExecContext(ctx, ins, u.Email, u.PasswordHash)
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
		u.ID = uint64(id)
		const grant = `INSERT INTO user_roles (user_id, role) VALUES (?, ?)`
		if _, err := tx.q().ExecContext(ctx, grant, u.ID, string(model.RoleCustomer)); err != nil {
			return err
		}
		const cust = `INSERT INTO customers (user_id, tokens) VALUES (?, 0)`
		cres, err := tx.q().ExecContext(ctx, cust, u.ID)
		if err != nil {
			return err
		}
		cid, err := cres.LastInsertId()
		if err != nil {
			return err
		}
		customer.ID = uint64(cid)
		customer.UserID = u.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// UserByEmail returns a user account or ErrUserNotFound.
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.q().QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UserByID returns a user account or ErrUserNotFound.
func (s *Store) UserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(s.q().QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// RolesByUser returns the set of authorities a user holds.
func (s *Store) RolesByUser(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := s.q().QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []model.Role
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, model.Role(r))
	}
	return roles, rows.Err()
}

// GrantRole gives a user an authority.  Granting a role the user
// already holds is a no-op.  Granting CUSTOMER also creates the
// customer record when missing, since that role carries state.
func (s *Store) GrantRole(ctx context.Context, userID uint64, role model.Role) error {
	return s.withTx(ctx, func(tx *Store) error {
		var exists int
		err := tx.q().QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		const grant = `INSERT INTO user_roles (user_id, role) VALUES (?, ?)
		               ON DUPLICATE KEY UPDATE role = role`
		if _, err := tx.q().ExecContext(ctx, grant, userID, string(role)); err != nil {
			return err
		}
		if role == model.RoleCustomer {
			const cust = `INSERT INTO customers (user_id, tokens) VALUES (?, 0)
			              ON DUPLICATE KEY UPDATE user_id = user_id`
			if _, err := tx.q().ExecContext(ctx, cust, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RevokeRole removes an authority from a user.  Revoking a role the
// user does not hold is a no-op.  The customer record survives a
// CUSTOMER revoke; the balance is history, not authority.
func (s *Store) RevokeRole(ctx context.Context, userID uint64, role model.Role) error {
	_, err := s.q().ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = ? AND role = ?`, userID, string(role))
	return err
}
