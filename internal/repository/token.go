package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenInvalid is returned for refresh tokens that are unknown,
// revoked or past their expiry.
var ErrTokenInvalid = errors.New("refresh token invalid")

// StoreRefresh persists a refresh token hash for a user.
func (s *Store) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := s.q().ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, expiresAt.UTC())
	return err
}

// ValidateRefresh returns the owning user ID for a live refresh token
// hash, or ErrTokenInvalid when the token is unknown, revoked or
// expired.
func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := s.q().QueryRowContext(ctx,
		`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`,
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	if revokedAt.Valid || now.UTC().After(expiresAt) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// RevokeRefresh marks one refresh token revoked.  Revoking an unknown
// or already-revoked token is a no-op.
func (s *Store) RevokeRefresh(ctx context.Context, tokenHash string) error {
	_, err := s.q().ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`,
		tokenHash)
	return err
}

// RevokeAllRefresh revokes every live refresh token a user holds.
func (s *Store) RevokeAllRefresh(ctx context.Context, userID uint64) error {
	_, err := s.q().ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = ? AND revoked_at IS NULL`,
		userID)
	return err
}
