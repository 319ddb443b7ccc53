package model

import "time"

// Role is an authority a user may hold.  Roles are stored as rows in
// user_roles keyed by (user_id, role), not as per-role subclasses; the
// only role carrying extra state is CUSTOMER (see Customer).
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleCustomer  Role = "CUSTOMER"
)

// Valid reports whether the role is one of the known authorities.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleCustomer:
		return true
	}
	return false
}

// User is an application account.  Authorization decisions look only at
// the user's id and role set; everything else about the login protocol
// lives in the auth plumbing.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash (bcrypt)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken is a stored login session token.  Only the SHA-256 hash
// of the raw token is persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Customer is the CUSTOMER authority attached to a user.  It carries
// the loyalty token balance and, when a moderator has censored the
// customer, the censoring moderator's user id.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owning user (unique; one customer record per user).
//  Tokens     – non-negative loyalty token balance.
//  CensoredBy – user id of the censoring moderator, nil when not censored.
type Customer struct {
	ID         uint64    // customers.id
	UserID     uint64    // customers.user_id
	Tokens     uint32    // customers.tokens
	CensoredBy *uint64   // customers.censored_by (nullable)
	CreatedAt  time.Time // customers.created_at
	UpdatedAt  time.Time // customers.updated_at
}

// Censored reports whether a moderator has censored this customer.
func (c Customer) Censored() bool {
	return c.CensoredBy != nil
}

// AddTokens credits loyalty tokens.  The balance only ever moves by
// explicit add/subtract operations.
func (c *Customer) AddTokens(n uint32) {
	c.Tokens += n
}

// SubtractTokens debits up to n tokens, clamping the balance at zero.
// It returns the number of tokens actually removed.
func (c *Customer) SubtractTokens(n uint32) uint32 {
	if n > c.Tokens {
		n = c.Tokens
	}
	c.Tokens -= n
	return n
}
