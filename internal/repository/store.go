// Package repository contains the persistence layer.  A single Store
// wraps the *sql.DB handle; methods are grouped into one file per
// entity and use plain SQL.  Operations touching multiple tables run
// inside a transaction owned by the store method, so the service layer
// never sees partially applied writes.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Store provides access to all eCinema tables.  The zero value is not
// usable; construct with NewStore.  When tx is non-nil the store is a
// transaction-scoped view created by withTx and every query runs on
// that transaction.
type Store struct {
	db *sql.DB
	tx *sql.Tx
}

// NewStore returns a Store bound to the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is the subset of sql.DB/sql.Tx the entity files use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the active querier: the transaction when inside withTx,
// otherwise the pooled handle.
func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// withTx runs fn against a transaction-scoped Store and commits when fn
// returns nil.  Nested calls reuse the outer transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Store{db: s.db, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).  Lost check-then-write races end up here and are
// translated to the duplicate sentinel rather than surfaced raw.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
