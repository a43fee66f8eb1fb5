// Package postgres implements the record store on PostgreSQL via pgx. The
// WithinTx contract maps to a single database transaction so replay and the
// mutation operations are all-or-nothing.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auditrail/backend/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting the same
// repository code run autocommit or transaction-scoped.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an established pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{q: s.pool}
}

func (s *Store) ActivityLogs() repository.ActivityLogRepository {
	return &logRepository{q: s.pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type txStore struct {
	tx pgx.Tx
}

func (s *txStore) Users() repository.UserRepository {
	return &userRepository{q: s.tx}
}

func (s *txStore) ActivityLogs() repository.ActivityLogRepository {
	return &logRepository{q: s.tx}
}

// WithinTx on an already transactional store reuses the open transaction.
func (s *txStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return fn(ctx, s)
}

func (s *txStore) Ping(ctx context.Context) error {
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
