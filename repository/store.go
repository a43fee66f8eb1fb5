package repository

import "context"

// Store is the transactional record store holding both record kinds. The
// repositories returned outside WithinTx autocommit per call; inside WithinTx
// they share one transaction with read-your-writes visibility.
type Store interface {
	Users() UserRepository
	ActivityLogs() ActivityLogRepository

	// WithinTx runs fn against a transaction-scoped store. The transaction
	// commits when fn returns nil and rolls back otherwise; none of fn's
	// writes are visible to other callers until commit.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Ping reports store reachability for health checks.
	Ping(ctx context.Context) error
}
