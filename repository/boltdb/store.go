// Package boltdb implements the record store on an embedded bbolt file. Every
// WithinTx call maps to a single bolt write transaction, which gives the
// replay engine its atomicity and read-your-writes semantics for free.
package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/auditrail/backend/repository"
)

var (
	bucketUsers  = []byte("users")
	bucketLogs   = []byte("activity_logs")
	bucketLogIDs = []byte("activity_log_ids")
)

// Store is a bbolt-backed repository.Store.
type Store struct {
	db *bolt.DB
}

// Open initializes the bolt file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		return createBuckets(tx)
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createBuckets(tx *bolt.Tx) error {
	for _, name := range [][]byte{bucketUsers, bucketLogs, bucketLogIDs} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying bolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{run: dbRunner{s.db}}
}

func (s *Store) ActivityLogs() repository.ActivityLogRepository {
	return &logRepository{run: dbRunner{s.db}}
}

// WithinTx runs fn inside one bolt write transaction. fn's error aborts the
// transaction and every write made through the tx-scoped store is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, &txStore{tx: tx})
	})
}

// Ping verifies the bolt file is still readable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return nil
	})
}

// txStore is the transaction-scoped view handed to WithinTx callbacks.
type txStore struct {
	tx *bolt.Tx
}

func (s *txStore) Users() repository.UserRepository {
	return &userRepository{run: txRunner{s.tx}}
}

func (s *txStore) ActivityLogs() repository.ActivityLogRepository {
	return &logRepository{run: txRunner{s.tx}}
}

// WithinTx on an already transactional store reuses the open transaction.
func (s *txStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return fn(ctx, s)
}

func (s *txStore) Ping(ctx context.Context) error {
	return nil
}

// runner abstracts "give me a bolt transaction": the root store opens one per
// call, the tx-scoped store reuses the one it holds.
type runner interface {
	view(fn func(tx *bolt.Tx) error) error
	update(fn func(tx *bolt.Tx) error) error
}

type dbRunner struct {
	db *bolt.DB
}

func (r dbRunner) view(fn func(tx *bolt.Tx) error) error   { return r.db.View(fn) }
func (r dbRunner) update(fn func(tx *bolt.Tx) error) error { return r.db.Update(fn) }

type txRunner struct {
	tx *bolt.Tx
}

func (r txRunner) view(fn func(tx *bolt.Tx) error) error   { return fn(r.tx) }
func (r txRunner) update(fn func(tx *bolt.Tx) error) error { return fn(r.tx) }
