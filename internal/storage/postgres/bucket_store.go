package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/eday-ledger/internal/storage"
)

// bucketStore implements storage.Store for PostgreSQL.
// Every write is a conditional statement on the expected version, so a
// concurrent writer makes the statement affect no rows.
type bucketStore struct {
	db *DB
}

// NewBucketStore creates a new PostgreSQL bucket store.
func NewBucketStore(db *DB) storage.Store {
	return &bucketStore{db: db}
}

// Load returns the current content of a bucket.
func (s *bucketStore) Load(ctx context.Context, key string) (storage.Entry, error) {
	var entry storage.Entry
	err := s.db.Pool.QueryRow(ctx, `SELECT data, version FROM buckets WHERE key = $1`, key).
		Scan(&entry.Data, &entry.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Entry{}, storage.ErrBucketNotFound
		}
		return storage.Entry{}, fmt.Errorf("failed to load bucket %s: %w", key, err)
	}
	return entry, nil
}

// Commit applies all writes in one transaction.
func (s *bucketStore) Commit(ctx context.Context, writes ...storage.Write) error {
	return s.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, w := range writes {
			ok, err := apply(ctx, tx, w)
			if err != nil {
				return fmt.Errorf("failed to write bucket %s: %w", w.Key, err)
			}
			if !ok {
				return storage.ErrStaleWrite
			}
		}
		return nil
	})
}

// apply runs one conditional write and reports whether the version matched.
func apply(ctx context.Context, q Querier, w storage.Write) (bool, error) {
	data := w.Data
	if data == nil {
		data = []byte{}
	}

	switch {
	case w.Delete && w.ExpectedVersion == 0:
		var exists bool
		err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM buckets WHERE key = $1)`, w.Key).Scan(&exists)
		return !exists, err

	case w.Delete:
		tag, err := q.Exec(ctx, `DELETE FROM buckets WHERE key = $1 AND version = $2`, w.Key, w.ExpectedVersion)
		return tag.RowsAffected() == 1, err

	case w.ExpectedVersion == 0:
		tag, err := q.Exec(ctx, `
			INSERT INTO buckets (key, data, version, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (key) DO NOTHING
		`, w.Key, data)
		return tag.RowsAffected() == 1, err

	default:
		tag, err := q.Exec(ctx, `
			UPDATE buckets
			SET data = $2, version = version + 1, updated_at = NOW()
			WHERE key = $1 AND version = $3
		`, w.Key, data, w.ExpectedVersion)
		return tag.RowsAffected() == 1, err
	}
}

// Ping checks the database connection.
func (s *bucketStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the connection pool.
func (s *bucketStore) Close() error {
	return s.db.Close()
}

// Ensure bucketStore implements storage.Store.
var _ storage.Store = (*bucketStore)(nil)
