package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/eday-ledger/internal/storage"
)

// bucketStore implements storage.Store for SQLite.
type bucketStore struct {
	db *DB
}

// NewBucketStore creates a new SQLite bucket store.
// The schema must already be migrated.
func NewBucketStore(db *DB) storage.Store {
	return &bucketStore{db: db}
}

// Load returns the current content of a bucket.
func (s *bucketStore) Load(ctx context.Context, key string) (storage.Entry, error) {
	var entry storage.Entry
	err := s.db.QueryRowContext(ctx, `SELECT data, version FROM buckets WHERE key = ?`, key).
		Scan(&entry.Data, &entry.Version)
	if err != nil {
		if isNoRows(err) {
			return storage.Entry{}, storage.ErrBucketNotFound
		}
		return storage.Entry{}, fmt.Errorf("failed to load bucket %s: %w", key, err)
	}
	return entry, nil
}

// Commit applies all writes in one transaction.
func (s *bucketStore) Commit(ctx context.Context, writes ...storage.Write) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, w := range writes {
			current, err := versionOf(ctx, tx, w.Key)
			if err != nil {
				return err
			}
			if current != w.ExpectedVersion {
				return storage.ErrStaleWrite
			}

			if w.Delete {
				if _, err := tx.ExecContext(ctx, `DELETE FROM buckets WHERE key = ?`, w.Key); err != nil {
					return fmt.Errorf("failed to delete bucket %s: %w", w.Key, err)
				}
				continue
			}

			data := w.Data
			if data == nil {
				data = []byte{}
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO buckets (key, data, version, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (key) DO UPDATE
				SET data = excluded.data, version = excluded.version, updated_at = excluded.updated_at
			`, w.Key, data, w.ExpectedVersion+1, now)
			if err != nil {
				return fmt.Errorf("failed to write bucket %s: %w", w.Key, err)
			}
		}
		return nil
	})
}

// versionOf returns the stored version of a bucket inside tx, 0 when absent.
func versionOf(ctx context.Context, tx *sql.Tx, key string) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM buckets WHERE key = ?`, key).Scan(&version)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read version of bucket %s: %w", key, err)
	}
	return version, nil
}

// Ping checks the database connection.
func (s *bucketStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *bucketStore) Close() error {
	return s.db.Close()
}

// Ensure bucketStore implements storage.Store.
var _ storage.Store = (*bucketStore)(nil)
