// Package storage defines the bucket store used to persist the ledger.
// The ledger is kept as a handful of named buckets, each one a JSON blob
// that is read and rewritten as a whole.
package storage

import (
	"context"
	"errors"
)

// Storage errors
var (
	// ErrBucketNotFound indicates the bucket has never been written or was deleted.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrStaleWrite indicates a write expected a version that is no longer current.
	ErrStaleWrite = errors.New("stale write")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store closed")
)

// Entry is the stored content of a bucket.
type Entry struct {
	// Data is the raw bucket blob.
	Data []byte

	// Version increases by one on every successful write of the bucket.
	// An absent bucket has version 0.
	Version int64
}

// Write describes one bucket mutation inside a Commit.
type Write struct {
	// Key is the bucket key.
	Key string

	// Data replaces the bucket content. Ignored when Delete is set.
	Data []byte

	// Delete removes the bucket.
	Delete bool

	// ExpectedVersion must equal the current version of the bucket
	// (0 for absent) or the whole commit fails with ErrStaleWrite.
	ExpectedVersion int64
}

// Store defines the interface for bucket storage backends.
// Implementations include in-memory, SQLite, PostgreSQL and Redis.
type Store interface {
	// Load returns the current content of a bucket.
	// Returns ErrBucketNotFound if the bucket is absent.
	Load(ctx context.Context, key string) (Entry, error)

	// Commit applies all writes atomically: either every write succeeds
	// or none is applied. A version mismatch on any write fails the
	// commit with ErrStaleWrite.
	Commit(ctx context.Context, writes ...Write) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// LoadOrEmpty returns the bucket entry, or an empty entry with version 0
// when the bucket is absent.
func LoadOrEmpty(ctx context.Context, s Store, key string) (Entry, bool, error) {
	entry, err := s.Load(ctx, key)
	if errors.Is(err, ErrBucketNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}
