// Package memory provides an in-memory bucket store.
// This is suitable for single-node deployments and tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/prn-tf/eday-ledger/internal/storage"
)

// Store implements storage.Store using in-memory maps.
// This is NOT suitable for distributed deployments.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	closed  bool
}

// bucket represents a single stored bucket.
type bucket struct {
	data    []byte
	version int64
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		buckets: make(map[string]*bucket),
	}
}

// Load returns the current content of a bucket.
func (s *Store) Load(ctx context.Context, key string) (storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return storage.Entry{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.buckets[key]
	if !exists {
		return storage.Entry{}, storage.ErrBucketNotFound
	}

	// Return a copy to prevent mutation.
	return storage.Entry{Data: copyBytes(b.data), Version: b.version}, nil
}

// Commit applies all writes atomically.
func (s *Store) Commit(ctx context.Context, writes ...storage.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every version before touching anything.
	for _, w := range writes {
		if s.versionOf(w.Key) != w.ExpectedVersion {
			return storage.ErrStaleWrite
		}
	}

	for _, w := range writes {
		if w.Delete {
			delete(s.buckets, w.Key)
			continue
		}
		s.buckets[w.Key] = &bucket{
			data:    copyBytes(w.Data),
			version: w.ExpectedVersion + 1,
		}
	}

	return nil
}

// versionOf returns the version of a bucket, 0 when absent.
func (s *Store) versionOf(key string) int64 {
	if b, exists := s.buckets[key]; exists {
		return b.version
	}
	return 0
}

// Ping always succeeds unless the store is closed.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	return ctx.Err()
}

// Close drops every bucket.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string]*bucket)
	s.closed = true
	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// Ensure Store implements storage.Store.
var _ storage.Store = (*Store)(nil)
