// Package lock serializes ledger mutations.
// A single server uses the in-memory locker; replicas sharing one bucket
// store coordinate through Redis.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired indicates the lock stayed busy for every attempt.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out expiring, exclusive locks by key.
type Locker interface {
	// Acquire takes the lock if it is free. It returns false, not an error,
	// when someone else holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// AcquireWithRetry makes up to maxRetries+1 attempts, retryDelay apart.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error)

	// Release gives up a lock taken through this locker.
	Release(ctx context.Context, key string) (bool, error)

	// Extend pushes out the expiry of a lock taken through this locker.
	Extend(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsHeld reports whether anyone currently holds the lock.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// Policy bounds how long a caller waits for a lock and how long it may keep it.
type Policy struct {
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Hold acquires key under p. On success the returned func releases it;
// when the lock stays busy the error is ErrNotAcquired.
func Hold(ctx context.Context, l Locker, key string, p Policy) (func(context.Context) error, error) {
	acquired, err := l.AcquireWithRetry(ctx, key, p.TTL, p.Retries, p.RetryDelay)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrNotAcquired
	}

	return func(ctx context.Context) error {
		_, err := l.Release(ctx, key)
		return err
	}, nil
}

// retry calls try until it succeeds, fails, or runs out of attempts.
func retry(ctx context.Context, maxRetries int, delay time.Duration, try func() (bool, error)) (bool, error) {
	for i := 0; ; i++ {
		ok, err := try()
		if err != nil || ok {
			return ok, err
		}
		if i >= maxRetries {
			return false, nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// =============================================================================
// Lock Keys
// =============================================================================

// Keys provides lock key generation.
var Keys = lockKeys{}

type lockKeys struct{}

// Ledger returns the lock key serializing ledger mutations.
// A non-empty namespace scopes the lock to that ledger.
func (lockKeys) Ledger(namespace string) string {
	if namespace == "" {
		return "lock:ledger"
	}
	return "lock:ledger:" + namespace
}
