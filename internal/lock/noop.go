package lock

import (
	"context"
	"time"
)

// NoOpLocker grants every lock immediately. It suits single-goroutine tests
// and tools that already own the store exclusively.
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

func (*NoOpLocker) Acquire(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

func (n *NoOpLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, _ int, _ time.Duration) (bool, error) {
	return n.Acquire(ctx, key, ttl)
}

func (*NoOpLocker) Release(ctx context.Context, _ string) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

func (*NoOpLocker) Extend(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

// IsHeld is always false: nothing is tracked.
func (*NoOpLocker) IsHeld(ctx context.Context, _ string) (bool, error) {
	return false, ctx.Err()
}

var _ Locker = (*NoOpLocker)(nil)
