package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker implements Locker inside one process.
// Locks are not shared with other instances or across restarts.
type MemoryLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryLocker creates a locker and starts sweeping expired entries.
func NewMemoryLocker() *MemoryLocker {
	m := &MemoryLocker{
		expires: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go m.sweepLoop(30 * time.Second)
	return m
}

// Close stops the sweeper. Locks keep working afterwards.
func (m *MemoryLocker) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *MemoryLocker) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *MemoryLocker) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, at := range m.expires {
		if !now.Before(at) {
			delete(m.expires, key)
		}
	}
}

// liveLocked reports whether key is held, dropping it if it expired.
func (m *MemoryLocker) liveLocked(key string) bool {
	at, ok := m.expires[key]
	if !ok {
		return false
	}
	if !m.now().Before(at) {
		delete(m.expires, key)
		return false
	}
	return true
}

// Acquire takes the lock if it is free or expired.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.liveLocked(key) {
		return false, nil
	}
	m.expires[key] = m.now().Add(ttl)
	return true, nil
}

// AcquireWithRetry retries Acquire while the lock is busy.
func (m *MemoryLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return retry(ctx, maxRetries, retryDelay, func() (bool, error) {
		return m.Acquire(ctx, key, ttl)
	})
}

// Release drops the lock.
func (m *MemoryLocker) Release(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	held := m.liveLocked(key)
	delete(m.expires, key)
	return held, nil
}

// Extend resets the expiry of a live lock.
func (m *MemoryLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.liveLocked(key) {
		return false, nil
	}
	m.expires[key] = m.now().Add(ttl)
	return true, nil
}

// IsHeld reports whether the lock is live.
func (m *MemoryLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.liveLocked(key), nil
}

// newToken identifies one acquisition of a distributed lock.
func newToken() string {
	return uuid.NewString()
}

// Ensure MemoryLocker implements Locker.
var _ Locker = (*MemoryLocker)(nil)
