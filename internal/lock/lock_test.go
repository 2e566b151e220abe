package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLocker()

	ok, err := m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "second acquire must fail while held")

	held, err := m.IsHeld(ctx, "k")
	require.NoError(t, err)
	require.True(t, held)

	released, err := m.Release(ctx, "k")
	require.NoError(t, err)
	require.True(t, released)

	ok, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLocker()
	defer m.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ok, err := m.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Second)

	held, err := m.IsHeld(ctx, "k")
	require.NoError(t, err)
	require.False(t, held)

	extended, err := m.Extend(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, extended, "an expired lock cannot be extended")

	ok, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lock should be taken over")
}

func TestMemoryLocker_Sweep(t *testing.T) {
	m := NewMemoryLocker()
	defer m.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Acquire(context.Background(), "a", time.Second)
	require.NoError(t, err)
	_, err = m.Acquire(context.Background(), "b", time.Hour)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	m.sweep()

	require.Len(t, m.expires, 1)
	require.Contains(t, m.expires, "b")
}

func TestMemoryLocker_AcquireWithRetry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLocker()

	_, err := m.Acquire(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)

	ok, err := m.AcquireWithRetry(ctx, "k", time.Minute, 0, time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.AcquireWithRetry(ctx, "k", time.Minute, 50, 5*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryLocker().Acquire(ctx, "k", time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHold(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLocker()
	defer m.Close()
	p := Policy{TTL: time.Minute, Retries: 1, RetryDelay: time.Millisecond}

	release, err := Hold(ctx, m, Keys.Ledger(""), p)
	require.NoError(t, err)

	_, err = Hold(ctx, m, Keys.Ledger(""), p)
	require.ErrorIs(t, err, ErrNotAcquired)

	// Other namespaces are independent.
	other, err := Hold(ctx, m, Keys.Ledger("poll-b"), p)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))

	release, err = Hold(ctx, m, Keys.Ledger(""), p)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRetry_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	attempts := 0
	ok, err := retry(ctx, 1000, 5*time.Millisecond, func() (bool, error) {
		attempts++
		return false, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, ok)
	require.Less(t, attempts, 1000)
}

func TestKeys_Ledger(t *testing.T) {
	require.Equal(t, "lock:ledger", Keys.Ledger(""))
	require.Equal(t, "lock:ledger:poll-a", Keys.Ledger("poll-a"))
}

func TestNoOpLocker(t *testing.T) {
	n := NewNoOpLocker()

	ok, err := n.AcquireWithRetry(context.Background(), "k", time.Second, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = n.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok, "no-op locks never conflict")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = n.Acquire(ctx, "k", time.Second)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ok)
}

// Skipped unless EDAY_TEST_REDIS_ADDR points at a disposable server.
func TestRedisLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}
	addr := os.Getenv("EDAY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EDAY_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer client.Close()
	require.NoError(t, client.Del(ctx, "lock:test").Err())

	a := NewRedisLocker(client)
	b := NewRedisLocker(client)

	ok, err := a.Acquire(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Acquire(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// b never owned it, so it cannot release it.
	released, err := b.Release(ctx, "lock:test")
	require.NoError(t, err)
	require.False(t, released)

	extended, err := a.Extend(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.True(t, extended)

	released, err = a.Release(ctx, "lock:test")
	require.NoError(t, err)
	require.True(t, released)

	held, err := b.IsHeld(ctx, "lock:test")
	require.NoError(t, err)
	require.False(t, held)
}
