package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/cache"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	defer c.Stop()

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	value := []byte("summary")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'S'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "summary", string(got))

	got[0] = 'X'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "summary", string(again))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	defer c.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Minute)

	_, err := c.Get(ctx, "short")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = c.Get(ctx, "forever")
	require.NoError(t, err)

	c.cleanup()
	require.Equal(t, 1, c.Len())
}

func TestCache_StopTwice(t *testing.T) {
	c := NewCache()
	c.Stop()
	c.Stop()
}
