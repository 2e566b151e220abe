// Package storagetest provides a conformance suite for storage.Store backends.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/storage"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.Store

// Run exercises the storage.Store contract against a backend.
func Run(t *testing.T, newStore Factory) {
	t.Run("load absent bucket", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(context.Background(), "missing")
		require.ErrorIs(t, err, storage.ErrBucketNotFound)

		entry, found, err := storage.LoadOrEmpty(context.Background(), s, "missing")
		require.NoError(t, err)
		require.False(t, found)
		require.Zero(t, entry.Version)
	})

	t.Run("write then load", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Commit(ctx, storage.Write{Key: "a", Data: []byte(`[1]`)}))

		entry, err := s.Load(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte(`[1]`), entry.Data)
		require.Equal(t, int64(1), entry.Version)

		require.NoError(t, s.Commit(ctx, storage.Write{Key: "a", Data: []byte(`[1,2]`), ExpectedVersion: 1}))

		entry, err = s.Load(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte(`[1,2]`), entry.Data)
		require.Equal(t, int64(2), entry.Version)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Commit(ctx, storage.Write{Key: "a", Data: []byte(`"v1"`)}))

		// Writing as if the bucket were absent must fail.
		err := s.Commit(ctx, storage.Write{Key: "a", Data: []byte(`"lost"`)})
		require.ErrorIs(t, err, storage.ErrStaleWrite)

		entry, err := s.Load(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte(`"v1"`), entry.Data)
	})

	t.Run("commit is all or nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Commit(ctx,
			storage.Write{Key: "a", Data: []byte(`"a1"`)},
			storage.Write{Key: "b", Data: []byte(`"b1"`)},
		))

		err := s.Commit(ctx,
			storage.Write{Key: "a", Data: []byte(`"a2"`), ExpectedVersion: 1},
			storage.Write{Key: "b", Data: []byte(`"b2"`), ExpectedVersion: 7},
		)
		require.ErrorIs(t, err, storage.ErrStaleWrite)

		a, err := s.Load(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte(`"a1"`), a.Data)
		require.Equal(t, int64(1), a.Version)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Commit(ctx, storage.Write{Key: "a", Data: []byte(`{}`)}))
		require.NoError(t, s.Commit(ctx, storage.Write{Key: "a", Delete: true, ExpectedVersion: 1}))

		_, err := s.Load(ctx, "a")
		require.ErrorIs(t, err, storage.ErrBucketNotFound)

		// Deleting an absent bucket is a no-op.
		require.NoError(t, s.Commit(ctx, storage.Write{Key: "a", Delete: true}))
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Ping(context.Background()))
	})
}
