package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/storage"
	"github.com/prn-tf/eday-ledger/internal/storage/storagetest"
)

func TestStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return NewStore()
	})
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	data := []byte(`[1]`)
	require.NoError(t, s.Commit(ctx, storage.Write{Key: "k", Data: data}))
	data[1] = '9'

	entry, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte(`[1]`), entry.Data)

	entry.Data[1] = '8'
	again, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte(`[1]`), again.Data)
}

func TestStore_Close(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Ping(context.Background()), storage.ErrClosed)
}
