package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/lock"
	"github.com/prn-tf/eday-ledger/internal/storage"
)

func TestFactory_OpenMemory(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}}

	b, err := NewFactory(cfg, zerolog.Nop()).Open(context.Background())
	require.NoError(t, err)
	defer b.Close()

	require.IsType(t, &lock.MemoryLocker{}, b.Locker)
	require.NoError(t, b.Store.Ping(context.Background()))
}

func TestFactory_OpenSQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "eday.db"),
	}}
	f := NewFactory(cfg, zerolog.Nop())

	before, err := f.Status(ctx)
	require.NoError(t, err)
	require.True(t, before.Pending())

	b, err := f.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Store.Commit(ctx, storage.Write{Key: "k", Data: []byte("[]")}))
	require.NoError(t, b.Close())

	after, err := f.Status(ctx)
	require.NoError(t, err)
	require.False(t, after.Pending())
	require.Equal(t, after.Latest, after.Current)
}

func TestFactory_MigrateNoSchema(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverRedis}}

	status, err := NewFactory(cfg, zerolog.Nop()).Migrate(context.Background())
	require.NoError(t, err)
	require.False(t, status.Pending())
	require.Equal(t, config.DriverRedis, status.Driver)
}

func TestFactory_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "mysql"}}

	_, err := NewFactory(cfg, zerolog.Nop()).Open(context.Background())
	require.Error(t, err)
}

func TestBackend_RedisClientNilWithoutRedis(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}}

	b, err := NewFactory(cfg, zerolog.Nop()).Open(context.Background())
	require.NoError(t, err)
	defer b.Close()

	require.Nil(t, b.RedisClient())
}
