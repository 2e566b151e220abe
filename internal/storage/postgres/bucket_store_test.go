package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/storage"
	"github.com/prn-tf/eday-ledger/internal/storage/storagetest"
)

// testConfig reads the connection settings for the integration database.
// The tests are skipped unless EDAY_TEST_POSTGRES_HOST is set.
func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	host := os.Getenv("EDAY_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("EDAY_TEST_POSTGRES_HOST not set")
	}

	port := 5432
	if p := os.Getenv("EDAY_TEST_POSTGRES_PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		require.NoError(t, err)
	}

	return config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port,
		User:            envOr("EDAY_TEST_POSTGRES_USER", "eday"),
		Password:        os.Getenv("EDAY_TEST_POSTGRES_PASSWORD"),
		Database:        envOr("EDAY_TEST_POSTGRES_DB", "eday_test"),
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestBucketStore_Conformance(t *testing.T) {
	cfg := testConfig(t)

	storagetest.Run(t, func(t *testing.T) storage.Store {
		ctx := context.Background()
		db, err := NewDB(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, db.Migrate(ctx))

		_, err = db.Pool.Exec(ctx, `TRUNCATE buckets`)
		require.NoError(t, err)

		s := NewBucketStore(db)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
