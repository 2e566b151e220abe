// Package backend opens the bucket store and ledger locker selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/lock"
	"github.com/prn-tf/eday-ledger/internal/storage"
	"github.com/prn-tf/eday-ledger/internal/storage/memory"
	"github.com/prn-tf/eday-ledger/internal/storage/postgres"
	redisstore "github.com/prn-tf/eday-ledger/internal/storage/redis"
	"github.com/prn-tf/eday-ledger/internal/storage/sqlite"
)

// ErrSchemaOutdated indicates the SQL schema needs eday-migrate up.
var ErrSchemaOutdated = errors.New("database schema is out of date")

// Backend holds the opened store and the locker that guards it.
type Backend struct {
	Store  storage.Store
	Locker lock.Locker

	// redis is set when a client was opened only for the locker.
	redis *goredis.Client

	// shared is the Redis store's own client.
	shared *goredis.Client
}

// RedisClient returns the backend's Redis client, or nil without Redis.
func (b *Backend) RedisClient() *goredis.Client {
	if b.redis != nil {
		return b.redis
	}
	return b.shared
}

// Close releases every connection the backend opened.
func (b *Backend) Close() error {
	if c, ok := b.Locker.(interface{ Close() }); ok {
		c.Close()
	}

	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	errs = append(errs, b.Store.Close())
	return errors.Join(errs...)
}

// Factory creates backends based on configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger.With().Str("component", "backend").Logger(),
	}
}

// Driver returns the configured database driver.
func (f *Factory) Driver() string {
	return f.cfg.Database.Driver
}

// Open connects the configured bucket store and picks a locker.
// SQLite is migrated in place; PostgreSQL must already be migrated.
// A Redis locker is used when the store is Redis or redis.enabled is set,
// otherwise the lock is process-local.
func (f *Factory) Open(ctx context.Context) (*Backend, error) {
	switch f.cfg.Database.Driver {
	case config.DriverMemory:
		return f.withLocker(ctx, memory.NewStore(), nil)

	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, f.sqliteConfig(), f.logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return f.withLocker(ctx, sqlite.NewBucketStore(db), nil)

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, f.cfg.Database, f.logger)
		if err != nil {
			return nil, err
		}
		if err := checkPostgresSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return f.withLocker(ctx, postgres.NewBucketStore(db), nil)

	case config.DriverRedis:
		client, err := redisstore.NewClient(ctx, f.cfg.Redis, f.logger)
		if err != nil {
			return nil, err
		}
		return f.withLocker(ctx, redisstore.NewBucketStore(client), client)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", f.cfg.Database.Driver)
	}
}

// withLocker attaches the locker. shared is the store's own Redis client, if any.
func (f *Factory) withLocker(ctx context.Context, store storage.Store, shared *goredis.Client) (*Backend, error) {
	b := &Backend{Store: store, shared: shared}

	switch {
	case shared != nil:
		b.Locker = lock.NewRedisLocker(shared)
	case f.cfg.Redis.Enabled:
		client, err := redisstore.NewClient(ctx, f.cfg.Redis, f.logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		b.redis = client
		b.Locker = lock.NewRedisLocker(client)
	default:
		b.Locker = lock.NewMemoryLocker()
	}

	f.logger.Info().
		Str("driver", f.cfg.Database.Driver).
		Bool("distributed_lock", shared != nil || b.redis != nil).
		Msg("bucket store ready")

	return b, nil
}

func (f *Factory) sqliteConfig() sqlite.Config {
	c := f.cfg.Database
	cfg := sqlite.DefaultConfig(c.Path)
	if c.JournalMode != "" {
		cfg.JournalMode = c.JournalMode
	}
	if c.BusyTimeout > 0 {
		cfg.BusyTimeout = c.BusyTimeout
	}
	if c.CacheSize != 0 {
		cfg.CacheSize = c.CacheSize
	}
	if c.SynchronousMode != "" {
		cfg.SynchronousMode = c.SynchronousMode
	}
	return cfg
}

func checkPostgresSchema(ctx context.Context, db *postgres.DB) error {
	current, err := db.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	latest, err := postgres.LatestVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("%w: at version %d, need %d (run eday-migrate up)", ErrSchemaOutdated, current, latest)
	}
	return nil
}

// MigrationStatus reports the schema version of a SQL backend.
type MigrationStatus struct {
	Driver  string
	Current int
	Latest  int
}

// Pending returns true if migrations remain to be applied.
func (s MigrationStatus) Pending() bool {
	return s.Current < s.Latest
}

// Status reads the schema version without changing anything.
// Memory and Redis stores have no schema and report zero versions.
func (f *Factory) Status(ctx context.Context) (MigrationStatus, error) {
	return f.migrate(ctx, false)
}

// Migrate applies pending migrations and returns the resulting status.
func (f *Factory) Migrate(ctx context.Context) (MigrationStatus, error) {
	return f.migrate(ctx, true)
}

func (f *Factory) migrate(ctx context.Context, apply bool) (MigrationStatus, error) {
	status := MigrationStatus{Driver: f.cfg.Database.Driver}

	switch f.cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, f.sqliteConfig(), f.logger)
		if err != nil {
			return status, err
		}
		defer db.Close()

		if apply {
			if err := db.Migrate(ctx); err != nil {
				return status, err
			}
		}
		if status.Current, err = db.CurrentVersion(ctx); err != nil {
			return status, err
		}
		status.Latest, err = sqlite.LatestVersion()
		return status, err

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, f.cfg.Database, f.logger)
		if err != nil {
			return status, err
		}
		defer db.Close()

		if apply {
			if err := db.Migrate(ctx); err != nil {
				return status, err
			}
		}
		if status.Current, err = db.CurrentVersion(ctx); err != nil {
			return status, err
		}
		status.Latest, err = postgres.LatestVersion()
		return status, err

	default:
		return status, nil
	}
}
