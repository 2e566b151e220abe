// Package app assembles the ledger and its backing services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/analysis"
	"github.com/prn-tf/eday-ledger/internal/cache"
	memcache "github.com/prn-tf/eday-ledger/internal/cache/memory"
	rediscache "github.com/prn-tf/eday-ledger/internal/cache/redis"
	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/metrics"
	"github.com/prn-tf/eday-ledger/internal/pkg/crypto"
	"github.com/prn-tf/eday-ledger/internal/service"
	"github.com/prn-tf/eday-ledger/internal/storage/backend"
)

// App holds the wired components shared by the server and the admin CLI.
type App struct {
	Config   *config.Config
	Backend  *backend.Backend
	Metrics  *metrics.Metrics
	Ledger   *service.LedgerService
	Analysis *service.AnalysisService
	Logger   zerolog.Logger

	// stop halts the in-memory cache cleanup, if one was started.
	stop func()
}

// Open connects the configured backend and builds the services.
// The ledger is seeded when ledger.seed_on_start is set.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	deriver, err := crypto.NewDeriver(cfg.Ledger.CredentialScheme, cfg.Ledger.Pepper)
	if err != nil {
		return nil, fmt.Errorf("credential scheme: %w", err)
	}

	admin, err := crypto.NewAdminCredential(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("admin credential: %w", err)
	}

	be, err := backend.NewFactory(cfg, logger).Open(ctx)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	ledger := service.NewLedgerService(be.Store, be.Locker, service.LedgerConfig{
		Deriver:        deriver,
		Admin:          admin,
		Namespace:      cfg.Ledger.Namespace,
		LockTTL:        cfg.Ledger.LockTTL,
		LockRetries:    cfg.Ledger.LockRetries,
		LockRetryDelay: cfg.Ledger.LockRetryDelay,
		Metrics:        m,
	}, logger)

	if cfg.Ledger.SeedOnStart {
		if err := ledger.Initialize(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("initialize ledger: %w", err), be.Close())
		}
	}

	var summarizer analysis.Summarizer
	if cfg.Analysis.Configured() {
		summarizer = analysis.NewGeminiClient(analysis.GeminiConfig{
			APIKey:   cfg.Analysis.APIKey,
			Model:    cfg.Analysis.Model,
			Endpoint: cfg.Analysis.Endpoint,
			Timeout:  cfg.Analysis.Timeout,
		}, logger)
	}

	svc := service.NewAnalysisService(ledger, summarizer, cfg.Analysis.Timeout, m, logger)

	stop := func() {}
	if summarizer != nil && cfg.Analysis.CacheTTL > 0 {
		var c cache.Cache
		if client := be.RedisClient(); client != nil {
			c = rediscache.NewCache(client, cacheKeyPrefix(cfg.Ledger.Namespace))
		} else {
			mc := memcache.NewCache()
			c, stop = mc, mc.Stop
		}
		svc.WithCache(c, cfg.Analysis.CacheTTL)
	}

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("credential_scheme", deriver.Name()).
		Str("namespace", cfg.Ledger.Namespace).
		Bool("analysis", summarizer != nil).
		Msg("ledger ready")

	return &App{
		Config:   cfg,
		Backend:  be,
		Metrics:  m,
		Ledger:   ledger,
		Analysis: svc,
		Logger:   logger,
		stop:     stop,
	}, nil
}

// Close releases the backend connections.
func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}
	return a.Backend.Close()
}

func cacheKeyPrefix(namespace string) string {
	if namespace == "" {
		return "cache:"
	}
	return "cache:" + namespace + ":"
}
