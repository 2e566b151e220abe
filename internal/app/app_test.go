package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "eday.db")
	cfg.Admin.BcryptCost = 4
	return cfg
}

func TestOpen_SQLite(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	candidates, err := a.Ledger.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, len(domain.InitialCandidates()))

	require.NotNil(t, a.Metrics)
	require.False(t, a.Analysis.Enabled())

	user, err := a.Ledger.RegisterUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.NotEqual(t, "pw1", user.ID)
}

func TestOpen_AnalysisConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.Enabled = true
	cfg.Analysis.APIKey = "test-key"

	a, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.Analysis.Enabled())
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown scheme", func(c *config.Config) { c.Ledger.CredentialScheme = "rot13" }},
		{"argon2 without pepper", func(c *config.Config) { c.Ledger.Pepper = "" }},
		{"empty admin", func(c *config.Config) { c.Admin.Password = "" }},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "mongo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			_, err := Open(context.Background(), cfg, zerolog.Nop())
			require.Error(t, err)
		})
	}
}
