package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "argon2id", cfg.Ledger.CredentialScheme)
	require.Equal(t, "Obakeng@Admin", cfg.Admin.Username)
	require.Equal(t, "Obakeng@Admin", cfg.Admin.Password)
	require.Equal(t, 15*time.Second, cfg.Analysis.Timeout)
	require.False(t, cfg.Analysis.Configured())
	require.True(t, cfg.Database.IsEmbedded())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("EDAY_DATABASE_DRIVER", "memory")
	t.Setenv("EDAY_LEDGER_CREDENTIAL_SCHEME", "legacy")
	t.Setenv("EDAY_SERVER_PORT", "9100")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.Database.Driver)
	require.Equal(t, "legacy", cfg.Ledger.CredentialScheme)
	require.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "eday.yaml")
	body := []byte("database:\n  driver: redis\nredis:\n  host: cache\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DriverRedis, cfg.Database.Driver)
	require.Equal(t, "cache:6379", cfg.Redis.Addr())
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EDAY_LEDGER_NAMESPACE=dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("EDAY_LEDGER_NAMESPACE") })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dotenv", cfg.Ledger.Namespace)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverMemory},
			Ledger:   LedgerConfig{CredentialScheme: "sha256", Pepper: "p", LockTTL: time.Second},
			Admin:    AdminConfig{Username: "a", Password: "b"},
			Logging:  LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Driver = DriverSQLite }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: true},
		{name: "unknown scheme", mutate: func(c *Config) { c.Ledger.CredentialScheme = "md5" }, wantErr: true},
		{name: "missing pepper", mutate: func(c *Config) { c.Ledger.Pepper = "" }, wantErr: true},
		{name: "legacy needs no pepper", mutate: func(c *Config) { c.Ledger.CredentialScheme = "legacy"; c.Ledger.Pepper = "" }},
		{name: "missing admin", mutate: func(c *Config) { c.Admin.Password = "" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "analysis without timeout", mutate: func(c *Config) { c.Analysis.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
