// Package config provides configuration management for the E-Day ledger.
// Configuration can be loaded from YAML files, .env files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// DatabaseConfig holds bucket store settings.
// Supports memory, SQLite, PostgreSQL and Redis backends.
type DatabaseConfig struct {
	// Driver specifies the bucket store: "memory", "sqlite", "postgres" or "redis".
	Driver string `mapstructure:"driver"`

	// PostgreSQL settings (used when Driver is "postgres")
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// SQLite settings (used when Driver is "sqlite")
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	CacheSize       int    `mapstructure:"cache_size"`       // Page cache size (negative = KB)
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF
}

// DSN returns the PostgreSQL connection string.
// Only valid when Driver is "postgres".
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// IsEmbedded returns true if the store lives inside the process or a local file.
func (c DatabaseConfig) IsEmbedded() bool {
	return c.Driver == DriverMemory || c.Driver == DriverSQLite
}

// RedisConfig holds Redis connection settings.
// Redis serves as a bucket store and as the distributed ledger lock.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Enabled     bool          `mapstructure:"enabled"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LedgerConfig holds ledger behaviour settings.
type LedgerConfig struct {
	// Namespace prefixes every bucket key. Empty keeps the bare keys.
	Namespace string `mapstructure:"namespace"`

	// CredentialScheme selects the voter id derivation: legacy, sha256 or argon2id.
	CredentialScheme string `mapstructure:"credential_scheme"`

	// Pepper is mixed into sha256 and argon2id derivations.
	Pepper string `mapstructure:"pepper"`

	// SeedOnStart runs ledger initialization when the server starts.
	SeedOnStart bool `mapstructure:"seed_on_start"`

	// LockTTL bounds how long one mutation may hold the ledger lock.
	LockTTL time.Duration `mapstructure:"lock_ttl"`

	// LockRetries is how many times a busy ledger lock is retried.
	LockRetries int `mapstructure:"lock_retries"`

	// LockRetryDelay is the pause between lock attempts.
	LockRetryDelay time.Duration `mapstructure:"lock_retry_delay"`
}

// AdminConfig holds the fixed administrator credential pair.
type AdminConfig struct {
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// AnalysisConfig holds AI analyst settings.
type AnalysisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// CacheTTL reuses a summary for unchanged standings. Zero disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Configured returns true if the analyst can be called.
func (c AnalysisConfig) Configured() bool {
	return c.Enabled && c.APIKey != ""
}

// ArchiveConfig holds S3 export settings.
type ArchiveConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`

	// EncryptionKey is a 64-character hex AES-256 key. Empty uploads plain JSON.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with EDAY_ and use _ as separator.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("EDAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file configuration
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/eday")
	}

	// Read config file (optional - environment variables can be used instead)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is acceptable - use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_body_size", 1024*1024) // 1MB

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "eday")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "eday")
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	// SQLite defaults
	v.SetDefault("database.path", "./data/eday.db")
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.busy_timeout", 5000)
	v.SetDefault("database.cache_size", -2000)
	v.SetDefault("database.synchronous_mode", "NORMAL")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.enabled", false)

	// Ledger defaults
	v.SetDefault("ledger.namespace", "")
	v.SetDefault("ledger.credential_scheme", "argon2id")
	v.SetDefault("ledger.pepper", "eday-default-pepper")
	v.SetDefault("ledger.seed_on_start", true)
	v.SetDefault("ledger.lock_ttl", 10*time.Second)
	v.SetDefault("ledger.lock_retries", 20)
	v.SetDefault("ledger.lock_retry_delay", 50*time.Millisecond)

	// Admin defaults
	v.SetDefault("admin.username", "Obakeng@Admin")
	v.SetDefault("admin.password", "Obakeng@Admin")
	v.SetDefault("admin.bcrypt_cost", 10)

	// Analysis defaults
	v.SetDefault("analysis.enabled", true)
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.model", "gemini-3-flash-preview")
	v.SetDefault("analysis.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("analysis.timeout", 15*time.Second)
	v.SetDefault("analysis.cache_ttl", time.Minute)

	// Archive defaults
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "eday")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.use_path_style", false)
	v.SetDefault("archive.encryption_key", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Validate database configuration
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres driver")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for postgres driver")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres driver")
		}
	case DriverRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("redis.host is required for redis driver")
		}
	default:
		return fmt.Errorf("database.driver must be one of: memory, sqlite, postgres, redis")
	}

	// Validate ledger configuration
	validSchemes := map[string]bool{"legacy": true, "sha256": true, "argon2id": true}
	if !validSchemes[c.Ledger.CredentialScheme] {
		return fmt.Errorf("ledger.credential_scheme must be one of: legacy, sha256, argon2id")
	}
	if c.Ledger.CredentialScheme != "legacy" && c.Ledger.Pepper == "" {
		return fmt.Errorf("ledger.pepper is required for %s credential scheme", c.Ledger.CredentialScheme)
	}
	if c.Ledger.LockTTL <= 0 {
		return fmt.Errorf("ledger.lock_ttl must be positive")
	}
	if c.Ledger.LockRetries < 0 {
		return fmt.Errorf("ledger.lock_retries must not be negative")
	}

	// Validate admin configuration
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return fmt.Errorf("admin.username and admin.password are required")
	}

	// Validate analysis configuration
	if c.Analysis.Enabled && c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be positive")
	}
	if c.Analysis.CacheTTL < 0 {
		return fmt.Errorf("analysis.cache_ttl must not be negative")
	}

	// Validate archive configuration
	if k := c.Archive.EncryptionKey; k != "" && len(k) != 64 {
		return fmt.Errorf("archive.encryption_key must be 64 hex characters")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
