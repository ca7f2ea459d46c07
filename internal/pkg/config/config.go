package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=30m"`

	StoreDriver string `env:"STORE_DRIVER, default=postgres"`

	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Argon2   Argon2Config
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN, default=host=localhost user=postgres password=postgres dbname=accounts port=5432 sslmode=disable"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=accounts.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=accounts"`
}

// RedisConfig is optional; an empty Addr disables login throttling.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type ThrottleConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	Lockout     time.Duration `env:"LOGIN_LOCKOUT,      default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type Argon2Config struct {
	Time      uint32 `env:"ARGON2_TIME,       default=3"`
	MemoryKiB uint32 `env:"ARGON2_MEMORY_KIB, default=65536"`
	Threads   uint8  `env:"ARGON2_THREADS,    default=2"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// IsProduction reports whether ENV selects production behaviour (JSON logs).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
