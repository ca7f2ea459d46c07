// Package postgres implements the AccountStore on PostgreSQL through GORM.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultTimeout = 10 * time.Second

// Config captures the connection and pool settings.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Timeout      time.Duration
}

// Connect opens a pooled connection, verifies it with a ping and migrates the
// users table. Connections are borrowed from the pool per statement.
// GORM failures and slow queries are logged through log.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := db.WithContext(pingCtx).AutoMigrate(&accountModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
