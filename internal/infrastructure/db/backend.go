// Package db opens the account store selected by configuration.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db/memory"
	mongostore "github.com/usermgmt/accounts-api/internal/infrastructure/db/mongo"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db/postgres"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db/sqlite"
	"github.com/usermgmt/accounts-api/internal/pkg/config"
)

// Backend is the opened account store plus the resources behind it.
type Backend struct {
	Store ports.AccountStore
	// Audit is set when the backend can persist audit events itself (mongo).
	Audit ports.AuditWriter

	closers []func() error
}

// Open connects the store named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		gdb, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN}, log)
		if err != nil {
			return nil, err
		}
		b.Store = postgres.NewAccountStore(gdb)
		b.closers = append(b.closers, func() error { return postgres.Close(gdb) })

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.Store = store
		b.closers = append(b.closers, store.Close)

	case config.DriverMongo:
		client, mdb, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { return client.Disconnect(context.Background()) })

		store := mongostore.NewAccountStore(mdb)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		b.Store = store
		b.Audit = mongostore.NewAuditRepository(mdb)

	case config.DriverMemory:
		log.Warn().Msg("using in-memory account store; data is lost on restart")
		b.Store = memory.NewAccountStore()

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	log.Info().Str("driver", cfg.StoreDriver).Msg("account store ready")
	return b, nil
}

// Close releases every resource opened by Open.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}
