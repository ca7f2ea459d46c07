// Command accounts-api serves the account HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/usermgmt/accounts-api/internal/api"
	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/core/service"
	"github.com/usermgmt/accounts-api/internal/infrastructure/audit"
	"github.com/usermgmt/accounts-api/internal/infrastructure/crypto"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db/redis"
	"github.com/usermgmt/accounts-api/internal/infrastructure/queue"
	"github.com/usermgmt/accounts-api/internal/pkg/config"
	"github.com/usermgmt/accounts-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "accounts-api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "accounts-api",
	})

	backend, err := db.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		rdb      *goredis.Client
		throttle ports.LoginThrottle
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		throttle = redis.NewLoginThrottle(rdb, cfg.Throttle.MaxAttempts, cfg.Throttle.Lockout)
	} else {
		log.Warn().Msg("REDIS_ADDR not set; login throttling disabled")
	}

	var writer ports.AuditWriter = audit.NewLogWriter(log)
	if backend.Audit != nil {
		writer = backend.Audit
	}
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, writer, log)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	hasher := crypto.NewHasher(crypto.Params{
		Time:      cfg.Argon2.Time,
		MemoryKiB: cfg.Argon2.MemoryKiB,
		Threads:   cfg.Argon2.Threads,
	})
	accounts := service.NewAccountService(backend.Store, hasher, throttle, dispatcher, log)

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Tokens:   tokens,
		Store:    backend.Store,
		Redis:    rdb,
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
