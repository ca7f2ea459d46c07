// Command accountsctl exports and imports accounts using the same
// environment configuration as accounts-api.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/core/service"
	"github.com/usermgmt/accounts-api/internal/infrastructure/audit"
	"github.com/usermgmt/accounts-api/internal/infrastructure/crypto"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db"
	"github.com/usermgmt/accounts-api/internal/infrastructure/queue"
	"github.com/usermgmt/accounts-api/internal/pkg/config"
	"github.com/usermgmt/accounts-api/internal/tools/accountsctl"
	"github.com/usermgmt/accounts-api/pkg/logger"
)

func main() {
	cmd, err := accountsctl.ParseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		exitf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd); err != nil {
		exitf("%s: %v", cmd.Command, err)
	}
}

func run(ctx context.Context, cmd accountsctl.Config) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr, Service: "accountsctl"})

	backend, err := db.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()

	var writer ports.AuditWriter = audit.NewLogWriter(log)
	if backend.Audit != nil {
		writer = backend.Audit
	}
	dispatcher := queue.NewDispatcher(1, writer, log)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	hasher := crypto.NewHasher(crypto.Params{
		Time:      cfg.Argon2.Time,
		MemoryKiB: cfg.Argon2.MemoryKiB,
		Threads:   cfg.Argon2.Threads,
	})
	accounts := service.NewAccountService(backend.Store, hasher, nil, dispatcher, log)

	return accountsctl.Run(ctx, cmd, accounts, os.Stdout)
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "accountsctl: "+format+"\n", args...)
	os.Exit(1)
}
