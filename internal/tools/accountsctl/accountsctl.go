// Package accountsctl implements the export and import commands of the
// accountsctl binary.
package accountsctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/infrastructure/transfer"
)

const (
	CommandExport = "export"
	CommandImport = "import"
)

const usage = "usage: accountsctl export -out FILE | accountsctl import -in FILE"

var errUsage = errors.New(usage)

// Config holds one parsed command line.
type Config struct {
	Command string
	Path    string
}

// ParseConfig parses a subcommand and its flags.
func ParseConfig(args []string, stderr io.Writer) (Config, error) {
	if len(args) == 0 {
		return Config{}, errUsage
	}

	cfg := Config{Command: args[0]}
	fs := flag.NewFlagSet(cfg.Command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch cfg.Command {
	case CommandExport:
		fs.StringVar(&cfg.Path, "out", "", "file to write the export to")
	case CommandImport:
		fs.StringVar(&cfg.Path, "in", "", "export file to read")
	default:
		return Config{}, fmt.Errorf("unknown command %q; %s", cfg.Command, usage)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return Config{}, err
	}
	if cfg.Path == "" {
		return Config{}, errUsage
	}
	return cfg, nil
}

// Transfer is the part of the account manager the commands need.
type Transfer interface {
	Export(ctx context.Context) ([]domain.Account, error)
	Import(ctx context.Context, accounts []domain.Account) (ports.ImportResult, error)
}

// Run executes cfg against accounts and reports the outcome on out.
func Run(ctx context.Context, cfg Config, accounts Transfer, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}

	switch cfg.Command {
	case CommandExport:
		list, err := accounts.Export(ctx)
		if err != nil {
			return fmt.Errorf("export accounts: %w", err)
		}
		if err := transfer.WriteFile(cfg.Path, list); err != nil {
			return fmt.Errorf("write %s: %w", cfg.Path, err)
		}
		_, err = fmt.Fprintf(out, "exported %d accounts to %s\n", len(list), cfg.Path)
		return err

	case CommandImport:
		list, err := transfer.ReadFile(cfg.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", cfg.Path, err)
		}
		res, err := accounts.Import(ctx, list)
		if err != nil {
			return fmt.Errorf("import accounts (inserted %d, skipped %d before failure): %w", res.Inserted, res.Skipped, err)
		}
		_, err = fmt.Fprintf(out, "imported %d accounts, skipped %d existing ids\n", res.Inserted, res.Skipped)
		return err

	default:
		return errUsage
	}
}
