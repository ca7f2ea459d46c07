package ports

import (
	"context"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

// AccountStore is the persistence boundary for accounts. Implementations
// enforce login uniqueness themselves and report it as domain.ErrDuplicateLogin;
// infrastructure failures are wrapped in domain.ErrStoreUnavailable.
type AccountStore interface {
	// Insert persists a new account and returns the id assigned by the store.
	Insert(ctx context.Context, role domain.Role, login, credentialHash string) (int64, error)
	// FindByLogin returns domain.ErrNotFound when no account has that login.
	FindByLogin(ctx context.Context, login string) (*domain.Account, error)
	// DeleteByLogin returns the number of removed records (0 or 1).
	DeleteByLogin(ctx context.Context, login string) (int64, error)
	// UpdateCredentialHash returns domain.ErrNotFound when no account has that login.
	UpdateCredentialHash(ctx context.Context, login, credentialHash string) error
	ListAll(ctx context.Context) ([]domain.Account, error)
	// Restore inserts an account under its existing id. It reports false,
	// without error, when the id is already taken.
	Restore(ctx context.Context, account domain.Account) (bool, error)
	Ping(ctx context.Context) error
}
