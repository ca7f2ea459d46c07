package ports

import (
	"context"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

// ImportResult summarises a bulk import.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// AccountManager is the account lifecycle consumed by the HTTP boundary and
// the CLI. It performs no role checks: callers authorize by token claims.
type AccountManager interface {
	Create(ctx context.Context, role domain.Role, login, password string) (int64, error)
	Authenticate(ctx context.Context, login, password string) (int64, error)
	Load(ctx context.Context, login string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Delete(ctx context.Context, login string) error
	ChangePassword(ctx context.Context, account *domain.Account, oldPassword, newPassword string) error
	Export(ctx context.Context) ([]domain.Account, error)
	Import(ctx context.Context, accounts []domain.Account) (ImportResult, error)
}
