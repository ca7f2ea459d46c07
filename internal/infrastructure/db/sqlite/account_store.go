// Package sqlite implements the AccountStore over an embedded SQLite file
// using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_role     TEXT NOT NULL,
	user_login    TEXT NOT NULL UNIQUE,
	user_password TEXT NOT NULL
)`

// AccountStore persists accounts in the users table.
type AccountStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*AccountStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single writer connection avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &AccountStore{db: db}, nil
}

// Close releases the database handle.
func (s *AccountStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *AccountStore) Insert(ctx context.Context, role domain.Role, login, credentialHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (user_role, user_login, user_password) VALUES (?, ?, ?)",
		string(role), login, credentialHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrDuplicateLogin
		}
		return 0, unavailable("insert account", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable("read inserted id", err)
	}
	return id, nil
}

func (s *AccountStore) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	var a domain.Account
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, user_role, user_login, user_password FROM users WHERE user_login = ?",
		login,
	).Scan(&a.ID, &role, &a.Login, &a.CredentialHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find account", err)
	}
	a.Role = domain.Role(role)
	return &a, nil
}

func (s *AccountStore) DeleteByLogin(ctx context.Context, login string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE user_login = ?", login)
	if err != nil {
		return 0, unavailable("delete account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("delete account", err)
	}
	return n, nil
}

func (s *AccountStore) UpdateCredentialHash(ctx context.Context, login, credentialHash string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET user_password = ? WHERE user_login = ?", credentialHash, login)
	if err != nil {
		return unavailable("update credential hash", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update credential hash", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *AccountStore) ListAll(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, user_role, user_login, user_password FROM users ORDER BY user_id")
	if err != nil {
		return nil, unavailable("list accounts", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var a domain.Account
		var role string
		if err := rows.Scan(&a.ID, &role, &a.Login, &a.CredentialHash); err != nil {
			return nil, unavailable("scan account", err)
		}
		a.Role = domain.Role(role)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list accounts", err)
	}
	return accounts, nil
}

func (s *AccountStore) Restore(ctx context.Context, account domain.Account) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, user_role, user_login, user_password) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		account.ID, string(account.Role), account.Login, account.CredentialHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrDuplicateLogin
		}
		return false, unavailable("restore account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("restore account", err)
	}
	return n == 1, nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
