// Package transfer reads and writes account exports as a JSON array of
// {id, role, login, password} records. The password field carries the stored
// credential hash, never plaintext.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

type record struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Encode writes accounts to w as an indented JSON array.
func Encode(w io.Writer, accounts []domain.Account) error {
	records := make([]record, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, record{
			ID:       a.ID,
			Role:     string(a.Role),
			Login:    a.Login,
			Password: a.CredentialHash,
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Decode reads a JSON array of account records from r.
func Decode(r io.Reader) ([]domain.Account, error) {
	var records []record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(records))
	for _, rec := range records {
		accounts = append(accounts, domain.Account{
			ID:             rec.ID,
			Role:           domain.Role(rec.Role),
			Login:          rec.Login,
			CredentialHash: rec.Password,
		})
	}
	return accounts, nil
}

// WriteFile exports accounts to path, replacing any existing file.
func WriteFile(path string, accounts []domain.Account) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := Encode(f, accounts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads accounts exported by WriteFile.
func ReadFile(path string) ([]domain.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}
