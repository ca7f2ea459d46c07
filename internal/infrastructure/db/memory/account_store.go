// Package memory provides a process-local AccountStore for tests and local
// development. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

type AccountStore struct {
	mu      sync.Mutex
	byLogin map[string]domain.Account
	ids     map[int64]string
	lastID  int64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byLogin: make(map[string]domain.Account),
		ids:     make(map[int64]string),
	}
}

func (s *AccountStore) Insert(_ context.Context, role domain.Role, login, credentialHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byLogin[login]; exists {
		return 0, domain.ErrDuplicateLogin
	}
	s.lastID++
	s.put(domain.Account{ID: s.lastID, Role: role, Login: login, CredentialHash: credentialHash})
	return s.lastID, nil
}

func (s *AccountStore) FindByLogin(_ context.Context, login string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byLogin[login]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (s *AccountStore) DeleteByLogin(_ context.Context, login string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byLogin[login]
	if !ok {
		return 0, nil
	}
	delete(s.byLogin, login)
	delete(s.ids, a.ID)
	return 1, nil
}

func (s *AccountStore) UpdateCredentialHash(_ context.Context, login, credentialHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byLogin[login]
	if !ok {
		return domain.ErrNotFound
	}
	a.CredentialHash = credentialHash
	s.byLogin[login] = a
	return nil
}

// ListAll returns accounts ordered by id.
func (s *AccountStore) ListAll(_ context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Account, 0, len(s.byLogin))
	for _, a := range s.byLogin {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AccountStore) Restore(_ context.Context, account domain.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.ids[account.ID]; taken {
		return false, nil
	}
	if _, exists := s.byLogin[account.Login]; exists {
		return false, domain.ErrDuplicateLogin
	}
	s.put(account)
	if account.ID > s.lastID {
		s.lastID = account.ID
	}
	return true, nil
}

func (s *AccountStore) Ping(context.Context) error {
	return nil
}

// put must be called with mu held.
func (s *AccountStore) put(a domain.Account) {
	s.byLogin[a.Login] = a
	s.ids[a.ID] = a.Login
}
