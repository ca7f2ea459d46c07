// Package storetest holds behaviour checks shared by every AccountStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
)

// Run exercises store semantics against a fresh store from newStore per subtest.
func Run(t *testing.T, newStore func(t *testing.T) ports.AccountStore) {
	t.Run("InsertAndFind", func(t *testing.T) { testInsertAndFind(t, newStore(t)) })
	t.Run("DuplicateLogin", func(t *testing.T) { testDuplicateLogin(t, newStore(t)) })
	t.Run("ConcurrentDuplicate", func(t *testing.T) { testConcurrentDuplicate(t, newStore(t)) })
	t.Run("FindMissing", func(t *testing.T) { testFindMissing(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("UpdateCredentialHash", func(t *testing.T) { testUpdateCredentialHash(t, newStore(t)) })
	t.Run("ListAll", func(t *testing.T) { testListAll(t, newStore(t)) })
	t.Run("Restore", func(t *testing.T) { testRestore(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Fatalf("Ping returned error: %v", err)
		}
	})
}

func mustInsert(t *testing.T, s ports.AccountStore, role domain.Role, login, hash string) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), role, login, hash)
	if err != nil {
		t.Fatalf("Insert(%s) returned error: %v", login, err)
	}
	return id
}

func testInsertAndFind(t *testing.T, s ports.AccountStore) {
	ctx := context.Background()
	first := mustInsert(t, s, domain.RoleUser, "alice1", "hash-a")
	second := mustInsert(t, s, domain.RoleAdmin, "bob", "hash-b")
	if first <= 0 || second <= first {
		t.Fatalf("expected increasing positive ids, got %d then %d", first, second)
	}

	got, err := s.FindByLogin(ctx, "alice1")
	if err != nil {
		t.Fatalf("FindByLogin returned error: %v", err)
	}
	want := domain.Account{ID: first, Role: domain.RoleUser, Login: "alice1", CredentialHash: "hash-a"}
	if *got != want {
		t.Fatalf("expected %+v, got %+v", want, *got)
	}

	if _, err := s.FindByLogin(ctx, "ALICE1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected case-sensitive lookup to miss, got %v", err)
	}
}

func testDuplicateLogin(t *testing.T, s ports.AccountStore) {
	ctx := context.Background()
	mustInsert(t, s, domain.RoleUser, "alice1", "hash-a")

	if _, err := s.Insert(ctx, domain.RoleAdmin, "alice1", "hash-b"); !errors.Is(err, domain.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 1 || all[0].CredentialHash != "hash-a" {
		t.Fatalf("expected the original record only, got %+v", all)
	}
}

func testConcurrentDuplicate(t *testing.T, s ports.AccountStore) {
	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(context.Background(), domain.RoleUser, "racer", "hash")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrDuplicateLogin):
		default:
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one insert to succeed, got %d", succeeded)
	}
}

func testFindMissing(t *testing.T, s ports.AccountStore) {
	if _, err := s.FindByLogin(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDelete(t *testing.T, s ports.AccountStore) {
	ctx := context.Background()
	mustInsert(t, s, domain.RoleUser, "alice1", "hash-a")

	n, err := s.DeleteByLogin(ctx, "ghost")
	if err != nil || n != 0 {
		t.Fatalf("expected (0, nil) for missing login, got (%d, %v)", n, err)
	}

	n, err = s.DeleteByLogin(ctx, "alice1")
	if err != nil || n != 1 {
		t.Fatalf("expected (1, nil), got (%d, %v)", n, err)
	}
	if _, err := s.FindByLogin(ctx, "alice1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted account to be gone, got %v", err)
	}

	// the login is free again
	mustInsert(t, s, domain.RoleUser, "alice1", "hash-c")
}

func testUpdateCredentialHash(t *testing.T, s ports.AccountStore) {
	ctx := context.Background()
	id := mustInsert(t, s, domain.RoleAdmin, "carol", "old")

	if err := s.UpdateCredentialHash(ctx, "carol", "new"); err != nil {
		t.Fatalf("UpdateCredentialHash returned error: %v", err)
	}
	got, err := s.FindByLogin(ctx, "carol")
	if err != nil {
		t.Fatalf("FindByLogin returned error: %v", err)
	}
	if got.CredentialHash != "new" || got.ID != id || got.Role != domain.RoleAdmin {
		t.Fatalf("unexpected record after update: %+v", got)
	}

	if err := s.UpdateCredentialHash(ctx, "ghost", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testListAll(t *testing.T, s ports.AccountStore) {
	ctx := context.Background()
	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %+v", all)
	}

	mustInsert(t, s, domain.RoleUser, "u1", "h1")
	mustInsert(t, s, domain.RoleAdmin, "u2", "h2")
	mustInsert(t, s, domain.RoleUser, "u3", "h3")

	all, err = s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(all))
	}
	for i, login := range []string{"u1", "u2", "u3"} {
		if all[i].Login != login {
			t.Fatalf("expected id order, got %+v", all)
		}
	}
}

func testRestore(t *testing.T, s ports.AccountStore) {
	ctx := context.Background()
	existing := mustInsert(t, s, domain.RoleUser, "alice1", "hash-a")

	ok, err := s.Restore(ctx, domain.Account{ID: 40, Role: domain.RoleAdmin, Login: "imported", CredentialHash: "hash-i"})
	if err != nil || !ok {
		t.Fatalf("expected restore to insert, got (%v, %v)", ok, err)
	}
	got, err := s.FindByLogin(ctx, "imported")
	if err != nil || got.ID != 40 {
		t.Fatalf("expected restored id 40, got %+v, %v", got, err)
	}

	ok, err = s.Restore(ctx, domain.Account{ID: existing, Role: domain.RoleUser, Login: "other", CredentialHash: "x"})
	if err != nil || ok {
		t.Fatalf("expected id collision to be skipped, got (%v, %v)", ok, err)
	}
	if _, err := s.FindByLogin(ctx, "other"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("skipped record must not be stored, got %v", err)
	}

	if _, err := s.Restore(ctx, domain.Account{ID: 77, Role: domain.RoleUser, Login: "alice1", CredentialHash: "x"}); !errors.Is(err, domain.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin for login collision, got %v", err)
	}

	next := mustInsert(t, s, domain.RoleUser, "after", "h")
	if next <= 40 {
		t.Fatalf("expected ids after restore to exceed 40, got %d", next)
	}
}
