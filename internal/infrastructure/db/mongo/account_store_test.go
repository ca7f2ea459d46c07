package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/infrastructure/db/storetest"
)

// These tests need a running MongoDB; set MONGO_TEST_URI to enable them.
func connectTestDB(t *testing.T) *AccountStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	dbName := fmt.Sprintf("accounts_test_%d", time.Now().UnixNano())
	client, db, err := Connect(ctx, Config{URI: uri, Database: dbName})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewAccountStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return store
}

func TestAccountStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.AccountStore {
		return connectTestDB(t)
	})
}

func TestAuditRepository_Write(t *testing.T) {
	store := connectTestDB(t)
	repo := NewAuditRepository(store.db)

	ev := domain.AuditEvent{Login: "alice1", Action: domain.AuditCreate, Outcome: "ok", At: time.Now()}
	if err := repo.Write(context.Background(), ev); err != nil {
		t.Fatalf("Write: %v", err)
	}

	n, err := repo.coll.CountDocuments(context.Background(), map[string]string{"login": "alice1"})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
}
