package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

const (
	accountsCollection = "accounts"
	countersCollection = "counters"
	accountsCounterID  = "accounts"
	loginIndex         = "login_1"
	duplicateKeyCode   = 11000
)

// AccountStore keeps accounts in a collection keyed by an integer _id drawn
// from a counter document, with a unique index on login.
type AccountStore struct {
	db       *mongo.Database
	accounts *mongo.Collection
	counters *mongo.Collection
}

func NewAccountStore(db *mongo.Database) *AccountStore {
	return &AccountStore{
		db:       db,
		accounts: db.Collection(accountsCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoAccount struct {
	ID           int64  `bson:"_id"`
	Role         string `bson:"role"`
	Login        string `bson:"login"`
	PasswordHash string `bson:"password_hash"`
}

func (m mongoAccount) toDomain() domain.Account {
	return domain.Account{
		ID:             m.ID,
		Role:           domain.Role(m.Role),
		Login:          m.Login,
		CredentialHash: m.PasswordHash,
	}
}

// EnsureIndexes creates the unique login index that backs ErrDuplicateLogin.
func (r *AccountStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "login", Value: 1}},
		Options: options.Index().SetName(loginIndex).SetUnique(true),
	})
	return err
}

func (r *AccountStore) Insert(ctx context.Context, role domain.Role, login, credentialHash string) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, unavailable("allocate id", err)
	}

	doc := mongoAccount{ID: id, Role: string(role), Login: login, PasswordHash: credentialHash}
	if _, err := r.accounts.InsertOne(ctx, doc); err != nil {
		if isLoginConflict(err) {
			return 0, domain.ErrDuplicateLogin
		}
		return 0, unavailable("insert account", err)
	}
	return id, nil
}

func (r *AccountStore) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	var m mongoAccount
	if err := r.accounts.FindOne(ctx, bson.M{"login": login}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, unavailable("find account", err)
	}
	a := m.toDomain()
	return &a, nil
}

func (r *AccountStore) DeleteByLogin(ctx context.Context, login string) (int64, error) {
	res, err := r.accounts.DeleteOne(ctx, bson.M{"login": login})
	if err != nil {
		return 0, unavailable("delete account", err)
	}
	return res.DeletedCount, nil
}

func (r *AccountStore) UpdateCredentialHash(ctx context.Context, login, credentialHash string) error {
	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"login": login},
		bson.M{"$set": bson.M{"password_hash": credentialHash}},
	)
	if err != nil {
		return unavailable("update credential hash", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountStore) ListAll(ctx context.Context) ([]domain.Account, error) {
	cur, err := r.accounts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, unavailable("list accounts", err)
	}
	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, unavailable("list accounts", err)
	}

	accounts := make([]domain.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.toDomain())
	}
	return accounts, nil
}

// Restore upserts on _id with $setOnInsert, so an existing id is left as is.
func (r *AccountStore) Restore(ctx context.Context, account domain.Account) (bool, error) {
	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": account.ID},
		bson.M{"$setOnInsert": bson.M{
			"role":          string(account.Role),
			"login":         account.Login,
			"password_hash": account.CredentialHash,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if isLoginConflict(err) {
			return false, domain.ErrDuplicateLogin
		}
		return false, unavailable("restore account", err)
	}
	if res.UpsertedCount == 0 {
		return false, nil
	}

	_, err = r.counters.UpdateOne(ctx,
		bson.M{"_id": accountsCounterID},
		bson.M{"$max": bson.M{"seq": account.ID}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return true, unavailable("advance id counter", err)
	}
	return true, nil
}

func (r *AccountStore) Ping(ctx context.Context) error {
	if err := r.db.Client().Ping(ctx, nil); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *AccountStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": accountsCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

// isLoginConflict reports a duplicate key on the login index. A clash on _id
// means the counter lags behind restored ids and is not the caller's fault.
func isLoginConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCodeWithMessage(duplicateKeyCode, "index: "+loginIndex+" ")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
