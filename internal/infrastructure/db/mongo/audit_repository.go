package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

const auditCollection = "account_events"

// AuditRepository appends account audit events to the account_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// Write persists one audit event.
func (r *AuditRepository) Write(ctx context.Context, event domain.AuditEvent) error {
	doc := bson.M{
		"login":   event.Login,
		"action":  string(event.Action),
		"outcome": event.Outcome,
		"at":      event.At.UTC(),
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
