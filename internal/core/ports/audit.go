package ports

import (
	"context"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

// AuditSink accepts audit events without blocking the caller on persistence.
type AuditSink interface {
	Record(event domain.AuditEvent)
}

// AuditWriter persists audit events.
type AuditWriter interface {
	Write(ctx context.Context, event domain.AuditEvent) error
}
