package domain

import (
	"errors"
	"time"
)

// AuditAction names the account operation an AuditEvent describes.
type AuditAction string

const (
	AuditCreate         AuditAction = "create"
	AuditAuthenticate   AuditAction = "authenticate"
	AuditDelete         AuditAction = "delete"
	AuditChangePassword AuditAction = "change_password"
	AuditImport         AuditAction = "import"
)

// AuditEvent records the outcome of one account operation.
type AuditEvent struct {
	Login   string      `json:"login" bson:"login"`
	Action  AuditAction `json:"action" bson:"action"`
	Outcome string      `json:"outcome" bson:"outcome"`
	At      time.Time   `json:"at" bson:"at"`
}

// Outcome classifies err into a short, stable label for audit records and
// metrics. A nil error is "ok".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicateLogin):
		return "duplicate_login"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
