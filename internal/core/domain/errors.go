package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateLogin    = errors.New("login already exists")
	ErrNotFound          = errors.New("account not found")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrInvalidToken      = errors.New("invalid token")
	ErrStoreUnavailable  = errors.New("account store unavailable")
	ErrTooManyAttempts   = errors.New("too many failed login attempts")
)

// ValidationError carries a human-readable reason for rejected input.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
