package ports

import "context"

// LoginThrottle counts failed logins per account and reports when an account
// has reached its limit.
type LoginThrottle interface {
	Blocked(ctx context.Context, login string) (bool, error)
	Fail(ctx context.Context, login string) error
	Reset(ctx context.Context, login string) error
}
