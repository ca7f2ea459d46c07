package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultLockout     = 15 * time.Minute
)

// LoginThrottle counts failed logins per account in Redis.
// Key format: login_fail:<login>
// The counter expires lockout after the first failure in a window.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int64
	lockout     time.Duration
}

// NewLoginThrottle creates a LoginThrottle. Non-positive limits fall back to
// 5 attempts per 15 minutes.
func NewLoginThrottle(client *redis.Client, maxAttempts int, lockout time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &LoginThrottle{client: client, maxAttempts: int64(maxAttempts), lockout: lockout}
}

// Blocked reports whether login has reached the failure limit.
func (t *LoginThrottle) Blocked(ctx context.Context, login string) (bool, error) {
	n, err := t.client.Get(ctx, key(login)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxAttempts, nil
}

// Fail records one failed attempt.
func (t *LoginThrottle) Fail(ctx context.Context, login string) error {
	k := key(login)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, t.lockout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("throttle fail: %w", err)
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, login string) error {
	if err := t.client.Del(ctx, key(login)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func key(login string) string {
	return "login_fail:" + login
}
