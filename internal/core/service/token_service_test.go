package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService("secret", ttl)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	token, err := svc.Issue("alice1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "alice1" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future, got %v", claims.ExpiresAt)
	}
}

func TestTokenService_ExpiresAfterTTL(t *testing.T) {
	svc := newTestTokenService(t, 10*time.Minute)
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("bob", domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(9 * time.Minute) }
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token valid before TTL, got %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(10*time.Minute + time.Second) }
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after TTL, got %v", err)
	}
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	other, err := NewTokenService("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := other.Issue("mallory", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RejectsMalformed(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenService_RejectsTamperedPayload(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	token, err := svc.Issue("carol", domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "carol",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("guess"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := svc.Verify(tampered); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "dave",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RequiresClaims(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	cases := map[string]jwt.MapClaims{
		"no expiry":    {"sub": "erin", "role": "user"},
		"no subject":   {"role": "user", "exp": time.Now().Add(time.Hour).Unix()},
		"unknown role": {"sub": "erin", "role": "root", "exp": time.Now().Add(time.Hour).Unix()},
	}
	for name, claims := range cases {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewTokenService_Defaults(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}

	svc := newTestTokenService(t, 0)
	if svc.TTL() != defaultTokenTTL {
		t.Fatalf("expected default TTL %v, got %v", defaultTokenTTL, svc.TTL())
	}
}
