package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

const defaultTokenTTL = 30 * time.Minute

var errEmptySecret = errors.New("token signing secret must be provided")

type tokenClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. The signing secret is
// fixed for the lifetime of the process.
//
// Tokens are stateless: deleting an account or changing its password does not
// invalidate tokens already issued; they stay valid until they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns how long issued tokens remain valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for login carrying role, expiring after the TTL.
func (s *TokenService) Issue(login string, role domain.Role) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Claims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
