package ports

import "github.com/usermgmt/accounts-api/internal/core/domain"

// PasswordHasher turns plaintext passwords into one-way credential hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify never fails on malformed input; it reports false instead.
	Verify(password, credentialHash string) bool
}

// TokenService mints and checks bearer tokens.
type TokenService interface {
	Issue(login string, role domain.Role) (string, error)
	// Verify fails with domain.ErrInvalidToken on bad signature, malformed
	// payload or expiry.
	Verify(token string) (*domain.Claims, error)
}
