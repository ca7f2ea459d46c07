// Package crypto implements password hashing with argon2id. Hashes are
// encoded in the PHC string format so parameters travel with each hash:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
//
// Verification also accepts bcrypt hashes written by earlier deployments.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2Prefix = "$argon2id$"

	// Upper bounds for parameters read back from stored hashes, so a corrupt
	// or hostile record cannot make Verify allocate without limit.
	maxMemoryKiB = 1 << 20
	maxTime      = 16
	maxKeyLen    = 128
	minSaltLen   = 8
)

// Params are the argon2id cost parameters used for new hashes.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	SaltLen   uint32
	KeyLen    uint32
}

// DefaultParams follow the argon2 RFC 9106 second recommended option.
var DefaultParams = Params{
	Time:      3,
	MemoryKiB: 64 * 1024,
	Threads:   2,
	SaltLen:   16,
	KeyLen:    32,
}

// Hasher is safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher. Zero fields in p fall back to DefaultParams.
func NewHasher(p Params) *Hasher {
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultParams.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultParams.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	return &Hasher{params: p}
}

// Hash derives an argon2id key from password under a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("%sv=%d$%s$%s$%s",
		argon2Prefix,
		argon2.Version,
		encodeParams(h.params.MemoryKiB, h.params.Time, h.params.Threads),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches credentialHash. Malformed or
// unsupported hashes yield false.
func (h *Hasher) Verify(password, credentialHash string) bool {
	switch {
	case strings.HasPrefix(credentialHash, argon2Prefix):
		return verifyArgon2(password, credentialHash)
	case isBcrypt(credentialHash):
		return bcrypt.CompareHashAndPassword([]byte(credentialHash), []byte(password)) == nil
	default:
		return false
	}
}

func verifyArgon2(password, encoded string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if parts[3] != encodeParams(memory, time, threads) {
		return false
	}
	if threads == 0 || time == 0 || time > maxTime || memory < 8*uint32(threads) || memory > maxMemoryKiB {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLen {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxKeyLen {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func encodeParams(memory, time uint32, threads uint8) string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", memory, time, threads)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
