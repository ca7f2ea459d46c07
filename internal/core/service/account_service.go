package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/core/validation"
)

// dummyPassword is hashed once at construction; authenticating an unknown
// login verifies against that hash so it costs as much as a wrong password.
const dummyPassword = "dummy.password"

// AccountService implements the account lifecycle on top of an AccountStore.
// It keeps no state between calls; every operation is validate, hash or
// verify, one store call.
type AccountService struct {
	store     ports.AccountStore
	hasher    ports.PasswordHasher
	throttle  ports.LoginThrottle
	audit     ports.AuditSink
	log       zerolog.Logger
	dummyHash string
}

// NewAccountService wires the account manager. throttle and audit are
// optional and may be nil.
func NewAccountService(
	store ports.AccountStore,
	hasher ports.PasswordHasher,
	throttle ports.LoginThrottle,
	audit ports.AuditSink,
	log zerolog.Logger,
) *AccountService {
	if throttle == nil {
		throttle = noThrottle{}
	}
	if audit == nil {
		audit = noAudit{}
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("failed to precompute dummy hash")
	}

	return &AccountService{
		store:     store,
		hasher:    hasher,
		throttle:  throttle,
		audit:     audit,
		log:       log,
		dummyHash: dummy,
	}
}

// Create validates and stores a new account and returns its id.
func (s *AccountService) Create(ctx context.Context, role domain.Role, login, password string) (id int64, err error) {
	defer func() { s.record(login, domain.AuditCreate, err) }()

	if err := validation.Validate(role, login, password); err != nil {
		return 0, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err = s.store.Insert(ctx, role, login, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateLogin) {
			s.log.Debug().Str("login", login).Msg("create rejected: login taken")
		}
		return 0, err
	}

	s.log.Info().Int64("id", id).Str("login", login).Str("role", string(role)).Msg("account created")
	return id, nil
}

// Authenticate checks login and password and returns the account id. It
// fails with domain.ErrNotFound for an unknown login and
// domain.ErrInvalidCredential for a wrong password; callers facing clients
// should not tell the two apart.
func (s *AccountService) Authenticate(ctx context.Context, login, password string) (id int64, err error) {
	defer func() { s.record(login, domain.AuditAuthenticate, err) }()

	blocked, terr := s.throttle.Blocked(ctx, login)
	if terr != nil {
		s.log.Warn().Err(terr).Str("login", login).Msg("throttle check failed, continuing")
	} else if blocked {
		return 0, domain.ErrTooManyAttempts
	}

	account, err := s.store.FindByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		s.log.Debug().Str("login", login).Msg("authentication failed: unknown login")
		s.fail(ctx, login)
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if !s.hasher.Verify(password, account.CredentialHash) {
		s.log.Debug().Str("login", login).Msg("authentication failed: wrong password")
		s.fail(ctx, login)
		return 0, domain.ErrInvalidCredential
	}

	if rerr := s.throttle.Reset(ctx, login); rerr != nil {
		s.log.Warn().Err(rerr).Str("login", login).Msg("failed to reset login throttle")
	}
	return account.ID, nil
}

// Load returns the account stored under login.
func (s *AccountService) Load(ctx context.Context, login string) (*domain.Account, error) {
	return s.store.FindByLogin(ctx, login)
}

// List returns every stored account.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.store.ListAll(ctx)
}

// Delete removes the account stored under login. Authorization is the
// caller's responsibility.
func (s *AccountService) Delete(ctx context.Context, login string) (err error) {
	defer func() { s.record(login, domain.AuditDelete, err) }()

	n, err := s.store.DeleteByLogin(ctx, login)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	s.log.Info().Str("login", login).Msg("account deleted")
	return nil
}

// ChangePassword replaces the credential hash of account. On success the
// stored hash and account.CredentialHash are equal; on failure neither changes.
func (s *AccountService) ChangePassword(ctx context.Context, account *domain.Account, oldPassword, newPassword string) (err error) {
	if account == nil {
		return domain.ErrNotFound
	}
	defer func() { s.record(account.Login, domain.AuditChangePassword, err) }()

	if !s.hasher.Verify(oldPassword, account.CredentialHash) {
		s.log.Debug().Str("login", account.Login).Msg("password change rejected: wrong old password")
		return domain.ErrInvalidCredential
	}

	if err := validation.Validate(account.Role, account.Login, newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdateCredentialHash(ctx, account.Login, hash); err != nil {
		return err
	}
	account.CredentialHash = hash

	s.log.Info().Str("login", account.Login).Msg("password changed")
	return nil
}

// Export returns every account including its credential hash.
func (s *AccountService) Export(ctx context.Context) ([]domain.Account, error) {
	return s.store.ListAll(ctx)
}

// Import restores exported accounts under their original ids. Accounts whose
// id is already taken are skipped. It stops at the first invalid record or
// store failure; records before it stay imported.
func (s *AccountService) Import(ctx context.Context, accounts []domain.Account) (res ports.ImportResult, err error) {
	defer func() { s.record("", domain.AuditImport, err) }()

	for _, a := range accounts {
		if err := validateRecord(a); err != nil {
			return res, fmt.Errorf("account %d: %w", a.ID, err)
		}

		inserted, err := s.store.Restore(ctx, a)
		if err != nil {
			return res, fmt.Errorf("restore account %d: %w", a.ID, err)
		}
		if !inserted {
			s.log.Debug().Int64("id", a.ID).Str("login", a.Login).Msg("import skipped: id taken")
			res.Skipped++
			continue
		}
		res.Inserted++
	}

	s.log.Info().Int("inserted", res.Inserted).Int("skipped", res.Skipped).Msg("accounts imported")
	return res, nil
}

func validateRecord(a domain.Account) error {
	if a.ID <= 0 {
		return domain.NewValidationError("id must be positive")
	}
	if err := validation.ValidateIdentity(a.Role, a.Login); err != nil {
		return err
	}
	if a.CredentialHash == "" {
		return domain.NewValidationError("credential hash can't be empty")
	}
	return nil
}

func (s *AccountService) fail(ctx context.Context, login string) {
	if err := s.throttle.Fail(ctx, login); err != nil {
		s.log.Warn().Err(err).Str("login", login).Msg("failed to count login failure")
	}
}

func (s *AccountService) record(login string, action domain.AuditAction, err error) {
	s.audit.Record(domain.AuditEvent{
		Login:   login,
		Action:  action,
		Outcome: domain.Outcome(err),
		At:      time.Now().UTC(),
	})
}

type noThrottle struct{}

func (noThrottle) Blocked(context.Context, string) (bool, error) { return false, nil }
func (noThrottle) Fail(context.Context, string) error            { return nil }
func (noThrottle) Reset(context.Context, string) error           { return nil }

type noAudit struct{}

func (noAudit) Record(domain.AuditEvent) {}
