// Package validation checks account identities and passwords against the
// syntactic rules shared by every account operation.
package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

const (
	loginReason    = "login can't be empty and can only contain letters, numbers and symbols (!, *, .), up to 15 characters"
	passwordReason = "password can't be empty and can only contain letters, numbers and symbols (!, *, .), up to 15 characters"
	roleReason     = "incorrect role"
)

// credentialPattern applies to both logins and plaintext passwords.
var credentialPattern = regexp.MustCompile(`^[a-zA-Z0-9!*.]{1,15}$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("credential", func(fl validator.FieldLevel) bool {
		return credentialPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a full signup triple. It reports the first violated rule,
// in the order login, password, role.
func Validate(role domain.Role, login, password string) error {
	if err := validateLogin(login); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return validateRole(role)
}

// ValidateIdentity checks role and login when no plaintext password is
// involved, e.g. records restored from an export.
func ValidateIdentity(role domain.Role, login string) error {
	if err := validateLogin(login); err != nil {
		return err
	}
	return validateRole(role)
}

// ValidatePassword checks a plaintext password on its own.
func ValidatePassword(password string) error {
	if validate.Var(password, "credential") != nil {
		return domain.NewValidationError(passwordReason)
	}
	return nil
}

func validateLogin(login string) error {
	if validate.Var(login, "credential") != nil {
		return domain.NewValidationError(loginReason)
	}
	return nil
}

func validateRole(role domain.Role) error {
	if validate.Var(string(role), "oneof="+strings.Join(roleNames(), " ")) != nil {
		return domain.NewValidationError(roleReason)
	}
	return nil
}

func roleNames() []string {
	names := make([]string, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		names = append(names, string(r))
	}
	return names
}
