package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/usermgmt/accounts-api/internal/core/domain"
)

func TestValidate_Accepts(t *testing.T) {
	cases := []struct {
		role     domain.Role
		login    string
		password string
	}{
		{domain.RoleUser, "alice1", "Pass1"},
		{domain.RoleAdmin, "a", "x"},
		{domain.RoleUser, "dots.and*bang!", "p.a*s!s"},
		{domain.RoleUser, strings.Repeat("z", 15), strings.Repeat("9", 15)},
	}
	for _, tc := range cases {
		if err := Validate(tc.role, tc.login, tc.password); err != nil {
			t.Fatalf("Validate(%q, %q, %q) returned %v", tc.role, tc.login, tc.password, err)
		}
	}
}

func TestValidate_EmptyLogin(t *testing.T) {
	err := Validate(domain.RoleUser, "", "x")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || !strings.Contains(ve.Reason, "login") {
		t.Fatalf("expected login reason, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name     string
		role     domain.Role
		login    string
		password string
		reason   string
	}{
		{"login too long", domain.RoleUser, strings.Repeat("a", 16), "x", "login"},
		{"login with space", domain.RoleUser, "al ice", "x", "login"},
		{"login with unicode", domain.RoleUser, "алиса", "x", "login"},
		{"login with newline", domain.RoleUser, "alice\n", "x", "login"},
		{"empty password", domain.RoleUser, "alice", "", "password"},
		{"password with dash", domain.RoleUser, "alice", "pass-word", "password"},
		{"unknown role", "root", "alice", "x", "role"},
		{"empty role", "", "alice", "x", "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.role, tc.login, tc.password)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(ve.Reason, tc.reason) {
				t.Fatalf("expected reason about %s, got %q", tc.reason, ve.Reason)
			}
		})
	}
}

func TestValidateIdentity_IgnoresPassword(t *testing.T) {
	if err := ValidateIdentity(domain.RoleAdmin, "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateIdentity(domain.RoleAdmin, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
