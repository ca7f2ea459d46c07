package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/service"
)

func newTokens(t *testing.T) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService("secret", time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func runAuth(t *testing.T, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Auth(newTokens(t))(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func mustNotCall(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	signed, err := newTokens(t).Issue("alice1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	called := false
	rec := runAuth(t, "Bearer "+signed, func(c echo.Context) error {
		called = true
		if c.Get("login") != "alice1" {
			t.Fatalf("login not set")
		}
		if c.Get("role") != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	signed, _ := newTokens(t).Issue("bob", domain.RoleUser)
	rec := runAuth(t, "bearer "+signed, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec := runAuth(t, "", mustNotCall(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header")
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec := runAuth(t, "Token abc", mustNotCall(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec := runAuth(t, "Bearer not-a-token", mustNotCall(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ForeignSecret(t *testing.T) {
	other, err := service.NewTokenService("other-secret", time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	signed, _ := other.Issue("mallory", domain.RoleAdmin)

	rec := runAuth(t, "Bearer "+signed, mustNotCall(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
