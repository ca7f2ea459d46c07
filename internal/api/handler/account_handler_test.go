package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
	"github.com/usermgmt/accounts-api/internal/core/service"
)

type stubAccountManager struct {
	createFn         func(ctx context.Context, role domain.Role, login, password string) (int64, error)
	authenticateFn   func(ctx context.Context, login, password string) (int64, error)
	loadFn           func(ctx context.Context, login string) (*domain.Account, error)
	listFn           func(ctx context.Context) ([]domain.Account, error)
	deleteFn         func(ctx context.Context, login string) error
	changePasswordFn func(ctx context.Context, account *domain.Account, oldPassword, newPassword string) error
}

func (s *stubAccountManager) Create(ctx context.Context, role domain.Role, login, password string) (int64, error) {
	return s.createFn(ctx, role, login, password)
}

func (s *stubAccountManager) Authenticate(ctx context.Context, login, password string) (int64, error) {
	return s.authenticateFn(ctx, login, password)
}

func (s *stubAccountManager) Load(ctx context.Context, login string) (*domain.Account, error) {
	return s.loadFn(ctx, login)
}

func (s *stubAccountManager) List(ctx context.Context) ([]domain.Account, error) {
	return s.listFn(ctx)
}

func (s *stubAccountManager) Delete(ctx context.Context, login string) error {
	return s.deleteFn(ctx, login)
}

func (s *stubAccountManager) ChangePassword(ctx context.Context, account *domain.Account, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, account, oldPassword, newPassword)
}

func (s *stubAccountManager) Export(context.Context) ([]domain.Account, error) {
	return nil, errors.New("not used")
}

func (s *stubAccountManager) Import(context.Context, []domain.Account) (ports.ImportResult, error) {
	return ports.ImportResult{}, errors.New("not used")
}

func newTestTokens(t *testing.T) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func newContext(method, target, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

// ---------------------------------------------------------------------------
// Token
// ---------------------------------------------------------------------------

func TestAccountHandler_Token_Success(t *testing.T) {
	stub := &stubAccountManager{
		authenticateFn: func(_ context.Context, login, password string) (int64, error) {
			if login != "alice1" || password != "Pass1" {
				t.Fatalf("unexpected args: %s %s", login, password)
			}
			return 1, nil
		},
		loadFn: func(_ context.Context, login string) (*domain.Account, error) {
			return &domain.Account{ID: 1, Role: domain.RoleUser, Login: login}, nil
		},
	}
	tokens := newTestTokens(t)
	h := NewAccountHandler(stub, tokens)

	form := url.Values{"username": {"alice1"}, "password": {"Pass1"}}
	c, rec := newContext(http.MethodPost, "/users/token", echo.MIMEApplicationForm, form.Encode())
	if err := h.Token(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp tokenResponse
	decode(t, rec, &resp)
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token type %q", resp.TokenType)
	}
	claims, err := tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != "alice1" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAccountHandler_Token_SameResponseForUnknownLoginAndWrongPassword(t *testing.T) {
	var messages []string
	for _, authErr := range []error{domain.ErrNotFound, domain.ErrInvalidCredential} {
		stub := &stubAccountManager{
			authenticateFn: func(context.Context, string, string) (int64, error) { return 0, authErr },
		}
		h := NewAccountHandler(stub, newTestTokens(t))

		form := url.Values{"username": {"bob"}, "password": {"x"}}
		c, _ := newContext(http.MethodPost, "/users/token", echo.MIMEApplicationForm, form.Encode())
		err := h.Token(c)
		if code := httpCode(t, err); code != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", authErr, code)
		}
		var he *echo.HTTPError
		errors.As(err, &he)
		messages = append(messages, he.Message.(string))
	}
	if messages[0] != messages[1] {
		t.Fatalf("responses differ: %q vs %q", messages[0], messages[1])
	}
}

func TestAccountHandler_Token_PassesThroughOtherErrors(t *testing.T) {
	stub := &stubAccountManager{
		authenticateFn: func(context.Context, string, string) (int64, error) { return 0, domain.ErrTooManyAttempts },
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	form := url.Values{"username": {"bob"}, "password": {"x"}}
	c, _ := newContext(http.MethodPost, "/users/token", echo.MIMEApplicationForm, form.Encode())
	if err := h.Token(c); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAccountHandler_Token_MissingFields(t *testing.T) {
	h := NewAccountHandler(&stubAccountManager{}, newTestTokens(t))
	c, _ := newContext(http.MethodPost, "/users/token", echo.MIMEApplicationForm, "username=bob")
	if code := httpCode(t, h.Token(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestAccountHandler_Create_Success(t *testing.T) {
	stub := &stubAccountManager{
		createFn: func(_ context.Context, role domain.Role, login, password string) (int64, error) {
			if role != domain.RoleUser || login != "alice1" || password != "Pass1" {
				t.Fatalf("unexpected args: %s %s %s", role, login, password)
			}
			return 1, nil
		},
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, rec := newContext(http.MethodPost, "/users/create", echo.MIMEApplicationJSON,
		`{"role":"user","login":"alice1","password":"Pass1"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp messageResponse
	decode(t, rec, &resp)
	if resp.Status != "success" || resp.Message != "User alice1 created successfully" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_Errors(t *testing.T) {
	for _, want := range []error{domain.NewValidationError("incorrect role"), domain.ErrDuplicateLogin} {
		stub := &stubAccountManager{
			createFn: func(context.Context, domain.Role, string, string) (int64, error) { return 0, want },
		}
		h := NewAccountHandler(stub, newTestTokens(t))

		c, _ := newContext(http.MethodPost, "/users/create", echo.MIMEApplicationJSON, `{"role":"x","login":"a","password":"b"}`)
		if err := h.Create(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAccountHandler_Create_BadPayload(t *testing.T) {
	h := NewAccountHandler(&stubAccountManager{}, newTestTokens(t))
	c, _ := newContext(http.MethodPost, "/users/create", echo.MIMEApplicationJSON, `{"role":`)
	if code := httpCode(t, h.Create(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

// ---------------------------------------------------------------------------
// Delete / List / Get
// ---------------------------------------------------------------------------

func TestAccountHandler_Delete(t *testing.T) {
	var deleted string
	stub := &stubAccountManager{
		deleteFn: func(_ context.Context, login string) error {
			if login == "ghost" {
				return domain.ErrNotFound
			}
			deleted = login
			return nil
		},
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, rec := newContext(http.MethodDelete, "/users/delete?login=bob", "", "")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || deleted != "bob" {
		t.Fatalf("expected bob deleted with 200, got %d %q", rec.Code, deleted)
	}

	c, _ = newContext(http.MethodDelete, "/users/delete?login=ghost", "", "")
	if err := h.Delete(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	c, _ = newContext(http.MethodDelete, "/users/delete", "", "")
	if code := httpCode(t, h.Delete(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without login, got %d", code)
	}
}

func TestAccountHandler_List_OmitsHashes(t *testing.T) {
	stub := &stubAccountManager{
		listFn: func(context.Context) ([]domain.Account, error) {
			return []domain.Account{
				{ID: 1, Role: domain.RoleAdmin, Login: "root", CredentialHash: "secret-hash"},
				{ID: 2, Role: domain.RoleUser, Login: "bob", CredentialHash: "secret-hash"},
			}, nil
		},
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, rec := newContext(http.MethodGet, "/users/", "", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") {
		t.Fatalf("credential hash leaked: %s", rec.Body.String())
	}

	var resp accountListResponse
	decode(t, rec, &resp)
	if resp.Status != "success" || len(resp.Data) != 2 || resp.Data[1] != (accountSummary{ID: 2, Role: "user", Login: "bob"}) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_List_Empty(t *testing.T) {
	stub := &stubAccountManager{listFn: func(context.Context) ([]domain.Account, error) { return nil, nil }}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, rec := newContext(http.MethodGet, "/users/", "", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty data array, got %s", rec.Body.String())
	}
}

func TestAccountHandler_Get(t *testing.T) {
	stub := &stubAccountManager{
		loadFn: func(_ context.Context, login string) (*domain.Account, error) {
			if login != "bob" {
				return nil, domain.ErrNotFound
			}
			return &domain.Account{ID: 2, Role: domain.RoleUser, Login: "bob", CredentialHash: "h"}, nil
		},
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, rec := newContext(http.MethodGet, "/users/bob", "", "")
	c.SetParamNames("login")
	c.SetParamValues("bob")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp accountResponse
	decode(t, rec, &resp)
	if resp.Data != (accountProfile{Role: "user", Login: "bob"}) {
		t.Fatalf("unexpected response %+v", resp)
	}

	c, _ = newContext(http.MethodGet, "/users/ghost", "", "")
	c.SetParamNames("login")
	c.SetParamValues("ghost")
	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ChangePassword
// ---------------------------------------------------------------------------

func TestAccountHandler_ChangePassword(t *testing.T) {
	account := &domain.Account{ID: 2, Role: domain.RoleUser, Login: "bob", CredentialHash: "h"}
	stub := &stubAccountManager{
		loadFn: func(_ context.Context, login string) (*domain.Account, error) {
			if login != "bob" {
				t.Fatalf("expected account from token subject, got %q", login)
			}
			return account, nil
		},
		changePasswordFn: func(_ context.Context, a *domain.Account, oldPassword, newPassword string) error {
			if a != account || oldPassword != "old" || newPassword != "new" {
				t.Fatalf("unexpected args")
			}
			return nil
		},
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, rec := newContext(http.MethodPut, "/users/change-password", echo.MIMEApplicationJSON,
		`{"old_password":"old","new_password":"new"}`)
	c.Set("login", "bob")
	c.Set("role", domain.RoleUser)
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_ChangePassword_WrongOldIs400(t *testing.T) {
	stub := &stubAccountManager{
		loadFn: func(context.Context, string) (*domain.Account, error) {
			return &domain.Account{Login: "bob", Role: domain.RoleUser}, nil
		},
		changePasswordFn: func(context.Context, *domain.Account, string, string) error {
			return domain.ErrInvalidCredential
		},
	}
	h := NewAccountHandler(stub, newTestTokens(t))

	c, _ := newContext(http.MethodPut, "/users/change-password", echo.MIMEApplicationJSON,
		`{"old_password":"bad","new_password":"new"}`)
	c.Set("login", "bob")
	c.Set("role", domain.RoleUser)
	if code := httpCode(t, h.ChangePassword(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAccountHandler_ChangePassword_RequiresClaims(t *testing.T) {
	h := NewAccountHandler(&stubAccountManager{}, newTestTokens(t))
	c, _ := newContext(http.MethodPut, "/users/change-password", echo.MIMEApplicationJSON, `{}`)
	if code := httpCode(t, h.ChangePassword(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}
