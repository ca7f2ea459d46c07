package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/accounts-api/internal/api/metrics"
	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
)

const (
	msgBadLogin       = "incorrect login or password"
	msgBadOldPassword = "incorrect old password"
)

type AccountHandler struct {
	accounts ports.AccountManager
	tokens   ports.TokenService
}

func NewAccountHandler(accounts ports.AccountManager, tokens ports.TokenService) *AccountHandler {
	return &AccountHandler{accounts: accounts, tokens: tokens}
}

// Token exchanges a login and password for a bearer token.
//
// @Summary      Issue an access token
// @Tags         users
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Login"
// @Param        password  formData  string  true  "Password"
// @Success      200  {object}  tokenResponse
// @Failure      400  {object}  errorResponse
// @Failure      429  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /users/token [post]
func (h *AccountHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	_, err := h.accounts.Authenticate(ctx, req.Username, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues(domain.Outcome(err)).Inc()
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidCredential) {
		return echo.NewHTTPError(http.StatusBadRequest, msgBadLogin)
	}
	if err != nil {
		return err
	}

	account, err := h.accounts.Load(ctx, req.Username)
	if errors.Is(err, domain.ErrNotFound) {
		// deleted between the two calls
		return echo.NewHTTPError(http.StatusBadRequest, msgBadLogin)
	}
	if err != nil {
		return err
	}

	token, err := h.tokens.Issue(account.Login, account.Role)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	metrics.TokensIssuedTotal.Inc()

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Create registers a new account.
//
// @Summary      Create an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        role      query     string                false  "Role"
// @Param        login     query     string                false  "Login"
// @Param        password  query     string                false  "Password"
// @Param        body      body      createAccountRequest  false  "Role, login and password"
// @Success      200       {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/create [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req createAccountRequest
	if err := bindQueryAndBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	role := domain.Role(req.Role)
	if _, err := h.accounts.Create(c.Request().Context(), role, req.Login, req.Password); err != nil {
		return err
	}
	metrics.AccountsCreatedTotal.WithLabelValues(string(role)).Inc()

	return c.JSON(http.StatusOK, messageResponse{
		Status:  "success",
		Message: fmt.Sprintf("User %s created successfully", req.Login),
	})
}

// Delete removes an account. Admin only.
//
// @Summary      Delete an account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        login  query     string  true  "Login to delete"
// @Success      200    {object}  messageResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /users/delete [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.Delete(c.Request().Context(), req.Login); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		Status:  "success",
		Message: fmt.Sprintf("User %s deleted successfully", req.Login),
	})
}

// List returns every account without credentials.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Success      200  {object}  accountListResponse
// @Failure      503  {object}  errorResponse
// @Router       /users/ [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.accounts.List(c.Request().Context())
	if err != nil {
		return err
	}

	data := make([]accountSummary, 0, len(accounts))
	for _, a := range accounts {
		data = append(data, accountSummary{ID: a.ID, Role: string(a.Role), Login: a.Login})
	}
	return c.JSON(http.StatusOK, accountListResponse{Status: "success", Data: data})
}

// Get returns the role and login of one account.
//
// @Summary      Get an account
// @Tags         users
// @Produce      json
// @Param        login  path      string  true  "Login"
// @Success      200    {object}  accountResponse
// @Failure      404    {object}  errorResponse
// @Router       /users/{login} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.accounts.Load(c.Request().Context(), c.Param("login"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{
		Status: "success",
		Data:   accountProfile{Role: string(account.Role), Login: account.Login},
	})
}

// ChangePassword replaces the password of the authenticated account.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        old_password  query  string                 false  "Old password"
// @Param        new_password  query  string                 false  "New password"
// @Param        body          body   changePasswordRequest  false  "Old and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/change-password [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	login, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindQueryAndBody(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	account, err := h.accounts.Load(ctx, login)
	if err != nil {
		return err
	}

	err = h.accounts.ChangePassword(ctx, account, req.OldPassword, req.NewPassword)
	if errors.Is(err, domain.ErrInvalidCredential) {
		return echo.NewHTTPError(http.StatusBadRequest, msgBadOldPassword)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Status: "success", Message: "Password changed successfully"})
}
