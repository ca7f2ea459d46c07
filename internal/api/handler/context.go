package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/accounts-api/internal/api/middleware"
	"github.com/usermgmt/accounts-api/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// fails fast with 401 when they are missing, before any service call.
func ctxClaims(c echo.Context) (login string, role domain.Role, err error) {
	login, _ = c.Get(middleware.CtxLogin).(string)
	role, _ = c.Get(middleware.CtxRole).(domain.Role)
	if login == "" || !role.Valid() {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return login, role, nil
}

// bindQueryAndBody fills req from the query string, then lets the body
// override it. Echo's Bind ignores the query on POST and PUT.
func bindQueryAndBody(c echo.Context, req any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		return err
	}
	return c.Bind(req)
}
