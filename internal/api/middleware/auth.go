package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/usermgmt/accounts-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	CtxLogin = "login"
	CtxRole  = "role"
)

// Auth validates the bearer token and injects its subject and role into context.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized(c, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return unauthorized(c, "invalid authorization header")
			}

			claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return unauthorized(c, "invalid token")
			}

			c.Set(CtxLogin, claims.Subject)
			c.Set(CtxRole, claims.Role)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set("WWW-Authenticate", "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
