package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/usermgmt/accounts-api/docs"
	"github.com/usermgmt/accounts-api/internal/api/handler"
	"github.com/usermgmt/accounts-api/internal/api/middleware"
	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
)

const requestTimeout = 30 * time.Second

// Deps are the collaborators the HTTP boundary is built from.
type Deps struct {
	Accounts ports.AccountManager
	Tokens   ports.TokenService
	Store    handler.Pinger
	// Redis is optional; nil drops it from the readiness probe.
	Redis *redis.Client
	Log   zerolog.Logger
	// Registry defaults to the global Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.ContextTimeout(requestTimeout))

	promConfig := echoprometheus.MiddlewareConfig{Subsystem: "accounts_http"}
	promHandler := echoprometheus.NewHandler()
	if d.Registry != nil {
		promConfig.Registerer = d.Registry
		promHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry})
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig))

	// --- Dependencies ---
	accountHandler := handler.NewAccountHandler(d.Accounts, d.Tokens)
	authMiddleware := middleware.Auth(d.Tokens)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Account routes ---
	users := e.Group("/users")
	users.POST("/token", accountHandler.Token)
	users.POST("/create", accountHandler.Create)
	users.DELETE("/delete", accountHandler.Delete, authMiddleware, adminOnly)
	users.PUT("/change-password", accountHandler.ChangePassword, authMiddleware)
	users.GET("/", accountHandler.List)
	users.GET("/:login", accountHandler.Get)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Store, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", promHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
