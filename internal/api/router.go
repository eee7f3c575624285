package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/workshift/shift-tracker/docs"
	"github.com/workshift/shift-tracker/internal/api/handler"
	"github.com/workshift/shift-tracker/internal/api/middleware"
	"github.com/workshift/shift-tracker/internal/core/domain"
	"github.com/workshift/shift-tracker/internal/core/ports"
	"github.com/workshift/shift-tracker/internal/metrics"
)

// Dependencies are the collaborators the HTTP adapter needs.
type Dependencies struct {
	Shifts ports.ShiftService
	// Auth may be nil when no bot token is configured; the login route is
	// then not mounted.
	Auth ports.AuthService
	// Admins decides admin access on every request, whatever role the
	// token was issued with.
	Admins    ports.AdminPolicy
	JWTSecret string
	// Checks feed /health/ready, keyed by dependency name.
	Checks map[string]handler.PingFunc
	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(metrics.Middleware())

	// --- Handlers ---
	shiftHandler := handler.NewShiftHandler(deps.Shifts)
	adminHandler := handler.NewAdminHandler(deps.Shifts)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	if deps.Auth != nil {
		e.POST("/auth/telegram", handler.NewAuthHandler(deps.Auth).TelegramLogin)
	}

	// --- Shift routes (any authenticated user) ---
	v1 := e.Group("/v1", authMiddleware)
	v1.POST("/shifts/start", shiftHandler.Start)
	v1.POST("/shifts/end", shiftHandler.End)
	v1.GET("/shifts", shiftHandler.History)

	// --- Admin routes ---
	admin := v1.Group("/admin", middleware.RBAC(deps.Admins, domain.RoleAdmin))
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/export", adminHandler.Export)
	admin.GET("/export/rows", adminHandler.ExportRows)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
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
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
