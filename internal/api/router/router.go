package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/api/handlers"
	"github/chapool/go-remote-wallet/internal/api/httperrors"
	"github/chapool/go-remote-wallet/internal/api/middleware"
)

// Init creates the echo instance of s and attaches all routes.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())

	s.Echo.Use(echoMiddleware.Recover())
	s.Echo.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.Echo.Use(middleware.Logger(s.Config.Logger.RequestLevel))
	s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "wallet",
		Subsystem:  "http",
		Registerer: s.Metrics.Registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	s.Router = &api.Router{
		Routes:      nil,
		Root:        s.Echo.Group(""),
		Management:  s.Echo.Group("/-"),
		APIV1:       s.Echo.Group("/api/v1"),
		APIV1Wallet: s.Echo.Group("/api/v1/wallet"),
	}

	handlers.AttachAllRoutes(s)
}
