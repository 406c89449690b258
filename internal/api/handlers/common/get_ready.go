package common

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-remote-wallet/internal/api"
	"github/chapool/go-remote-wallet/internal/util"
)

// StatusNotReady is returned by the management endpoints when a dependency is missing or broken.
const StatusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// Readiness check
// This endpoint returns 200 when our Service is ready to serve traffic (i.e. respond to queries).
// Does read-only probing apart from the general server ready state.
// Note that /-/ready is typically public (and not shielded by a mgmt-secret), we thus prevent information leakage here and only return `"Ready."`.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(StatusNotReady, "Not ready.")
		}

		if s.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.ReadinessTimeout)
			defer cancel()

			if err := s.DB.PingContext(ctx); err != nil {
				util.LogFromEchoContext(c).Warn().Err(err).Msg("Readiness probe failed to ping database")
				return c.String(StatusNotReady, "Not ready.")
			}
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
