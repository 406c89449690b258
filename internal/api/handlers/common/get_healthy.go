package common

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github/chapool/go-remote-wallet/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Liveness check
// This endpoint reports the state of the local components. It never calls the remote signer or
// the relay, as doing so would spend cycles on every probe.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder
		healthy := true

		if !s.Ready() {
			healthy = false
			b.WriteString("server: not initialized\n")
		}

		if s.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.LivenessTimeout)
			defer cancel()

			if err := s.DB.PingContext(ctx); err != nil {
				healthy = false
				fmt.Fprintf(&b, "database: %v\n", err)
			} else {
				b.WriteString("database: ok\n")
			}
		}

		if s.Relay != nil {
			fmt.Fprintf(&b, "relay cycle balance: %s\n", s.Relay.Budget().Balance().Dec())
		}

		if !healthy {
			return c.String(StatusNotReady, b.String())
		}

		b.WriteString("Healthy.")
		return c.String(http.StatusOK, b.String())
	}
}
