package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/go-remote-wallet/internal/util"
)

// Logger attaches a request-scoped zerolog logger carrying the request id to the request context
// and logs every finished request at level.
func Logger(level zerolog.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			id := res.Header().Get(echo.HeaderXRequestID)
			logger := log.With().
				Str("id", id).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			ctx := context.WithValue(req.Context(), util.CTXKeyRequestID, id)
			c.SetRequest(req.WithContext(logger.WithContext(ctx)))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			logger.WithLevel(level).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start)).
				Msg("Request")

			return nil
		}
	}
}
