package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/api/metrics"
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// Require lets the request through when the authenticated actor's kind is in
// kinds. When scopeParam is non-empty, the path parameter of that name is the
// studio the route is confined to.
func Require(guard ports.Guard, kinds domain.KindSet, scopeParam string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var scope string
			if scopeParam != "" {
				scope = c.Param(scopeParam)
			}

			if err := guard.Authorize(Actor(c), kinds, scope); err != nil {
				metrics.AuthDenialsTotal.WithLabelValues("guard").Inc()
				log.Info().Err(err).
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Msg("request denied")
				return err
			}
			return next(c)
		}
	}
}
