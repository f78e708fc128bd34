package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/api/metrics"
	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// ActorKey is the echo context key holding the resolved *domain.Actor.
const ActorKey = "actor"

// Authenticate resolves the session credential into a live actor and injects
// it into the context. The Authorization header wins over the session cookie.
// Every failure surfaces as a domain auth error so the error handler renders
// the same denial whatever the cause.
func Authenticate(resolver ports.SessionResolver, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := resolver.Resolve(c.Request().Context(), credential(c, cookieName))
			if err != nil {
				metrics.AuthDenialsTotal.WithLabelValues("session").Inc()
				log.Debug().Err(err).
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Msg("session rejected")
				return err
			}

			c.Set(ActorKey, actor)
			return next(c)
		}
	}
}

// credential returns the bearer token from the Authorization header, or the
// session cookie value when no header is sent. A header that is not a bearer
// token yields "".
func credential(c echo.Context, cookieName string) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookieName == "" {
		return ""
	}
	if ck, err := c.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}

// Actor returns the actor injected by Authenticate, or nil.
func Actor(c echo.Context) *domain.Actor {
	actor, _ := c.Get(ActorKey).(*domain.Actor)
	return actor
}
