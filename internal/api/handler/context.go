package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumenstudio/backoffice/internal/api/middleware"
	"github.com/lumenstudio/backoffice/internal/core/domain"
)

// ctxActor returns the actor injected by the Authenticate middleware. A
// route mounted without it fails closed with the uniform denial.
func ctxActor(c echo.Context) (*domain.Actor, error) {
	actor := middleware.Actor(c)
	if actor == nil || !actor.Kind.Valid() {
		return nil, fmt.Errorf("%w: no actor in context", domain.ErrUnauthenticated)
	}
	return actor, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator over it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
