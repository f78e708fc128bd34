package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// CookieConfig shapes the session cookie set on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

type registerRequest struct {
	Login       string `json:"login" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=120"`
}

type loginRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=end_user studio master_admin"`
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	Current string `json:"current_password" validate:"required"`
	Next    string `json:"new_password" validate:"required,min=8,max=72"`
}

type authResponse struct {
	Token     string        `json:"token,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Actor     *domain.Actor `json:"actor,omitempty"`
}

// Register creates a new end-user account.
//
// @Summary      Register an end user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	actor, err := h.authService.RegisterEndUser(c.Request().Context(), req.Login, req.Password, req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{Actor: actor})
}

// Login authenticates an actor of the given kind, returns a token and sets
// the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	kind, err := domain.ParseActorKind(req.Kind)
	if err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), kind, req.Login, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.sessionCookie(res.Token, int(time.Until(res.ExpiresAt).Seconds())))
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, ExpiresAt: &res.ExpiresAt, Actor: res.Actor})
}

// Logout clears the session cookie. Issued tokens stay valid until expiry.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated actor.
//
// @Summary      Current actor
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Actor
// @Failure      403  {object}  map[string]string
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, actor)
}

// ChangePassword replaces the authenticated actor's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /v1/me/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), actor, req.Current, req.Next); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
