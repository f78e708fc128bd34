package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

const defaultReconcileLimit = 500

// AdminHandler serves the master-admin routes.
type AdminHandler struct {
	tenants    ports.TenantService
	auth       ports.AuthService
	lifecycle  ports.LifecycleService
	reconciler ports.Reconciler
}

func NewAdminHandler(tenants ports.TenantService, auth ports.AuthService, lifecycle ports.LifecycleService, reconciler ports.Reconciler) *AdminHandler {
	return &AdminHandler{tenants: tenants, auth: auth, lifecycle: lifecycle, reconciler: reconciler}
}

// CreateStudio handles POST /v1/admin/studios.
//
// @Summary      Create a studio with its login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createStudioRequest  true  "Studio details"
// @Success      201   {object}  domain.Studio
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/admin/studios [post]
func (h *AdminHandler) CreateStudio(c echo.Context) error {
	var req createStudioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	studio, err := h.tenants.CreateStudio(c.Request().Context(), ports.CreateStudioInput{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, studio)
}

// SetStudioActive handles PUT /v1/admin/studios/:studio_id/active.
//
// @Summary      Activate or deactivate a studio
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        studio_id  path  string            true  "Studio ID"
// @Param        body       body  setActiveRequest  true  "Desired state"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/studios/{studio_id}/active [put]
func (h *AdminHandler) SetStudioActive(c echo.Context) error {
	var req setActiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.SetActive(c.Request().Context(), domain.KindStudio, c.Param("studio_id"), *req.Active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteStudio handles DELETE /v1/admin/studios/:studio_id.
//
// @Summary      Delete a studio and everything it owns
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string  true  "Studio ID"
// @Success      200        {object}  deleteResponse
// @Failure      403        {object}  map[string]string
// @Failure      503        {object}  map[string]string
// @Router       /v1/admin/studios/{studio_id} [delete]
func (h *AdminHandler) DeleteStudio(c echo.Context) error {
	id := c.Param("studio_id")
	res, err := h.lifecycle.DeleteStudio(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeleteResponse(domain.RootStudio, id, res))
}

// Reconcile handles POST /v1/admin/cleanup/reconcile.
//
// @Summary      Retry parked storage cleanup failures
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum failures to drain"
// @Success      200    {object}  reconcileResponse
// @Failure      403    {object}  map[string]string
// @Router       /v1/admin/cleanup/reconcile [post]
func (h *AdminHandler) Reconcile(c echo.Context) error {
	limit := defaultReconcileLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	drained, report, err := h.reconciler.Reconcile(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reconcileResponse{
		Drained:      drained,
		Removed:      report.Removed,
		Missing:      report.Missing,
		Failed:       report.Failed,
		DeadLettered: report.DeadLettered,
	})
}
