package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// TenantHandler serves the routes under /v1/studios/:studio_id. The guard
// has already confined the caller to studio_id, so every service call is
// scoped by it.
type TenantHandler struct {
	tenants   ports.TenantService
	lifecycle ports.LifecycleService
}

func NewTenantHandler(tenants ports.TenantService, lifecycle ports.LifecycleService) *TenantHandler {
	return &TenantHandler{tenants: tenants, lifecycle: lifecycle}
}

// GetStudio handles GET /v1/studios/:studio_id.
//
// @Summary      Get a studio
// @Tags         studios
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string  true  "Studio ID"
// @Success      200        {object}  domain.Studio
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /v1/studios/{studio_id} [get]
func (h *TenantHandler) GetStudio(c echo.Context) error {
	studio, err := h.tenants.GetStudio(c.Request().Context(), c.Param("studio_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, studio)
}

// UpdateStudio handles PUT /v1/studios/:studio_id.
//
// @Summary      Replace the studio profile
// @Tags         studios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string               true  "Studio ID"
// @Param        body       body      updateStudioRequest  true  "Profile"
// @Success      200        {object}  domain.Studio
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Router       /v1/studios/{studio_id} [put]
func (h *TenantHandler) UpdateStudio(c echo.Context) error {
	var req updateStudioRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	studio, err := h.tenants.UpdateStudio(c.Request().Context(), ports.UpdateStudioInput{
		StudioID: c.Param("studio_id"),
		Name:     req.Name,
		Logo:     req.Logo.toDomain(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, studio)
}

// CreateClient handles POST /v1/studios/:studio_id/clients.
//
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string               true  "Studio ID"
// @Param        body       body      createClientRequest  true  "Client details"
// @Success      201        {object}  domain.Client
// @Failure      403        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Router       /v1/studios/{studio_id}/clients [post]
func (h *TenantHandler) CreateClient(c echo.Context) error {
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.tenants.CreateClient(c.Request().Context(), ports.CreateClientInput{
		StudioID: c.Param("studio_id"),
		Name:     req.Name,
		Email:    req.Email,
		Avatar:   req.Avatar.toDomain(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

// ListClients handles GET /v1/studios/:studio_id/clients.
//
// @Summary      List clients of a studio
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path  string  true  "Studio ID"
// @Success      200
// @Failure      403  {object}  map[string]string
// @Router       /v1/studios/{studio_id}/clients [get]
func (h *TenantHandler) ListClients(c echo.Context) error {
	clients, err := h.tenants.ListClients(c.Request().Context(), c.Param("studio_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(clients))
}

// GetClient handles GET /v1/studios/:studio_id/clients/:client_id.
//
// @Summary      Get a client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string  true  "Studio ID"
// @Param        client_id  path      string  true  "Client ID"
// @Success      200        {object}  domain.Client
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /v1/studios/{studio_id}/clients/{client_id} [get]
func (h *TenantHandler) GetClient(c echo.Context) error {
	client, err := h.tenants.GetClient(c.Request().Context(), c.Param("studio_id"), c.Param("client_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /v1/studios/:studio_id/clients/:client_id.
// Deleting a client that is already gone, or that belongs to another studio,
// succeeds with deleted=false.
//
// @Summary      Delete a client and everything it owns
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string  true  "Studio ID"
// @Param        client_id  path      string  true  "Client ID"
// @Success      200        {object}  deleteResponse
// @Failure      403        {object}  map[string]string
// @Failure      503        {object}  map[string]string
// @Router       /v1/studios/{studio_id}/clients/{client_id} [delete]
func (h *TenantHandler) DeleteClient(c echo.Context) error {
	id := c.Param("client_id")
	res, err := h.lifecycle.DeleteClient(c.Request().Context(), c.Param("studio_id"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeleteResponse(domain.RootClient, id, res))
}

// CreateProject handles POST /v1/studios/:studio_id/clients/:client_id/projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string                true  "Studio ID"
// @Param        client_id  path      string                true  "Client ID"
// @Param        body       body      createProjectRequest  true  "Project details"
// @Success      201        {object}  domain.Project
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Router       /v1/studios/{studio_id}/clients/{client_id}/projects [post]
func (h *TenantHandler) CreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	project, err := h.tenants.CreateProject(c.Request().Context(), ports.CreateProjectInput{
		StudioID: c.Param("studio_id"),
		ClientID: c.Param("client_id"),
		Title:    req.Title,
		Hero:     req.Hero.toDomain(),
		Photos:   mediaList(req.Photos),
		Videos:   mediaList(req.Videos),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

// ListProjects handles GET /v1/studios/:studio_id/clients/:client_id/projects.
//
// @Summary      List projects of a client
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path  string  true  "Studio ID"
// @Param        client_id  path  string  true  "Client ID"
// @Success      200
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/studios/{studio_id}/clients/{client_id}/projects [get]
func (h *TenantHandler) ListProjects(c echo.Context) error {
	projects, err := h.tenants.ListProjects(c.Request().Context(), c.Param("studio_id"), c.Param("client_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(projects))
}

// GetProject handles GET /v1/studios/:studio_id/projects/:project_id.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id   path      string  true  "Studio ID"
// @Param        project_id  path      string  true  "Project ID"
// @Success      200         {object}  domain.Project
// @Failure      403         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Router       /v1/studios/{studio_id}/projects/{project_id} [get]
func (h *TenantHandler) GetProject(c echo.Context) error {
	project, err := h.tenants.GetProject(c.Request().Context(), c.Param("studio_id"), c.Param("project_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /v1/studios/:studio_id/projects/:project_id.
//
// @Summary      Delete a project and its sections
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id   path      string  true  "Studio ID"
// @Param        project_id  path      string  true  "Project ID"
// @Success      200         {object}  deleteResponse
// @Failure      403         {object}  map[string]string
// @Failure      503         {object}  map[string]string
// @Router       /v1/studios/{studio_id}/projects/{project_id} [delete]
func (h *TenantHandler) DeleteProject(c echo.Context) error {
	id := c.Param("project_id")
	res, err := h.lifecycle.DeleteProject(c.Request().Context(), c.Param("studio_id"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeleteResponse(domain.RootProject, id, res))
}

// CreateSection handles POST /v1/studios/:studio_id/projects/:project_id/sections.
//
// @Summary      Create a section
// @Tags         sections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id   path      string                true  "Studio ID"
// @Param        project_id  path      string                true  "Project ID"
// @Param        body        body      createSectionRequest  true  "Section details"
// @Success      201         {object}  domain.Section
// @Failure      403         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Failure      422         {object}  map[string]string
// @Router       /v1/studios/{studio_id}/projects/{project_id}/sections [post]
func (h *TenantHandler) CreateSection(c echo.Context) error {
	var req createSectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	section, err := h.tenants.CreateSection(c.Request().Context(), ports.CreateSectionInput{
		StudioID:  c.Param("studio_id"),
		ProjectID: c.Param("project_id"),
		Title:     req.Title,
		Position:  req.Position,
		Media:     mediaList(req.Media),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, section)
}

// ListSections handles GET /v1/studios/:studio_id/projects/:project_id/sections.
//
// @Summary      List sections of a project
// @Tags         sections
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id   path  string  true  "Studio ID"
// @Param        project_id  path  string  true  "Project ID"
// @Success      200
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/studios/{studio_id}/projects/{project_id}/sections [get]
func (h *TenantHandler) ListSections(c echo.Context) error {
	sections, err := h.tenants.ListSections(c.Request().Context(), c.Param("studio_id"), c.Param("project_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(sections))
}
