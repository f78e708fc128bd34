package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// MediaHandler issues signed uploads and serves stored objects.
type MediaHandler struct {
	media ports.MediaService
}

func NewMediaHandler(media ports.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

type uploadRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
}

type uploadResponse struct {
	UploadURL string    `json:"upload_url"`
	ObjectURL string    `json:"object_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type storedResponse struct {
	URL string `json:"url"`
}

// RequestUpload handles POST /v1/studios/:studio_id/media/uploads.
//
// @Summary      Get a signed upload URL
// @Tags         media
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        studio_id  path      string         true  "Studio ID"
// @Param        body       body      uploadRequest  true  "File to upload"
// @Success      201        {object}  uploadResponse
// @Failure      403        {object}  map[string]string
// @Failure      422        {object}  map[string]string
// @Router       /v1/studios/{studio_id}/media/uploads [post]
func (h *MediaHandler) RequestUpload(c echo.Context) error {
	var req uploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	up, err := h.media.RequestUpload(c.Request().Context(), c.Param("studio_id"), req.Filename, req.ContentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{
		UploadURL: up.UploadURL,
		ObjectURL: up.ObjectURL,
		ExpiresAt: up.ExpiresAt,
	})
}

// Upload handles PUT /uploads/:studio_id/:name. The signed token in the
// query string is the only credential.
//
// @Summary      Upload an object with a signed URL
// @Tags         media
// @Accept       octet-stream
// @Produce      json
// @Param        studio_id  path      string  true  "Studio ID"
// @Param        name       path      string  true  "Object name"
// @Param        token      query     string  true  "Signed upload token"
// @Success      201        {object}  storedResponse
// @Failure      403        {object}  map[string]string
// @Failure      409        {object}  map[string]string
// @Router       /uploads/{studio_id}/{name} [put]
func (h *MediaHandler) Upload(c echo.Context) error {
	key := objectKeyParam(c)
	body := c.Request().Body
	defer body.Close()

	url, err := h.media.CompleteUpload(c.Request().Context(), key, c.QueryParam("token"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, storedResponse{URL: url})
}

// Download handles GET /media/:studio_id/:name.
//
// @Summary      Download an object
// @Tags         media
// @Param        studio_id  path  string  true  "Studio ID"
// @Param        name       path  string  true  "Object name"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /media/{studio_id}/{name} [get]
func (h *MediaHandler) Download(c echo.Context) error {
	obj, err := h.media.Open(c.Request().Context(), objectKeyParam(c))
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Stream(http.StatusOK, contentType, obj.Body)
}

func objectKeyParam(c echo.Context) string {
	return c.Param("studio_id") + "/" + c.Param("name")
}
