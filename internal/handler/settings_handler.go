package handler

import (
	"net/http"

	"contractbuilder/internal/middleware"
	"contractbuilder/internal/model"
	"contractbuilder/internal/service"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

const logoFormField = "logo"

type SettingsHandler struct {
	settingsService service.SettingsService
	auth            *middleware.Authenticator
}

func NewSettingsHandler(settingsService service.SettingsService, auth *middleware.Authenticator) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, auth: auth}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/settings")
	{
		settings.GET("/public", h.GetPublicSettings)

		admin := settings.Group("", h.auth.RequireRole(model.RoleAdmin))
		admin.GET("", h.GetSettings)
		admin.PUT("", h.UpdateSettings)
		admin.POST("/upload-logo", h.UploadLogo)
	}
}

// GetSettings handles GET /api/settings
// @Summary      Get application settings
// @Description  Secrets are returned masked
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SettingsResponse}
// @Router       /api/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// GetPublicSettings handles GET /api/settings/public
// @Summary      Public branding settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  response.Response{data=service.PublicSettingsResponse}
// @Router       /api/settings/public [get]
func (h *SettingsHandler) GetPublicSettings(c *gin.Context) {
	settings, err := h.settingsService.Public(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// UpdateSettings handles PUT /api/settings
// @Summary      Update application settings
// @Description  Omitted fields are unchanged. Sending the mask for a secret keeps the stored value
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateSettingsRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.SettingsResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// UploadLogo handles POST /api/settings/upload-logo
// @Summary      Upload company logo
// @Tags         settings
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        logo  formData  file  true  "Logo image"
// @Success      200   {object}  response.Response{data=service.SettingsResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/settings/upload-logo [post]
func (h *SettingsHandler) UploadLogo(c *gin.Context) {
	upload, file, ok := formFile(c, logoFormField)
	if !ok {
		return
	}
	defer file.Close()

	settings, err := h.settingsService.UploadLogo(c.Request.Context(), middleware.Actor(c), upload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}
