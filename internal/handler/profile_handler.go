package handler

import (
	"net/http"

	"contractbuilder/internal/middleware"
	"contractbuilder/internal/model"
	"contractbuilder/internal/service"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

const avatarFormField = "photo"

type ProfileHandler struct {
	profileService service.ProfileService
	authService    service.AuthService
	auth           *middleware.Authenticator
}

func NewProfileHandler(profileService service.ProfileService, authService service.AuthService, auth *middleware.Authenticator) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, authService: authService, auth: auth}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile", h.auth.RequireRole(model.RoleAdmin, model.RoleProvider))
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.POST("/change-password", h.ChangePassword)
		profile.POST("/upload-avatar", h.UploadAvatar)
		profile.DELETE("/avatar", h.DeleteAvatar)
	}
}

// GetProfile handles GET /api/profile
// @Summary      Get my profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Router       /api/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.profileService.Get(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateProfile handles PUT /api/profile
// @Summary      Update my profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateProfileRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.profileService.Update(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ChangePassword handles POST /api/profile/change-password
// @Summary      Change my password
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ChangePasswordRequest  true  "Current and new password"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/profile/change-password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), middleware.Actor(c), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Password changed successfully"}))
}

// UploadAvatar handles POST /api/profile/upload-avatar
// @Summary      Upload my avatar
// @Description  Multipart image upload (jpeg, png, gif or webp, at most 5 MB) in form field "photo"
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        photo  formData  file  true  "Avatar image"
// @Success      200    {object}  response.Response{data=service.UserResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/profile/upload-avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	upload, file, ok := formFile(c, avatarFormField)
	if !ok {
		return
	}
	defer file.Close()

	user, err := h.profileService.UploadAvatar(c.Request.Context(), middleware.Actor(c), upload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteAvatar handles DELETE /api/profile/avatar
// @Summary      Remove my avatar
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Router       /api/profile/avatar [delete]
func (h *ProfileHandler) DeleteAvatar(c *gin.Context) {
	user, err := h.profileService.DeleteAvatar(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
