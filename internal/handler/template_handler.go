package handler

import (
	"net/http"

	"contractbuilder/internal/middleware"
	"contractbuilder/internal/model"
	"contractbuilder/internal/service"
	"contractbuilder/pkg/pagination"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateService service.TemplateService
	auth            *middleware.Authenticator
}

func NewTemplateHandler(templateService service.TemplateService, auth *middleware.Authenticator) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, auth: auth}
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	templates := router.Group("/templates", h.auth.RequireRole(model.RoleAdmin))
	{
		templates.GET("", h.ListTemplates)
		templates.POST("", h.CreateTemplate)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
		templates.POST("/:id/render", h.RenderTemplate)
	}
}

// ListTemplates handles GET /api/templates
// @Summary      List templates
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "active or inactive"
// @Param        category  query     string  false  "Filter by category"
// @Param        search    query     string  false  "Search by name"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	page := pagination.Parse(c)
	templates, total, err := h.templateService.List(c.Request.Context(), middleware.Actor(c), service.TemplateListQuery{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page.Page,
		Limit:    page.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload("templates", templates, total, page)))
}

// GetTemplate handles GET /api/templates/:id
// @Summary      Get template
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response{data=service.TemplateResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	template, err := h.templateService.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// CreateTemplate handles POST /api/templates
// @Summary      Create template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTemplateRequest  true  "Template payload"
// @Success      201      {object}  response.Response{data=service.TemplateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req service.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, template))
}

// UpdateTemplate handles PUT /api/templates/:id
// @Summary      Update template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Template ID"
// @Param        payload  body      service.UpdateTemplateRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.TemplateResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req service.UpdateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// DeleteTemplate handles DELETE /api/templates/:id
// @Summary      Delete template
// @Description  Refused while any contract references the template
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Template ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templateService.Delete(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Template deleted successfully"}))
}

// RenderTemplate handles POST /api/templates/:id/render
// @Summary      Render template
// @Description  Substitutes {{placeholder}} markers. Unknown placeholders are left intact and listed
// @Tags         templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Template ID"
// @Param        payload  body      service.RenderTemplateRequest  true  "Variables"
// @Success      200      {object}  response.Response{data=service.RenderedTemplateResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/templates/{id}/render [post]
func (h *TemplateHandler) RenderTemplate(c *gin.Context) {
	var req service.RenderTemplateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	rendered, err := h.templateService.Render(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rendered))
}
