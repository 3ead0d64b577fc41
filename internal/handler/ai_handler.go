package handler

import (
	"net/http"

	"contractbuilder/internal/middleware"
	"contractbuilder/internal/model"
	"contractbuilder/internal/service"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	aiService service.AIService
	auth      *middleware.Authenticator
}

func NewAIHandler(aiService service.AIService, auth *middleware.Authenticator) *AIHandler {
	return &AIHandler{aiService: aiService, auth: auth}
}

func (h *AIHandler) RegisterRoutes(router *gin.RouterGroup) {
	generate := router.Group("/ai/generate", h.auth.RequireRole(model.RoleAdmin))
	{
		generate.POST("/template", h.GenerateTemplate)
		generate.POST("/contract", h.GenerateContract)
	}
	router.POST("/settings/ai/generate-content", h.auth.RequireRole(model.RoleAdmin), h.GenerateContent)
}

// GenerateTemplate handles POST /api/ai/generate/template
// @Summary      Draft a template with AI
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.GenerateTemplateRequest  true  "Template brief"
// @Success      200      {object}  response.Response{data=service.GeneratedContentResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/ai/generate/template [post]
func (h *AIHandler) GenerateTemplate(c *gin.Context) {
	var req service.GenerateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.aiService.GenerateTemplate(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// GenerateContract handles POST /api/ai/generate/contract
// @Summary      Draft contract content with AI
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.GenerateContractRequest  true  "Contract brief"
// @Success      200      {object}  response.Response{data=service.GeneratedContentResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/ai/generate/contract [post]
func (h *AIHandler) GenerateContract(c *gin.Context) {
	var req service.GenerateContractRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.aiService.GenerateContract(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// GenerateContent handles POST /api/settings/ai/generate-content
// @Summary      Generate content from a free-form prompt
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.GenerateContentRequest  true  "Prompt"
// @Success      200      {object}  response.Response{data=service.GeneratedContentResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/settings/ai/generate-content [post]
func (h *AIHandler) GenerateContent(c *gin.Context) {
	var req service.GenerateContentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.aiService.GenerateContent(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
