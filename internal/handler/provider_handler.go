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

type ProviderHandler struct {
	providerService service.ProviderService
	auth            *middleware.Authenticator
}

func NewProviderHandler(providerService service.ProviderService, auth *middleware.Authenticator) *ProviderHandler {
	return &ProviderHandler{providerService: providerService, auth: auth}
}

func (h *ProviderHandler) RegisterRoutes(router *gin.RouterGroup) {
	provider := router.Group("/provider", h.auth.RequireRole(model.RoleProvider))
	{
		provider.GET("/contracts", h.ListContracts)
		provider.GET("/contracts/:id", h.GetContract)
		provider.POST("/contracts/:id/sign", h.SignContract)
		provider.POST("/contracts/:id/reject", h.RejectContract)
		provider.GET("/contracts/:id/pdf", h.DownloadPDF)
		provider.GET("/dashboard/stats", h.GetStats)
	}
}

// ListContracts handles GET /api/provider/contracts
// @Summary      List my contracts
// @Tags         provider
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/provider/contracts [get]
func (h *ProviderHandler) ListContracts(c *gin.Context) {
	page := pagination.Parse(c)
	contracts, total, err := h.providerService.List(c.Request.Context(), middleware.Actor(c), c.Query("status"), page.Page, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload("contracts", contracts, total, page)))
}

// GetContract handles GET /api/provider/contracts/:id
// @Summary      Get my contract
// @Tags         provider
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=service.ContractResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/provider/contracts/{id} [get]
func (h *ProviderHandler) GetContract(c *gin.Context) {
	contract, err := h.providerService.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// SignContract handles POST /api/provider/contracts/:id/sign
// @Summary      Sign contract
// @Description  Signs a sent contract. The signature defaults to ELECTRONICALLY_SIGNED
// @Tags         provider
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true   "Contract ID"
// @Param        payload  body      service.SignContractRequest  false  "Signature"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/provider/contracts/{id}/sign [post]
func (h *ProviderHandler) SignContract(c *gin.Context) {
	var req service.SignContractRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	contract, err := h.providerService.Sign(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// RejectContract handles POST /api/provider/contracts/:id/reject
// @Summary      Reject contract
// @Description  Returns a sent contract to draft and appends the reason to its notes
// @Tags         provider
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true   "Contract ID"
// @Param        payload  body      service.RejectContractRequest  false  "Reason"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/provider/contracts/{id}/reject [post]
func (h *ProviderHandler) RejectContract(c *gin.Context) {
	var req service.RejectContractRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	contract, err := h.providerService.Reject(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// DownloadPDF handles GET /api/provider/contracts/:id/pdf
// @Summary      Download my contract as PDF
// @Tags         provider
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/provider/contracts/{id}/pdf [get]
func (h *ProviderHandler) DownloadPDF(c *gin.Context) {
	file, err := h.providerService.RenderPDF(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	sendPDF(c, file)
}

// GetStats handles GET /api/provider/dashboard/stats
// @Summary      Provider dashboard totals
// @Tags         provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ProviderStatsResponse}
// @Router       /api/provider/dashboard/stats [get]
func (h *ProviderHandler) GetStats(c *gin.Context) {
	stats, err := h.providerService.Stats(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
