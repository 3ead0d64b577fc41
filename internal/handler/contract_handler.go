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

type ContractHandler struct {
	contractService service.ContractService
	auth            *middleware.Authenticator
}

// NewContractHandler sets up the routing dependencies for administrator contract endpoints
func NewContractHandler(contractService service.ContractService, auth *middleware.Authenticator) *ContractHandler {
	return &ContractHandler{contractService: contractService, auth: auth}
}

// RegisterRoutes binds the endpoints to the /api group
func (h *ContractHandler) RegisterRoutes(router *gin.RouterGroup) {
	contracts := router.Group("/contracts", h.auth.RequireRole(model.RoleAdmin))
	{
		contracts.GET("", h.ListContracts)
		contracts.POST("", h.CreateContract)
		contracts.GET("/:id", h.GetContract)
		contracts.PUT("/:id", h.UpdateContract)
		contracts.DELETE("/:id", h.DeleteContract)
		contracts.POST("/:id/send", h.SendContract)
		contracts.GET("/:id/pdf", h.DownloadPDF)
	}
}

// ListContracts handles GET /api/contracts
// @Summary      List contracts
// @Description  Paginated contracts, newest first, with provider and template names
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Filter by status"
// @Param        provider_id  query     string  false  "Filter by provider"
// @Param        search       query     string  false  "Search number, title or provider name"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/contracts [get]
func (h *ContractHandler) ListContracts(c *gin.Context) {
	page := pagination.Parse(c)
	contracts, total, err := h.contractService.List(c.Request.Context(), middleware.Actor(c), service.ContractListQuery{
		Status:     c.Query("status"),
		ProviderID: c.Query("provider_id"),
		Search:     c.Query("search"),
		Page:       page.Page,
		Limit:      page.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload("contracts", contracts, total, page)))
}

// GetContract handles GET /api/contracts/:id
// @Summary      Get contract
// @Description  Contract detail with its version history, newest first
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=service.ContractDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/contracts/{id} [get]
func (h *ContractHandler) GetContract(c *gin.Context) {
	contract, err := h.contractService.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// CreateContract handles POST /api/contracts
// @Summary      Create contract
// @Description  Creates a draft contract with a generated AEMCO number and its first version
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateContractRequest  true  "Contract payload"
// @Success      201      {object}  response.Response{data=service.ContractResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/contracts [post]
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req service.CreateContractRequest
	if !bindJSON(c, &req) {
		return
	}

	contract, err := h.contractService.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, contract))
}

// UpdateContract handles PUT /api/contracts/:id
// @Summary      Update contract
// @Description  Partial update. Content changes add a version. Signed contracts require force=true
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Contract ID"
// @Param        payload  body      service.UpdateContractRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/contracts/{id} [put]
func (h *ContractHandler) UpdateContract(c *gin.Context) {
	var req service.UpdateContractRequest
	if !bindJSON(c, &req) {
		return
	}

	contract, err := h.contractService.Update(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// SendContract handles POST /api/contracts/:id/send
// @Summary      Send contract
// @Description  Marks the contract as sent and notifies the provider. Re-sending is allowed
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=service.ContractResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/contracts/{id}/send [post]
func (h *ContractHandler) SendContract(c *gin.Context) {
	contract, err := h.contractService.Send(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// DeleteContract handles DELETE /api/contracts/:id
// @Summary      Delete contract
// @Description  Hard delete with versions. Signed and active contracts are protected
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/contracts/{id} [delete]
func (h *ContractHandler) DeleteContract(c *gin.Context) {
	if err := h.contractService.Delete(c.Request.Context(), middleware.Actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Contract deleted successfully"}))
}

// DownloadPDF handles GET /api/contracts/:id/pdf
// @Summary      Download contract PDF
// @Tags         contracts
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/contracts/{id}/pdf [get]
func (h *ContractHandler) DownloadPDF(c *gin.Context) {
	file, err := h.contractService.RenderPDF(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	sendPDF(c, file)
}
