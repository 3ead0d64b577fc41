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

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Authenticator
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Authenticator) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(h.auth.RequireRole(model.RoleAdmin))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves paginated audit records with the acting user's name
// @Summary      Get audit logs
// @Description  Newest first. System entries carry the user name "System"
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action       query     string  false  "Filter by action, e.g. SIGN_CONTRACT"
// @Param        entity_type  query     string  false  "Filter by entity type"
// @Param        entity_id    query     string  false  "Filter by entity id"
// @Param        user_id      query     string  false  "Filter by acting user"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      400          {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	page := pagination.Parse(c)
	logs, total, err := h.auditService.List(c.Request.Context(), middleware.Actor(c), service.AuditListQuery{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		UserID:     c.Query("user_id"),
		Page:       page.Page,
		Limit:      page.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listPayload("logs", logs, total, page)))
}
