package middleware

import (
	"contractbuilder/internal/audit"

	"github.com/gin-gonic/gin"
)

// AuditClient records the caller's address and user agent for audit entries written by the request.
func AuditClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClient(c.Request.Context(), audit.Client{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
