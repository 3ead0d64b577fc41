package handler

import (
	"context"
	"net/http"
	"time"

	"contractbuilder/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
}

// NewHealthHandler reports database and, when configured, Redis reachability. redisClient may be nil.
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := gin.H{"status": "OK", "database": "up"}
	code := http.StatusOK

	if err := h.pingDB(ctx); err != nil {
		logger.Error(ctx, "health check: database unreachable", "error", err)
		status["status"], status["database"] = "DEGRADED", "down"
		code = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		status["redis"] = "up"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			logger.Error(ctx, "health check: redis unreachable", "error", err)
			status["status"], status["redis"] = "DEGRADED", "down"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, status)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
