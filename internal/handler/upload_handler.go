package handler

import (
	"net/http"
	"strings"

	"contractbuilder/internal/storage"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

// UploadHandler serves files held by the in-memory store when no object storage is configured.
type UploadHandler struct {
	store *storage.MemoryStore
}

func NewUploadHandler(store *storage.MemoryStore) *UploadHandler {
	return &UploadHandler{store: store}
}

func (h *UploadHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/uploads/*key", h.GetFile)
}

// GetFile handles GET /uploads/{key}
// @Summary      Download an uploaded file
// @Tags         uploads
// @Produce      octet-stream
// @Param        key  path  string  true  "Object key"
// @Success      200
// @Failure      404  {object}  response.Response
// @Router       /uploads/{key} [get]
func (h *UploadHandler) GetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, contentType, ok := h.store.Open(key)
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "file not found"))
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
