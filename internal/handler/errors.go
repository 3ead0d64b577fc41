package handler

import (
	"errors"
	"io"
	"net/http"

	"contractbuilder/internal/apperror"
	"contractbuilder/internal/service"
	"contractbuilder/pkg/logger"
	"contractbuilder/pkg/pagination"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal server error"

// respondError maps service errors onto the response envelope. Anything that is not an
// AppError is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	appErr, ok := apperror.As(err)
	if !ok {
		logger.Error(ctx, "unhandled error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, internalErrorMessage))
		return
	}

	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(ctx, appErr.Message, "path", c.FullPath(), "kind", appErr.Kind, "error", appErr.Err)
	}
	c.JSON(appErr.Code, response.ErrorWithDetails(appErr.Code, appErr.Message, appErr.Fields))
}

// bindJSON decodes the body into dst and writes a 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return false
	}
	return true
}

// formFile reads a multipart upload. The caller must close the returned file.
func formFile(c *gin.Context, field string) (service.FileUpload, io.Closer, bool) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "No file uploaded, expected form field '"+field+"'"))
		return service.FileUpload{}, nil, false
	}
	return service.FileUpload{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, file, true
}

func listPayload(key string, items any, total int64, page pagination.Params) map[string]interface{} {
	return map[string]interface{}{
		key:     items,
		"total": total,
		"page":  page.Page,
		"limit": page.Limit,
		"pages": page.TotalPages(total),
	}
}

func sendPDF(c *gin.Context, file *service.PDFFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, "application/pdf", file.Data)
}
