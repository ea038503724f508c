// Package handler holds the gin handlers of the report API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/diegoaa53-dot/bsale-api/internal/infrastructure/logger"
	"github.com/diegoaa53-dot/bsale-api/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response carrying meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data, meta any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, meta))
}

// BadRequest sends a 400 validation error
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeValidation, message))
}

// Error maps err to a status and error envelope. 5xx errors are attached to
// the gin context so the tracing middleware can report them.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	status, resp := dto.NewErrorResponseFromError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}
	c.JSON(status, resp)
}
