package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/anky-indexer/internal/api/middleware"
	apierrors "github.com/feral-file/anky-indexer/internal/api/shared/errors"
	"github.com/feral-file/anky-indexer/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(details))
}

// respondInternalError logs err and responds with a generic message
func respondInternalError(c *gin.Context, err error, message string) {
	logger.ErrorCtx(c.Request.Context(), err,
		zap.String("message", message),
		zap.String("path", c.FullPath()),
		zap.String("request_id", middleware.GetRequestID(c)),
	)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondServiceUnavailable responds when a backing service is not configured
func respondServiceUnavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, apierrors.NewServiceUnavailableError(message))
}
