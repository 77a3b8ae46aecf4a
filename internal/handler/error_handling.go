package handler

import (
	"context"
	"errors"
	"net/http"

	"mbti-quest/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "An unexpected internal error occurred"

// errorStatus maps a service error to the HTTP status and the client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrAlreadyAnswered):
		return http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrNotConfigured):
		// "GEMINI_API_KEY not configured"
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, models.ErrUpstream), errors.Is(err, models.ErrMalformedResponse):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream request timed out"
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func handleServiceError(c *gin.Context, err error) {
	status, message := errorStatus(err)
	if message == internalErrorMessage {
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message})
}

func abortBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: message})
}
