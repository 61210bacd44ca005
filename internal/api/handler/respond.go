package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
)

// respondError maps the domain error taxonomy to a status code and a
// {"message": ...} body. notFound is the message used for domain.ErrNotFound.
// 5xx responses never carry upstream or store details.
func respondError(c *gin.Context, err error, notFound string) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, domain.ErrNoDrawing):
		c.JSON(http.StatusBadRequest, gin.H{"message": "No drawing data provided"})
	case errors.Is(err, domain.ErrInappropriateContent):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Inappropriate content detected"})
	case errors.Is(err, domain.ErrRejectedName):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Player name is not allowed"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"message": clientMessage(err)})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logger.CtxError(ctx, "Upstream failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Service temporarily unavailable"})
	default:
		logger.CtxError(ctx, "Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// respondBindError answers a body that could not be decoded.
func respondBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
}

// clientMessage strips the taxonomy prefix from a validation error.
func clientMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	if msg == "" || msg == domain.ErrInvalidInput.Error() {
		return "Invalid input"
	}
	return msg
}
