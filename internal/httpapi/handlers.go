package httpapi

import (
	"errors"
	"net/http"

	"breeze-console/internal/auth"
	"breeze-console/internal/request"
	"breeze-console/internal/shell"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call the shell, return JSON.
type Handlers struct {
	Shell  *shell.Shell
	Bridge *auth.Manager
}

// abortWithError maps backend and shell errors to a response.
func abortWithError(c *gin.Context, err error) {
	var re *request.ResponseError
	var te *request.TransportError
	switch {
	case errors.As(err, &re):
		c.AbortWithStatusJSON(re.StatusCode, gin.H{"error": re.Message, "payload": re.Payload})
	case errors.As(err, &te) && te.Timeout:
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "backend timed out"})
	case errors.As(err, &te):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "backend unreachable"})
	case errors.Is(err, shell.ErrEmptyToken), errors.Is(err, shell.ErrNoProfile):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h Handlers) Healthz(c *gin.Context) {
	if err := h.Shell.Health(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
