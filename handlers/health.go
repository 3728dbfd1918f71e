package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	station string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(station string) *HealthHandler {
	return &HealthHandler{station: station}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   h.station + " Radio Player API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
