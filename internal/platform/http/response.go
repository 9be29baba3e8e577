package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondWithData sends data directly without wrapping, used by /status to
// report the current batch's progress snapshot.
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Health response structure
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

// RespondWithHealth sends a health check response
func RespondWithHealth(c *gin.Context, services map[string]string) {
	status := "healthy"
	for _, serviceStatus := range services {
		if serviceStatus != "up" {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:   status,
		Version:  "1.0.0",
		Services: services,
	})
}
