package v1

import (
	"net/http"

	"github.com/clientdesk-api/services"
	"github.com/gin-gonic/gin"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "clientdesk-api",
		"version": "1.0.0",
	})
}

// ListStatuses returns the project status catalog in lifecycle order
func ListStatuses(c *gin.Context) {
	respondOK(c, http.StatusOK, services.Statuses())
}
