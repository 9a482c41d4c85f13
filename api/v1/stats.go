package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns project counts per status and the caller's
// unread notification count
func (h *Handler) GetDashboardStats(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return
	}

	stats, err := h.projects.GetDashboardStats(c.Request.Context(), userID, isAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, stats)
}
