package handlers

import (
	"net/http"

	"evaluation-workflow-api/internal/realtime"

	"github.com/gin-gonic/gin"
)

// MaintenanceRequest represents the maintenance announcement payload
type MaintenanceRequest struct {
	Message string `json:"message" binding:"required"`
}

// AdminHandler exposes the broadcast and observability endpoints.
type AdminHandler struct {
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
}

func NewAdminHandler(registry *realtime.Registry, dispatcher *realtime.Dispatcher) *AdminHandler {
	return &AdminHandler{registry: registry, dispatcher: dispatcher}
}

// AnnounceMaintenance handles POST /api/admin/maintenance
// Broadcasts a system_maintenance notification to every connected client.
func (h *AdminHandler) AnnounceMaintenance(c *gin.Context) {
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	h.dispatcher.SystemMaintenance(req.Message)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Maintenance announcement sent",
		"connections": h.registry.ConnectionCount(),
	})
}

// GetStats handles GET /api/admin/stats
// Returns a read-only snapshot of the live connection state.
func (h *AdminHandler) GetStats(c *gin.Context) {
	activeUsers := h.registry.ActiveUserIDs()
	c.JSON(http.StatusOK, gin.H{
		"connections": h.registry.ConnectionCount(),
		"activeUsers": activeUsers,
		"userCount":   len(activeUsers),
	})
}
