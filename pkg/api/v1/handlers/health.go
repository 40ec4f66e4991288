package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
)

// HealthHandler reports liveness and whether calendar sync is possible
type HealthHandler struct {
	sync *services.Sync
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(syncService *services.Sync) *HealthHandler {
	return &HealthHandler{sync: syncService}
}

// Health handles the health check
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := types.HealthResponse{Status: "ok"}
	if h.sync != nil {
		resp.CalendarConfigured = h.sync.Configured(c.UserContext())
	}
	return c.JSON(types.Success(resp))
}
