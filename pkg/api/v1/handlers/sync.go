package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
)

// SyncHandler handles calendar sync requests
type SyncHandler struct {
	sync      *services.Sync
	instances *services.Instance
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *services.Sync, instances *services.Instance) *SyncHandler {
	return &SyncHandler{sync: syncService, instances: instances}
}

// SyncInstance creates or updates the calendar event of one instance
func (h *SyncHandler) SyncInstance(c *fiber.Ctx) error {
	ctx := c.UserContext()
	inst, err := h.instances.Get(ctx, c.Params("id"))
	if err != nil {
		return respondWithError(c, ErrMsgInstanceGetFailed, err)
	}
	if !h.sync.Configured(ctx) {
		return respondWithError(c, ErrMsgSyncFailed, calendar.ErrNotConfigured)
	}

	eventID, err := h.sync.SyncOne(ctx, inst)
	if err != nil {
		return respondWithError(c, ErrMsgSyncFailed, err)
	}
	return c.JSON(types.Success(types.SyncInstanceResponse{
		InstanceID:      inst.ID,
		ExternalEventID: eventID,
	}))
}

// UnsyncInstance removes the calendar event of one instance
func (h *SyncHandler) UnsyncInstance(c *fiber.Ctx) error {
	ctx := c.UserContext()
	inst, err := h.instances.Get(ctx, c.Params("id"))
	if err != nil {
		return respondWithError(c, ErrMsgInstanceGetFailed, err)
	}
	if inst.Synced() && !h.sync.Connected(ctx) {
		return respondWithError(c, ErrMsgUnsyncFailed, calendar.ErrNotConfigured)
	}

	if err := h.sync.UnsyncOne(ctx, inst); err != nil {
		return respondWithError(c, ErrMsgUnsyncFailed, err)
	}
	return c.JSON(types.Success(types.SyncInstanceResponse{
		InstanceID:      inst.ID,
		ExternalEventID: inst.ExternalEventID,
	}))
}

// SyncInstances syncs the listed instances, or every pending instance when no ids are given
func (h *SyncHandler) SyncInstances(c *fiber.Ctx) error {
	var req types.SyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
		}
	}

	ctx := c.UserContext()
	var (
		result services.SyncResult
		err    error
	)
	if len(req.IDs) > 0 {
		result, err = h.sync.SyncIDs(ctx, req.IDs)
	} else {
		result, err = h.sync.SyncPending(ctx)
	}
	if err != nil {
		return respondWithError(c, ErrMsgSyncFailed, err)
	}
	return c.JSON(types.Success(result))
}
