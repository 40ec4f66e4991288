package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
)

// InstanceHandler handles HTTP requests for job instances
type InstanceHandler struct {
	service *services.Instance
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(service *services.Instance) *InstanceHandler {
	return &InstanceHandler{service: service}
}

// ListInstances handles the request to query instances
func (h *InstanceHandler) ListInstances(c *fiber.Ctx) error {
	q, err := parseInstanceQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	instances, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return respondWithError(c, ErrMsgInstanceListFailed, err)
	}
	return c.JSON(types.Success(listResponse(instances, q.Limit, q.Offset)))
}

// GetInstance returns details of a specific instance
func (h *InstanceHandler) GetInstance(c *fiber.Ctx) error {
	inst, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondWithError(c, ErrMsgInstanceGetFailed, err)
	}
	return c.JSON(types.Success(inst))
}

// BulkDeleteInstances deletes every listed instance independently
func (h *InstanceHandler) BulkDeleteInstances(c *fiber.Ctx) error {
	var req types.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(types.Success(h.service.BulkDelete(c.UserContext(), req.IDs)))
}

// BulkUpdateStatus sets one status on every listed instance
func (h *InstanceHandler) BulkUpdateStatus(c *fiber.Ctx) error {
	var req types.BulkStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.BulkUpdateStatus(c.UserContext(), req.IDs, req.Status)
	if err != nil {
		return respondWithError(c, ErrMsgStatusUpdateFailed, err)
	}
	return c.JSON(types.Success(result))
}

// UpdateStatus changes the status of one instance
func (h *InstanceHandler) UpdateStatus(c *fiber.Ctx) error {
	var req types.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	inst, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondWithError(c, ErrMsgStatusUpdateFailed, err)
	}
	return c.JSON(types.Success(inst))
}

// DeleteInstance removes the calendar event of an instance and then the instance
func (h *InstanceHandler) DeleteInstance(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondWithError(c, ErrMsgInstanceDeleteFailed, err)
	}
	return c.JSON(types.Success(nil))
}
