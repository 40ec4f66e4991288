package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
)

// TemplateHandler handles HTTP requests for job templates
type TemplateHandler struct {
	service *services.Template
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(service *services.Template) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// ListTemplates handles the request to list templates
func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	limit, offset, ok := pageParams(c)
	if !ok {
		return badRequest(c, ErrMsgNegativePaging)
	}
	opts := &models.ListOptions{
		Limit:           limit,
		Offset:          offset,
		IncludeInactive: c.QueryBool(QueryIncludeInactive, false),
	}

	templates, err := h.service.List(c.UserContext(), opts)
	if err != nil {
		return respondWithError(c, ErrMsgTemplateListFailed, err)
	}
	return c.JSON(types.Success(listResponse(templates, limit, offset)))
}

// GetTemplate returns a template, topping up its instances first
func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	tmpl, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondWithError(c, ErrMsgTemplateGetFailed, err)
	}
	return c.JSON(types.Success(tmpl))
}

// GetTemplateInstances lists the instances of a template
func (h *TemplateHandler) GetTemplateInstances(c *fiber.Ctx) error {
	q, err := parseInstanceQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	instances, err := h.service.Instances(c.UserContext(), c.Params("id"), q)
	if err != nil {
		return respondWithError(c, ErrMsgInstanceListFailed, err)
	}
	return c.JSON(types.Success(listResponse(instances, q.Limit, q.Offset)))
}

// GetNextOccurrence returns the next slot of a template with a readable rule
func (h *TemplateHandler) GetNextOccurrence(c *fiber.Ctx) error {
	next, err := h.service.Next(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondWithError(c, ErrMsgTemplateGetFailed, err)
	}
	return c.JSON(types.Success(next))
}

// GetTemplateStats returns the instance counts per status of a template
func (h *TemplateHandler) GetTemplateStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondWithError(c, ErrMsgTemplateGetFailed, err)
	}
	return c.JSON(types.Success(stats))
}

// CreateTemplate handles the request to create a template and its first instances
func (h *TemplateHandler) CreateTemplate(c *fiber.Ctx) error {
	var req types.CreateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	tmpl := req.Template()
	if err := h.service.Create(c.UserContext(), tmpl); err != nil {
		return respondWithError(c, ErrMsgTemplateCreateFailed, err)
	}
	return c.Status(fiber.StatusCreated).JSON(types.Success(tmpl))
}

// CancelTemplate cancels the future scheduled instances of a template.
// With unsync=true their calendar events are removed too.
func (h *TemplateHandler) CancelTemplate(c *fiber.Ctx) error {
	result, err := h.service.Cancel(c.UserContext(), c.Params("id"), c.QueryBool(QueryUnsync, false))
	if err != nil {
		return respondWithError(c, ErrMsgTemplateCancelFailed, err)
	}
	return c.JSON(types.Success(result))
}

// GenerateInstances materializes the instances of a template when fewer than
// min_days_ahead days are covered
func (h *TemplateHandler) GenerateInstances(c *fiber.Ctx) error {
	minDaysAhead := c.QueryInt(QueryMinDaysAhead, 0)
	generated, err := h.service.Generate(c.UserContext(), c.Params("id"), minDaysAhead)
	if err != nil {
		return respondWithError(c, ErrMsgGenerateFailed, err)
	}
	return c.JSON(types.Success(types.GenerateResponse{Generated: generated}))
}

// UpdateTemplate applies a partial update and propagates it to future instances
func (h *TemplateHandler) UpdateTemplate(c *fiber.Ctx) error {
	var req types.UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}

	upd := services.TemplateUpdate{
		InstanceUpdate: services.InstanceUpdate{
			ClientID:    req.ClientID,
			ClientName:  req.ClientName,
			JobType:     req.JobType,
			Amount:      req.Amount,
			Location:    req.Location,
			Description: req.Description,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
		},
		Notes:      req.Notes,
		Recurrence: req.Recurrence,
	}

	tmpl, updated, err := h.service.Update(c.UserContext(), c.Params("id"), upd)
	if err != nil {
		return respondWithError(c, ErrMsgTemplateUpdateFailed, err)
	}
	return c.JSON(types.Success(types.UpdateTemplateResponse{
		Template:         tmpl,
		UpdatedInstances: updated,
	}))
}

// DeactivateTemplate marks a template inactive and cancels its future instances.
// With unsync=true their calendar events are removed too.
func (h *TemplateHandler) DeactivateTemplate(c *fiber.Ctx) error {
	result, err := h.service.Deactivate(c.UserContext(), c.Params("id"), c.QueryBool(QueryUnsync, false))
	if err != nil {
		return respondWithError(c, ErrMsgTemplateCancelFailed, err)
	}
	return c.JSON(types.Success(result))
}
