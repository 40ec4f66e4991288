// Package handlers provides HTTP request handlers for the API
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
	"github.com/ceronops/jobcal/internal/recurrence"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
)

// Common error messages
const (
	ErrMsgInvalidReqBody   = "Invalid request body"
	ErrMsgIDRequired       = "id is required"
	ErrMsgInvalidDate      = "Invalid date, expected YYYY-MM-DD"
	ErrMsgInvalidBool      = "Invalid boolean query parameter"
	ErrMsgNegativePaging   = "limit and offset must not be negative"
	ErrMsgCalendarNotReady = "Calendar integration is not configured"
)

// Template error messages
const (
	ErrMsgTemplateCreateFailed = "Failed to create template"
	ErrMsgTemplateGetFailed    = "Failed to get template"
	ErrMsgTemplateListFailed   = "Failed to list templates"
	ErrMsgTemplateUpdateFailed = "Failed to update template"
	ErrMsgTemplateCancelFailed = "Failed to cancel template"
	ErrMsgGenerateFailed       = "Failed to generate instances"
)

// Instance error messages
const (
	ErrMsgInstanceGetFailed    = "Failed to get instance"
	ErrMsgInstanceListFailed   = "Failed to list instances"
	ErrMsgInstanceDeleteFailed = "Failed to delete instance"
	ErrMsgStatusUpdateFailed   = "Failed to update instance status"
)

// Calendar error messages
const (
	ErrMsgSyncFailed     = "Failed to sync"
	ErrMsgUnsyncFailed   = "Failed to remove calendar event"
	ErrMsgConnectFailed  = "Failed to connect calendar"
	ErrMsgSettingsFailed = "Failed to update calendar settings"
	ErrMsgFeedFailed     = "Failed to build calendar feed"
)

// statusOf maps a service error to its HTTP status and response slug
func statusOf(err error) (int, types.Slug) {
	var calErr *calendar.CalendarError
	switch {
	case errors.Is(err, recurrence.ErrInvalidRule),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidStatus):
		return fiber.StatusBadRequest, types.InvalidInputSlug
	case errors.Is(err, repos.ErrNotFound):
		return fiber.StatusNotFound, types.NotFoundSlug
	case errors.Is(err, services.ErrTemplateImmutable):
		return fiber.StatusConflict, types.ConflictSlug
	case errors.Is(err, calendar.ErrNotConfigured):
		return fiber.StatusConflict, types.NotConfiguredSlug
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fiber.StatusServiceUnavailable, types.CalendarErrorSlug
	case errors.As(err, &calErr),
		errors.Is(err, calendar.ErrAuthExpired),
		errors.Is(err, calendar.ErrNotFound):
		return fiber.StatusBadGateway, types.CalendarErrorSlug
	default:
		return fiber.StatusInternalServerError, types.ServerErrorSlug
	}
}

// respondWithError writes err in the slug envelope, prefixed with msg
func respondWithError(c *fiber.Ctx, msg string, err error) error {
	code, slug := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		logger.ErrorWithFields(msg, map[string]interface{}{
			"path":  c.Path(),
			"error": err.Error(),
		})
	}
	return c.Status(code).JSON(types.Failure(slug, msg+": "+err.Error()))
}

// badRequest writes a 400 with the invalid-input slug
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(msg))
}
