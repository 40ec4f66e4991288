package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/ics"
	"github.com/ceronops/jobcal/internal/recurrence"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
)

// Feed range defaults, relative to today
const (
	DefaultFeedPastDays   = 30
	DefaultFeedFutureDays = 90
	feedMaxRows           = 5000
)

// CalendarHandler handles the calendar connection and the ICS feed
type CalendarHandler struct {
	creds     *calendar.CredentialManager
	gateway   *calendar.Gateway
	instances *services.Instance
	clock     services.Clock
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(creds *calendar.CredentialManager, gateway *calendar.Gateway, instances *services.Instance, clock services.Clock) *CalendarHandler {
	return &CalendarHandler{
		creds:     creds,
		gateway:   gateway,
		instances: instances,
		clock:     clock,
	}
}

// Status returns the credential state without tokens
func (h *CalendarHandler) Status(c *fiber.Ctx) error {
	status, err := h.creds.Status(c.UserContext())
	if err != nil {
		return respondWithError(c, ErrMsgConnectFailed, err)
	}
	return c.JSON(types.Success(status))
}

// TestConnection checks that the configured calendar is reachable
func (h *CalendarHandler) TestConnection(c *fiber.Ctx) error {
	return c.JSON(types.Success(h.gateway.TestConnection(c.UserContext())))
}

// Connect exchanges an authorization code for tokens and stores them
func (h *CalendarHandler) Connect(c *fiber.Ctx) error {
	var req types.ConnectCalendarRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.UserContext()
	if _, err := h.creds.Connect(ctx, req.Code); err != nil {
		return respondWithError(c, ErrMsgConnectFailed, err)
	}
	status, err := h.creds.Status(ctx)
	if err != nil {
		return respondWithError(c, ErrMsgConnectFailed, err)
	}
	return c.JSON(types.Success(status))
}

// Disconnect forgets the stored credential. Existing events stay on the calendar.
func (h *CalendarHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.creds.Disconnect(c.UserContext()); err != nil {
		return respondWithError(c, ErrMsgConnectFailed, err)
	}
	return c.JSON(types.Success(nil))
}

// UpdateSettings changes the calendar id, reminders or the sync switch
func (h *CalendarHandler) UpdateSettings(c *fiber.Ctx) error {
	var req types.CalendarSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, ErrMsgInvalidReqBody+": "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.UserContext()
	_, err := h.creds.UpdateSettings(ctx, calendar.Settings{
		CalendarID:      req.CalendarID,
		SyncEnabled:     req.SyncEnabled,
		ReminderMinutes: req.ReminderMinutes,
	})
	if err != nil {
		return respondWithError(c, ErrMsgSettingsFailed, err)
	}
	status, err := h.creds.Status(ctx)
	if err != nil {
		return respondWithError(c, ErrMsgSettingsFailed, err)
	}
	return c.JSON(types.Success(status))
}

// Feed renders instances between from and to as an iCalendar document.
// The range defaults to the last 30 and next 90 days.
func (h *CalendarHandler) Feed(c *fiber.Ctx) error {
	today := h.clock.Today()
	q := models.InstanceQuery{
		TemplateID: c.Query(QueryTemplateID),
		DateFrom:   recurrence.FormatDate(recurrence.AddDays(today, -DefaultFeedPastDays)),
		DateTo:     recurrence.FormatDate(recurrence.AddDays(today, DefaultFeedFutureDays)),
		Limit:      feedMaxRows,
	}
	if v := c.Query(QueryFrom); v != "" {
		if err := models.ValidateDate(v); err != nil {
			return badRequest(c, ErrMsgInvalidDate)
		}
		q.DateFrom = v
	}
	if v := c.Query(QueryTo); v != "" {
		if err := models.ValidateDate(v); err != nil {
			return badRequest(c, ErrMsgInvalidDate)
		}
		q.DateTo = v
	}

	instances, err := h.instances.List(c.UserContext(), q)
	if err != nil {
		return respondWithError(c, ErrMsgFeedFailed, err)
	}

	feed, err := ics.BuildFeed(instances, ics.FeedOptions{
		Location:         h.clock.Location(),
		IncludeCancelled: c.QueryBool(QueryIncludeCancelled, false),
		Now:              h.clock.Now(),
	})
	if err != nil {
		return respondWithError(c, ErrMsgFeedFailed, err)
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="jobs.ics"`)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.SendString(feed)
}
