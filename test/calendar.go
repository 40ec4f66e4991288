package test

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	gcal "google.golang.org/api/calendar/v3"
)

// FakeCalendarName is the summary the fake reports for every calendar
const FakeCalendarName = "Jobs"

// FakeGoogle serves the parts of the Google Calendar v3 API the gateway uses,
// plus a token backend speaking the /exchange and /refresh protocol. Like the
// real backend, /exchange only acknowledges the code and /refresh hands out
// access tokens. Events are kept in memory and any issued token is accepted.
type FakeGoogle struct {
	Server *httptest.Server

	now func() time.Time

	mu      sync.Mutex
	events  map[string]*gcal.Event
	seq     int
	tokens  map[string]bool
	failing bool
}

// NewFakeGoogle starts the fake. now stamps token expiries.
func NewFakeGoogle(now func() time.Time) *FakeGoogle {
	f := &FakeGoogle{
		now:    now,
		events: map[string]*gcal.Event{},
		tokens: map[string]bool{},
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/token/exchange", f.exchange)
	app.Post("/token/refresh", f.refresh)

	api := app.Group("/calendars/:calendarId", f.authorize)
	api.Get("/", f.getCalendar)
	api.Post("/events", f.insertEvent)
	api.Put("/events/:eventId", f.updateEvent)
	api.Delete("/events/:eventId", f.deleteEvent)

	f.Server = httptest.NewServer(adaptor.FiberApp(app))
	return f
}

// CalendarEndpoint is the API root to hand to the Google provider
func (f *FakeGoogle) CalendarEndpoint() string {
	return f.Server.URL + "/"
}

// TokenBackendURL is the base URL of the token backend
func (f *FakeGoogle) TokenBackendURL() string {
	return f.Server.URL + "/token"
}

// Close shuts the fake down
func (f *FakeGoogle) Close() {
	f.Server.Close()
}

// SetFailing makes every calendar call answer 500 until reset
func (f *FakeGoogle) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

// Events returns a snapshot of the stored events keyed by id
func (f *FakeGoogle) Events() map[string]*gcal.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*gcal.Event, len(f.events))
	for id, ev := range f.events {
		out[id] = ev
	}
	return out
}

// Event returns the stored event with id
func (f *FakeGoogle) Event(id string) (*gcal.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	return ev, ok
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"code": status, "message": message},
	})
}

func (f *FakeGoogle) issueToken(c *fiber.Ctx) error {
	f.mu.Lock()
	token := fmt.Sprintf("access-%d", len(f.tokens)+1)
	f.tokens[token] = true
	f.mu.Unlock()

	return c.JSON(fiber.Map{
		"accessToken": token,
		"expiryDate":  f.now().Add(time.Hour).UnixMilli(),
	})
}

func (f *FakeGoogle) exchange(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing code")
	}
	if req.Code == "denied" {
		return c.Status(fiber.StatusUnauthorized).SendString("invalid_grant")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (f *FakeGoogle) refresh(c *fiber.Ctx) error {
	return f.issueToken(c)
}

func (f *FakeGoogle) authorize(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")

	f.mu.Lock()
	valid, failing := f.tokens[token], f.failing
	f.mu.Unlock()

	if !valid {
		return apiError(c, fiber.StatusUnauthorized, "Invalid Credentials")
	}
	if failing {
		return apiError(c, fiber.StatusInternalServerError, "Backend Error")
	}
	return c.Next()
}

func (f *FakeGoogle) getCalendar(c *fiber.Ctx) error {
	return c.JSON(&gcal.Calendar{
		Id:       c.Params("calendarId"),
		Summary:  FakeCalendarName,
		TimeZone: "UTC",
	})
}

func (f *FakeGoogle) insertEvent(c *fiber.Ctx) error {
	var ev gcal.Event
	if err := json.Unmarshal(c.Body(), &ev); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	f.mu.Lock()
	f.seq++
	ev.Id = fmt.Sprintf("evt-%d", f.seq)
	ev.HtmlLink = "https://calendar.example/" + ev.Id
	f.events[ev.Id] = &ev
	f.mu.Unlock()

	return c.JSON(&ev)
}

func (f *FakeGoogle) updateEvent(c *fiber.Ctx) error {
	var ev gcal.Event
	if err := json.Unmarshal(c.Body(), &ev); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	id := c.Params("eventId")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return apiError(c, fiber.StatusNotFound, "Not Found")
	}
	ev.Id = id
	f.events[id] = &ev
	return c.JSON(&ev)
}

func (f *FakeGoogle) deleteEvent(c *fiber.Ctx) error {
	id := c.Params("eventId")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return apiError(c, fiber.StatusGone, "Resource has been deleted")
	}
	delete(f.events, id)
	return c.SendStatus(fiber.StatusNoContent)
}
