package handlers_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/routes"
)

func TestCalendarStatus(t *testing.T) {
	s := newTestServer(t, nil)

	code, resp := do[calendar.Status](s, http.MethodGet, routes.CalendarStatusURL(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, calendar.StateDisconnected, resp.Data.State)

	s.connect()
	code, resp = do[calendar.Status](s, http.MethodGet, routes.CalendarStatusURL(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, calendar.StateValid, resp.Data.State)
	assert.True(t, resp.Data.SyncEnabled)
}

func TestCalendarConnect(t *testing.T) {
	t.Run("no token backend", func(t *testing.T) {
		s := newTestServer(t, nil)
		code, resp := do[any](s, http.MethodPost, routes.CalendarConnectURL(), types.ConnectCalendarRequest{Code: "abc"})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, types.NotConfiguredSlug, resp.Slug)
	})

	t.Run("missing code", func(t *testing.T) {
		s := newTestServer(t, stubRefresher{})
		code, _ := do[any](s, http.MethodPost, routes.CalendarConnectURL(), types.ConnectCalendarRequest{})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("connect and disconnect", func(t *testing.T) {
		s := newTestServer(t, stubRefresher{})
		code, resp := do[calendar.Status](s, http.MethodPost, routes.CalendarConnectURL(), types.ConnectCalendarRequest{Code: "abc"})
		require.Equal(t, http.StatusOK, code, resp.Error)
		assert.Equal(t, calendar.StateValid, resp.Data.State)
		assert.True(t, resp.Data.Enabled)
		assert.True(t, resp.Data.SyncEnabled)

		code, _ = do[any](s, http.MethodPost, routes.CalendarDisconnectURL(), nil)
		require.Equal(t, http.StatusOK, code)

		_, resp = do[calendar.Status](s, http.MethodGet, routes.CalendarStatusURL(), nil)
		assert.Equal(t, calendar.StateDisconnected, resp.Data.State)
	})
}

func TestCalendarSettings(t *testing.T) {
	s := newTestServer(t, nil)

	calendarID := "team@group.calendar.google.com"
	req := types.CalendarSettingsRequest{CalendarID: &calendarID, ReminderMinutes: []int{30, 1440}}

	code, resp := do[any](s, http.MethodPut, routes.CalendarSettingsURL(), req)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, types.NotConfiguredSlug, resp.Slug)

	s.connect()
	code, status := do[calendar.Status](s, http.MethodPut, routes.CalendarSettingsURL(), req)
	require.Equal(t, http.StatusOK, code, status.Error)
	assert.Equal(t, calendarID, status.Data.CalendarID)
	assert.Equal(t, []int{30, 1440}, status.Data.ReminderMinutes)

	disabled := false
	code, status = do[calendar.Status](s, http.MethodPut, routes.CalendarSettingsURL(), types.CalendarSettingsRequest{SyncEnabled: &disabled})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, status.Data.SyncEnabled)
	assert.Equal(t, calendarID, status.Data.CalendarID)

	_, health := do[types.HealthResponse](s, http.MethodGet, routes.HealthCheckURL(), nil)
	assert.False(t, health.Data.CalendarConfigured)

	code, _ = do[any](s, http.MethodPut, routes.CalendarSettingsURL(), types.CalendarSettingsRequest{ReminderMinutes: []int{-5}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCalendarTestConnection(t *testing.T) {
	s := newTestServer(t, nil)

	code, resp := do[calendar.ConnectionStatus](s, http.MethodGet, routes.CalendarTestURL(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Data.Reachable)
	assert.NotEmpty(t, resp.Data.Reason)

	s.connect()
	code, resp = do[calendar.ConnectionStatus](s, http.MethodGet, routes.CalendarTestURL(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Data.Reachable)
	assert.Equal(t, "Jobs", resp.Data.CalendarName)
}

func TestCalendarFeed(t *testing.T) {
	s := newTestServer(t, nil)
	tmpl := s.createTemplate("2024-01-01")
	first := s.templateInstances(tmpl.ID)[0]

	code, _ := do[any](s, http.MethodPut, routes.UpdateInstanceStatusURL(first.ID), types.UpdateStatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, code)

	feed := func(q url.Values) (*http.Response, string) {
		resp := s.raw(http.MethodGet, routes.CalendarFeedURL(q), nil)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}

	resp, body := feed(nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Equal(t, 12, strings.Count(body, "BEGIN:VEVENT"))

	q := url.Values{}
	q.Set("include_cancelled", "true")
	_, body = feed(q)
	assert.Equal(t, 13, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "STATUS:CANCELLED")

	q = url.Values{}
	q.Set("from", "2024-02-01")
	q.Set("to", "2024-02-29")
	_, body = feed(q)
	assert.Equal(t, 4, strings.Count(body, "BEGIN:VEVENT"))

	q = url.Values{}
	q.Set("from", "02/01/2024")
	resp, _ = feed(q)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
