package routes

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRoute(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{HealthCheck, "/api/v1/health"},
		{GetTemplate, "/api/v1/templates/:id"},
		{GetTemplateNext, "/api/v1/templates/:id/next"},
		{UnsyncInstance, "/api/v1/instances/:id/sync"},
		{SyncInstances, "/api/v1/sync"},
		{CalendarFeed, "/api/v1/calendar/feed.ics"},
		{"Unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetRoute(tt.name))
		})
	}
}

func TestBuildURL(t *testing.T) {
	q := url.Values{}
	q.Set("status", "scheduled")

	assert.Equal(t, "/api/v1/templates", ListTemplatesURL(nil))
	assert.Equal(t, "/api/v1/instances?status=scheduled", ListInstancesURL(q))
	assert.Equal(t, "/api/v1/templates/abc/instances?status=scheduled", GetTemplateInstancesURL("abc", q))
	assert.Equal(t, "/api/v1/instances/a%2Fb", GetInstanceURL("a/b"))
	assert.Equal(t, "/api/v1/instances/abc/status", UpdateInstanceStatusURL("abc"))
	assert.Equal(t, "/api/v1/calendar/settings", CalendarSettingsURL())
	assert.Empty(t, BuildURL("Unknown", nil, nil))
}
