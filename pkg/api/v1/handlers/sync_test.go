package handlers_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/routes"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	code, resp := do[types.HealthResponse](s, http.MethodGet, routes.HealthCheckURL(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Data.Status)
	assert.False(t, resp.Data.CalendarConfigured)

	s.connect()
	_, resp = do[types.HealthResponse](s, http.MethodGet, routes.HealthCheckURL(), nil)
	assert.True(t, resp.Data.CalendarConfigured)
}

func TestSyncInstance_NotConfigured(t *testing.T) {
	s := newTestServer(t, nil)
	tmpl := s.createTemplate("2024-01-01")
	first := s.templateInstances(tmpl.ID)[0]

	code, resp := do[any](s, http.MethodPost, routes.SyncInstanceURL(first.ID), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, types.NotConfiguredSlug, resp.Slug)

	// nothing to remove, so unsync succeeds without a calendar
	code, _ = do[any](s, http.MethodDelete, routes.UnsyncInstanceURL(first.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do[any](s, http.MethodPost, routes.SyncInstanceURL("missing"), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSyncAndUnsyncInstance(t *testing.T) {
	s := newTestServer(t, nil)
	s.connect()
	tmpl := s.createTemplate("2024-01-01")
	first := s.templateInstances(tmpl.ID)[0]

	code, resp := do[types.SyncInstanceResponse](s, http.MethodPost, routes.SyncInstanceURL(first.ID), nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, first.ID, resp.Data.InstanceID)
	assert.Equal(t, "gev-1", resp.Data.ExternalEventID)
	assert.Equal(t, 1, s.provider.count())

	// syncing again updates the same event
	code, resp = do[types.SyncInstanceResponse](s, http.MethodPost, routes.SyncInstanceURL(first.ID), nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, "gev-1", resp.Data.ExternalEventID)
	assert.Equal(t, 1, s.provider.count())

	_, got := do[models.JobInstance](s, http.MethodGet, routes.GetInstanceURL(first.ID), nil)
	assert.Equal(t, "gev-1", got.Data.ExternalEventID)

	code, resp = do[types.SyncInstanceResponse](s, http.MethodDelete, routes.UnsyncInstanceURL(first.ID), nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Empty(t, resp.Data.ExternalEventID)
	assert.Zero(t, s.provider.count())

	_, got = do[models.JobInstance](s, http.MethodGet, routes.GetInstanceURL(first.ID), nil)
	assert.Empty(t, got.Data.ExternalEventID)
}

func TestSyncInstances(t *testing.T) {
	s := newTestServer(t, nil)
	tmpl := s.createTemplate("2024-01-01")
	instances := s.templateInstances(tmpl.ID)

	t.Run("not configured skips everything", func(t *testing.T) {
		code, resp := do[services.SyncResult](s, http.MethodPost, routes.SyncInstancesURL(), nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 13, resp.Data.Skipped)
		assert.Zero(t, resp.Data.Synced)
	})

	s.connect()

	t.Run("selected ids", func(t *testing.T) {
		code, resp := do[services.SyncResult](s, http.MethodPost, routes.SyncInstancesURL(),
			types.SyncRequest{IDs: []string{instances[0].ID, instances[1].ID, "missing"}})
		require.Equal(t, http.StatusOK, code, resp.Error)
		assert.Equal(t, 2, resp.Data.Synced)
		assert.Equal(t, 1, resp.Data.Failed)
	})

	t.Run("pending", func(t *testing.T) {
		code, resp := do[services.SyncResult](s, http.MethodPost, routes.SyncInstancesURL(), nil)
		require.Equal(t, http.StatusOK, code, resp.Error)
		assert.Equal(t, 11, resp.Data.Synced)
		assert.Zero(t, resp.Data.Failed)
		assert.Equal(t, 13, s.provider.count())
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := s.raw(http.MethodPost, routes.SyncInstancesURL(), "not an object")
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteSyncedInstance(t *testing.T) {
	s := newTestServer(t, nil)
	s.connect()
	tmpl := s.createTemplate("2024-01-01")
	first := s.templateInstances(tmpl.ID)[0]

	code, _ := do[any](s, http.MethodPost, routes.SyncInstanceURL(first.ID), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, s.provider.count())

	code, _ = do[any](s, http.MethodDelete, routes.DeleteInstanceURL(first.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, s.provider.count())
}

func TestCancelTemplate_Unsync(t *testing.T) {
	s := newTestServer(t, nil)
	s.connect()
	tmpl := s.createTemplate("2024-01-01")

	code, _ := do[any](s, http.MethodPost, routes.SyncInstancesURL(), nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 13, s.provider.count())

	code, resp := do[services.CancelResult](s, http.MethodPost, routes.CancelTemplateURL(tmpl.ID, map[string][]string{"unsync": {"true"}}), nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, 13, resp.Data.Cancelled)
	assert.Equal(t, 13, resp.Data.Unsynced)
	assert.Zero(t, s.provider.count())
}
