package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": message},
	})
}

// newFakeGoogle serves a minimal Calendar v3 API that accepts only token "good"
func newFakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer good" {
			apiError(w, http.StatusUnauthorized, "Invalid Credentials")
			return false
		}
		return true
	}

	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		var ev gcal.Event
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		ev.Id = "evt-1"
		ev.HtmlLink = "https://calendar.example/evt-1"
		writeJSON(w, http.StatusOK, ev)
	})
	mux.HandleFunc("/calendars/primary/events/evt-1", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		switch r.Method {
		case http.MethodPut:
			var ev gcal.Event
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
			ev.Id = "evt-1"
			writeJSON(w, http.StatusOK, ev)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/calendars/primary/events/missing", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		apiError(w, http.StatusNotFound, "Not Found")
	})
	mux.HandleFunc("/calendars/primary/events/deleted", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		apiError(w, http.StatusGone, "Resource has been deleted")
	})
	mux.HandleFunc("/calendars/primary/events/locked", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		apiError(w, http.StatusForbidden, "Forbidden")
	})
	mux.HandleFunc("/calendars/primary", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, gcal.Calendar{Id: "primary", Summary: "Jobs", TimeZone: DefaultTimeZone})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleProvider(t *testing.T) {
	ctx := context.Background()
	srv := newFakeGoogle(t)
	p := NewGoogleProvider(WithEndpoint(srv.URL+"/"), WithHTTPClient(srv.Client()))

	ev, err := BuildEvent(testJob, losAngeles(t), nil)
	require.NoError(t, err)

	t.Run("insert", func(t *testing.T) {
		created, err := p.InsertEvent(ctx, "good", "primary", ev)
		require.NoError(t, err)
		assert.Equal(t, "evt-1", created.Id)
		assert.Equal(t, "🏠 Smith", created.Summary)
		assert.Equal(t, "https://calendar.example/evt-1", created.HtmlLink)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := p.InsertEvent(ctx, "stale", "primary", ev)
		assert.ErrorIs(t, err, ErrAuthExpired)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := p.UpdateEvent(ctx, "good", "primary", "evt-1", ev)
		require.NoError(t, err)
		assert.Equal(t, "evt-1", updated.Id)

		_, err = p.UpdateEvent(ctx, "good", "primary", "missing", ev)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		assert.NoError(t, p.DeleteEvent(ctx, "good", "primary", "evt-1"))
		assert.ErrorIs(t, p.DeleteEvent(ctx, "good", "primary", "deleted"), ErrNotFound)

		err := p.DeleteEvent(ctx, "good", "primary", "locked")
		var calErr *CalendarError
		require.ErrorAs(t, err, &calErr)
		assert.Equal(t, http.StatusForbidden, calErr.StatusCode)
	})

	t.Run("get calendar", func(t *testing.T) {
		cal, err := p.GetCalendar(ctx, "good", "primary")
		require.NoError(t, err)
		assert.Equal(t, "Jobs", cal.Summary)
	})
}
