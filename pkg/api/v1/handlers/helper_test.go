package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ceronops/jobcal/internal/app"
	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/routes"
)

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// fakeProvider keeps events in memory and mimics the provider error mapping
type fakeProvider struct {
	mu     sync.Mutex
	events map[string]*gcal.Event
	seq    int
}

var _ calendar.Provider = &fakeProvider{}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{events: map[string]*gcal.Event{}}
}

func (p *fakeProvider) InsertEvent(_ context.Context, _, _ string, event *gcal.Event) (*gcal.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	event.Id = fmt.Sprintf("gev-%d", p.seq)
	p.events[event.Id] = event
	return event, nil
}

func (p *fakeProvider) UpdateEvent(_ context.Context, _, _, eventID string, event *gcal.Event) (*gcal.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[eventID]; !ok {
		return nil, calendar.ErrNotFound
	}
	event.Id = eventID
	p.events[eventID] = event
	return event, nil
}

func (p *fakeProvider) DeleteEvent(_ context.Context, _, _, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[eventID]; !ok {
		return calendar.ErrNotFound
	}
	delete(p.events, eventID)
	return nil
}

func (p *fakeProvider) GetCalendar(_ context.Context, _, calendarID string) (*gcal.Calendar, error) {
	return &gcal.Calendar{Id: calendarID, Summary: "Jobs", TimeZone: "UTC"}, nil
}

func (p *fakeProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// stubRefresher hands out fixed tokens
type stubRefresher struct{}

func (stubRefresher) ExchangeCode(_ context.Context, code string) (calendar.Token, error) {
	return calendar.Token{AccessToken: "access-" + code, RefreshToken: "refresh", Expiry: testNow.Add(time.Hour)}, nil
}

func (stubRefresher) RefreshAccessToken(context.Context, *models.CalendarCredential) (calendar.Token, error) {
	return calendar.Token{AccessToken: "access-new", Expiry: testNow.Add(time.Hour)}, nil
}

type testServer struct {
	t        *testing.T
	app      *app.App
	db       *gorm.DB
	provider *fakeProvider
}

func newTestServer(t *testing.T, refresher calendar.TokenRefresher) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = sqlDB.Close() })

	provider := newFakeProvider()
	a := app.New(app.Options{
		DB:         gdb,
		Location:   time.UTC,
		Now:        func() time.Time { return testNow },
		WindowDays: 90,
		Refresher:  refresher,
		Provider:   provider,
	})

	return &testServer{t: t, app: a, db: gdb, provider: provider}
}

// connect stores a valid credential with sync enabled
func (s *testServer) connect() {
	s.t.Helper()
	cred := &models.CalendarCredential{
		Provider:     models.ProviderGoogle,
		Enabled:      true,
		AccessToken:  "access",
		RefreshToken: "refresh",
		SyncEnabled:  true,
	}
	cred.SetExpiry(testNow.Add(time.Hour))
	cred.Normalize()
	require.NoError(s.t, repos.NewCredentialRepository(s.db).Save(context.Background(), cred))
}

func (s *testServer) raw(method, path string, body interface{}) *http.Response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Fiber.Test(req, -1)
	require.NoError(s.t, err)
	return resp
}

// do sends a JSON request and decodes the slug envelope into T
func do[T any](s *testServer, method, path string, body interface{}) (int, types.Response[T]) {
	s.t.Helper()
	resp := s.raw(method, path, body)
	defer resp.Body.Close()

	var out types.Response[T]
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func weeklyTemplate(start string) types.CreateTemplateRequest {
	return types.CreateTemplateRequest{
		ClientName: "Smith",
		JobType:    models.JobTypeResidential,
		Amount:     120,
		Location:   "12 Oak St",
		StartTime:  "09:00",
		EndTime:    "11:00",
		Recurrence: models.RecurrenceRule{
			Frequency: models.FrequencyWeekly,
			StartDate: start,
		},
	}
}

// createTemplate creates a weekly template through the API
func (s *testServer) createTemplate(start string) models.JobTemplate {
	s.t.Helper()
	code, resp := do[models.JobTemplate](s, http.MethodPost, routes.CreateTemplateURL(), weeklyTemplate(start))
	require.Equal(s.t, http.StatusCreated, code, resp.Error)
	return resp.Data
}

func (s *testServer) templateInstances(id string) []models.JobInstance {
	s.t.Helper()
	code, resp := do[types.ListResponse[models.JobInstance]](s, http.MethodGet, routes.GetTemplateInstancesURL(id, nil), nil)
	require.Equal(s.t, http.StatusOK, code, resp.Error)
	return resp.Data.Rows
}
