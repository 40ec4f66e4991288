package calendar

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
)

// newTestCredentialRepo opens an isolated in-memory database
func newTestCredentialRepo(t *testing.T) *repos.CredentialRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CalendarCredential{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return repos.NewCredentialRepository(db)
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockRefresher is a function-field TokenRefresher
type mockRefresher struct {
	mu           sync.Mutex
	ExchangeFn   func(ctx context.Context, code string) (Token, error)
	RefreshFn    func(ctx context.Context, cred *models.CalendarCredential) (Token, error)
	RefreshCalls int
}

func (m *mockRefresher) ExchangeCode(ctx context.Context, code string) (Token, error) {
	return m.ExchangeFn(ctx, code)
}

func (m *mockRefresher) RefreshAccessToken(ctx context.Context, cred *models.CalendarCredential) (Token, error) {
	m.mu.Lock()
	m.RefreshCalls++
	m.mu.Unlock()
	return m.RefreshFn(ctx, cred)
}

func (m *mockRefresher) refreshCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RefreshCalls
}

// tokenSequence returns a RefreshFn issuing access-2, access-3, ... valid for an hour from clock
func tokenSequence(clock *fakeClock) func(context.Context, *models.CalendarCredential) (Token, error) {
	var mu sync.Mutex
	n := 1
	return func(context.Context, *models.CalendarCredential) (Token, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return Token{AccessToken: fmt.Sprintf("access-%d", n), Expiry: clock.Now().Add(time.Hour)}, nil
	}
}

// mockProvider is a function-field Provider that records the tokens it was called with
type mockProvider struct {
	mu       sync.Mutex
	InsertFn func(token, calendarID string, event *gcal.Event) (*gcal.Event, error)
	UpdateFn func(token, calendarID, eventID string, event *gcal.Event) (*gcal.Event, error)
	DeleteFn func(token, calendarID, eventID string) error
	GetFn    func(token, calendarID string) (*gcal.Calendar, error)
	Tokens   []string
}

func (m *mockProvider) record(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens = append(m.Tokens, token)
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tokens)
}

func (m *mockProvider) InsertEvent(_ context.Context, token, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	m.record(token)
	return m.InsertFn(token, calendarID, event)
}

func (m *mockProvider) UpdateEvent(_ context.Context, token, calendarID, eventID string, event *gcal.Event) (*gcal.Event, error) {
	m.record(token)
	return m.UpdateFn(token, calendarID, eventID, event)
}

func (m *mockProvider) DeleteEvent(_ context.Context, token, calendarID, eventID string) error {
	m.record(token)
	return m.DeleteFn(token, calendarID, eventID)
}

func (m *mockProvider) GetCalendar(_ context.Context, token, calendarID string) (*gcal.Calendar, error) {
	m.record(token)
	return m.GetFn(token, calendarID)
}

// connectedManager returns a manager holding access-1, valid for an hour
func connectedManager(t *testing.T, clock *fakeClock, refresher *mockRefresher) *CredentialManager {
	t.Helper()
	repo := newTestCredentialRepo(t)
	cred := &models.CalendarCredential{
		Provider:     models.ProviderGoogle,
		Enabled:      true,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		SyncEnabled:  true,
	}
	cred.SetExpiry(clock.Now().Add(time.Hour))
	cred.Normalize()
	require.NoError(t, repo.Save(context.Background(), cred))
	return NewCredentialManager(repo, refresher, clock.Now)
}
