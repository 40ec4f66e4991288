package test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ceronops/jobcal/internal/app"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/recurrence"
	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/client"
)

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - File-based SQLite database
//   - Real API server with a pinned clock
//   - Real API client
//   - Fake Google Calendar and token backend
type Suite struct {
	t *testing.T

	// Server components
	App    *app.App
	Server *httptest.Server

	// Client components
	APIClient client.Client

	// Database components
	DB             *gorm.DB
	TemplateRepo   *repos.TemplateRepository
	InstanceRepo   *repos.InstanceRepository
	CredentialRepo *repos.CredentialRepository

	// External calendar
	Google *FakeGoogle

	now        time.Time
	windowDays int

	ctx        context.Context
	cancelFunc context.CancelFunc

	cleanup func()
}

// SetS is required by suite.TestingSuite
func (s *Suite) SetS(_ suite.TestingSuite) {}

// SetT sets the testing.T instance for this suite
func (s *Suite) SetT(t *testing.T) {
	s.t = t
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// NewSuite creates a new test suite with the given options.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T, opts ...Option) *Suite {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	s := &Suite{
		t:          t,
		now:        DefaultNow,
		windowDays: recurrence.DefaultWindowDays,
		ctx:        ctx,
		cancelFunc: cancel,
	}
	s.cleanup = func() {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	SetupTestDB(s, nil)
	SetupServer(s)

	return s
}

// Cleanup tears down the test suite, releasing all resources.
// It is safe to call more than once.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		cleanup := s.cleanup
		s.cleanup = nil
		cleanup()
	}
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Now returns the pinned server clock
func (s *Suite) Now() time.Time {
	return s.now
}

// Require returns a require.Assertions instance for this suite.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// Connect authorizes the calendar through the API, exchanging a code with the fake token backend.
func (s *Suite) Connect() {
	s.t.Helper()
	status, err := s.APIClient.ConnectCalendar(s.ctx, types.ConnectCalendarRequest{Code: "integration-code"})
	s.Require().NoError(err, "Failed to connect calendar")
	s.Require().True(status.SyncEnabled, "connecting should enable sync")
}
