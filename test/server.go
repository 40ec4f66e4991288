package test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ceronops/jobcal/internal/app"
	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/pkg/api/v1/client"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// SetupServer starts the real application against the suite database and
// points its Google provider and token backend at the suite's FakeGoogle.
func SetupServer(suite *Suite) {
	suite.Google = NewFakeGoogle(suite.Now)

	now := suite.now
	suite.App = app.New(app.Options{
		DB:         suite.DB,
		Location:   time.UTC,
		Now:        func() time.Time { return now },
		WindowDays: suite.windowDays,
		Refresher:  calendar.NewBackendRefresher(suite.Google.TokenBackendURL(), testClientTimeout),
		Provider:   calendar.NewGoogleProvider(calendar.WithEndpoint(suite.Google.CalendarEndpoint())),
	})

	suite.Server = httptest.NewServer(adaptor.FiberApp(suite.App.Fiber))

	apiClient, err := client.NewClient(&client.Options{
		BaseURL: suite.Server.URL,
		Timeout: testClientTimeout,
	})
	suite.Require().NoError(err, "Failed to create API client")
	suite.APIClient = apiClient

	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		if suite.Server != nil {
			suite.Server.Close()
		}
		if suite.Google != nil {
			suite.Google.Close()
		}
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}
