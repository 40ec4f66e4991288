package test

import (
	"context"
	"time"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// DefaultNow is the fixed wall clock of a suite: Monday 1 January 2024, 10:00 UTC.
var DefaultNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// Option configures a Suite before its server is started.
type Option func(*Suite)

// WithTimeout sets the lifetime of the suite context.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Suite) {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.ctx, s.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// WithNow pins the server clock to now.
func WithNow(now time.Time) Option {
	return func(s *Suite) {
		s.now = now
	}
}

// WithWindowDays sets the instance generation window.
func WithWindowDays(days int) Option {
	return func(s *Suite) {
		s.windowDays = days
	}
}

// WithCleanupFunc adds a function to run when the suite is cleaned up.
func WithCleanupFunc(cleanup func()) Option {
	return func(s *Suite) {
		oldCleanup := s.cleanup
		s.cleanup = func() {
			if cleanup != nil {
				cleanup()
			}
			if oldCleanup != nil {
				oldCleanup()
			}
		}
	}
}
