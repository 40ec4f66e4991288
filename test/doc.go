// Package test provides integration testing infrastructure for jobcal.
//
// A Suite runs the real application on a file-based SQLite database behind an
// httptest server, with a pinned clock, and talks to it through the public API
// client. Calendar calls go through the real Google provider and token backend
// refresher to FakeGoogle, an in-memory stand-in for both services.
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    suite := test.NewSuite(t)
//	    defer suite.Cleanup()
//
//	    suite.Connect()
//	    // Use suite.APIClient to make requests
//	    // Use suite.Google to inspect calendar events
//	}
package test
