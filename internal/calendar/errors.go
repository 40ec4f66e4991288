package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates there is no usable calendar credential.
	// Sync operations treat it as a skip.
	ErrNotConfigured = errors.New("calendar integration not configured")

	// ErrAuthExpired indicates the provider rejected the access token
	ErrAuthExpired = errors.New("calendar authorization expired")

	// ErrNotFound indicates the event or calendar does not exist on the provider
	ErrNotFound = errors.New("calendar event not found")
)

// CalendarError is a provider failure other than expired auth or a missing event
type CalendarError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *CalendarError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *CalendarError) Unwrap() error {
	return e.Err
}
