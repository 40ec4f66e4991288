package services

import (
	"time"

	"github.com/ceronops/jobcal/internal/recurrence"
)

// Clock reports the current date in the business time zone
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a clock reading now in loc. Nil arguments default to time.Now and UTC.
func NewClock(now func() time.Time, loc *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: now, loc: loc}
}

// Now returns the current time in the clock's zone
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().In(c.loc)
}

// Today returns the current calendar date as midnight UTC
func (c Clock) Today() time.Time {
	return recurrence.Day(c.Now())
}

// TodayString returns the current calendar date as YYYY-MM-DD
func (c Clock) TodayString() string {
	return recurrence.FormatDate(c.Today())
}

// Location returns the clock's zone
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
