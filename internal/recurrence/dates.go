package recurrence

import (
	"time"

	"github.com/ceronops/jobcal/internal/db/models"
)

// DateSet is a set of YYYY-MM-DD dates
type DateSet map[string]struct{}

// NewDateSet returns a set holding dates
func NewDateSet(dates ...string) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts a date
func (s DateSet) Add(date string) {
	s[date] = struct{}{}
}

// Has reports whether date is in the set. A nil set is empty.
func (s DateSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}

// FormatDate formats the calendar date of t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// Day returns the calendar date of t, in t's own location, as midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after date
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}
