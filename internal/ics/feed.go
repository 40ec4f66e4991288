// Package ics renders job instances as an iCalendar feed
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/models"
)

const (
	// ProductID is the PRODID of generated feeds
	ProductID = "-//jobcal//Job Calendar//EN"
	// DefaultName is the calendar name used when none is given
	DefaultName = "Jobs"

	uidDomain = "jobcal"
)

// FeedOptions controls feed rendering
type FeedOptions struct {
	Name     string
	Location *time.Location
	// IncludeCancelled exports cancelled instances with STATUS:CANCELLED instead of dropping them
	IncludeCancelled bool
	// Now is used as DTSTAMP. Zero means time.Now.
	Now time.Time
}

// UID returns the stable event UID of an instance
func UID(inst *models.JobInstance) string {
	return inst.ID + "@" + uidDomain
}

// BuildFeed serializes instances as a VCALENDAR with one VEVENT each
func BuildFeed(instances []models.JobInstance, opts FeedOptions) (string, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(name)
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	for i := range instances {
		inst := &instances[i]
		cancelled := inst.Status == models.InstanceStatusCancelled
		if cancelled && !opts.IncludeCancelled {
			continue
		}

		job := calendar.EventJobFromInstance(inst)
		start, end, err := calendar.Times(job, loc)
		if err != nil {
			return "", err
		}

		event := cal.AddEvent(UID(inst))
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(start.UTC())
		event.SetEndAt(end.UTC())
		event.SetSummary(calendar.Summary(job))
		event.SetDescription(calendar.Description(job))
		if inst.Location != "" {
			event.SetLocation(inst.Location)
		}
		event.AddCategory(strings.ToUpper(inst.JobType.String()))
		if cancelled {
			event.SetStatus(ical.ObjectStatusCancelled)
		} else {
			event.SetStatus(ical.ObjectStatusConfirmed)
		}
	}

	return cal.Serialize(), nil
}
