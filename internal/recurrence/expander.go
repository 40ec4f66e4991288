// Package recurrence expands template recurrence rules into dated job instances.
//
// Expansion is pure: callers supply "today" and the dates that already have an
// instance, and persist the result themselves.
//
// Monthly rules clamp to the end of short months. The k-th occurrence is the
// start date plus k months, moved back to the last day of the month when that
// day does not exist, so Jan 31 is followed by Feb 29 (2024), Mar 31, Apr 30.
package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/ceronops/jobcal/internal/db/models"
)

// DefaultWindowDays is how far ahead of today instances are generated
const DefaultWindowDays = 90

// lastStableMonthDay is the highest day of month present in every month
const lastStableMonthDay = 28

// options converts a rule into rrule options. Until is left unset.
func options(rule models.RecurrenceRule) (rrule.ROption, error) {
	start, err := ParseDate(rule.StartDate)
	if err != nil {
		return rrule.ROption{}, &InvalidRuleError{Rule: rule, Reason: "start date must be YYYY-MM-DD"}
	}

	opt := rrule.ROption{Dtstart: start, Interval: 1}
	switch rule.Frequency {
	case models.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case models.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case models.FrequencyBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case models.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		if day := start.Day(); day > lastStableMonthDay {
			// first of {day, last day of month}: the day itself, or the month end when shorter
			opt.Bymonthday = []int{day, -1}
			opt.Bysetpos = []int{1}
		}
	default:
		return rrule.ROption{}, &InvalidRuleError{
			Rule:   rule,
			Reason: fmt.Sprintf("unsupported frequency %q", rule.Frequency),
		}
	}
	return opt, nil
}

// endDate parses the optional end date of the rule
func endDate(rule models.RecurrenceRule) (time.Time, bool, error) {
	if !rule.HasEnd() {
		return time.Time{}, false, nil
	}
	end, err := ParseDate(rule.EndDate)
	if err != nil {
		return time.Time{}, false, &InvalidRuleError{Rule: rule, Reason: "end date must be YYYY-MM-DD"}
	}
	return end, true, nil
}

// Validate returns an *InvalidRuleError if rule cannot be expanded
func Validate(rule models.RecurrenceRule) error {
	if _, err := options(rule); err != nil {
		return err
	}
	_, _, err := endDate(rule)
	return err
}

// slots returns an iterator over the occurrence dates of rule, bounded by its end date
func slots(rule models.RecurrenceRule) (rrule.Next, error) {
	opt, err := options(rule)
	if err != nil {
		return nil, err
	}
	end, hasEnd, err := endDate(rule)
	if err != nil {
		return nil, err
	}
	if hasEnd {
		opt.Until = end
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, &InvalidRuleError{Rule: rule, Reason: err.Error()}
	}
	return r.Iterator(), nil
}

// GenerateInstances expands the template rule into scheduled instances dated
// from the rule start through the rule end, within the windowDays days that
// begin today (today+windowDays itself is outside the window).
//
// Dates in existing are skipped but still consume an instance number, so
// numbering follows the calendar slot and not the emitted instance.
// An end date before the start date, or a window of zero days or less, yields no instances.
func GenerateInstances(tmpl *models.JobTemplate, windowDays int, existing DateSet, today time.Time) ([]models.JobInstance, error) {
	next, err := slots(tmpl.Recurrence)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		return nil, nil
	}

	limit := AddDays(Day(today), windowDays)
	var instances []models.JobInstance
	number := 0
	for date, ok := next(); ok && date.Before(limit); date, ok = next() {
		number++
		day := FormatDate(date)
		if existing.Has(day) {
			continue
		}
		instances = append(instances, newInstance(tmpl, day, number))
	}
	return instances, nil
}

func newInstance(tmpl *models.JobTemplate, date string, number int) models.JobInstance {
	return models.JobInstance{
		ID:             uuid.NewString(),
		TemplateID:     tmpl.ID,
		ClientID:       tmpl.ClientID,
		ClientName:     tmpl.ClientName,
		JobType:        tmpl.JobType,
		Date:           date,
		StartTime:      tmpl.StartTime,
		EndTime:        tmpl.EndTime,
		Status:         models.InstanceStatusScheduled,
		Amount:         tmpl.Amount,
		Location:       tmpl.Location,
		Description:    tmpl.Description,
		Photos:         []string{},
		InstanceNumber: number,
	}
}

// NextOccurrence returns the first slot of rule strictly after today.
// The end date is not considered; the result is for display only.
func NextOccurrence(rule models.RecurrenceRule, today time.Time) (time.Time, error) {
	open := rule
	open.EndDate = ""
	next, err := slots(open)
	if err != nil {
		return time.Time{}, err
	}

	day := Day(today)
	for date, ok := next(); ok; date, ok = next() {
		if date.After(day) {
			return date, nil
		}
	}
	// unreachable for open-ended rules
	return time.Time{}, &InvalidRuleError{Rule: rule, Reason: "rule has no occurrence after " + FormatDate(day)}
}

// RRule renders rule as an RFC 5545 RRULE value, without DTSTART
func RRule(rule models.RecurrenceRule) (string, error) {
	opt, err := options(rule)
	if err != nil {
		return "", err
	}
	end, hasEnd, err := endDate(rule)
	if err != nil {
		return "", err
	}
	if hasEnd {
		opt.Until = end
	}
	return opt.RRuleString(), nil
}
