package services

import (
	"context"
	"fmt"

	"github.com/ceronops/jobcal/internal/db"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
	"github.com/ceronops/jobcal/internal/recurrence"
)

// DefaultMinDaysAhead is the horizon EnsureGenerated keeps covered by default
const DefaultMinDaysAhead = 30

// InstanceUpdate holds the fields propagated from a template to its future
// instances. Nil fields are left unchanged.
type InstanceUpdate struct {
	ClientID    *string         `json:"client_id,omitempty"`
	ClientName  *string         `json:"client_name,omitempty"`
	JobType     *models.JobType `json:"job_type,omitempty"`
	Amount      *float64        `json:"amount,omitempty"`
	Location    *string         `json:"location,omitempty"`
	Description *string         `json:"description,omitempty"`
	StartTime   *string         `json:"start_time,omitempty"`
	EndTime     *string         `json:"end_time,omitempty"`
}

// Empty reports whether the update changes nothing
func (u InstanceUpdate) Empty() bool {
	return len(u.Fields()) == 0
}

// Validate checks the values that are set
func (u InstanceUpdate) Validate() error {
	if u.ClientName != nil && *u.ClientName == "" {
		return fmt.Errorf("%w: client_name must not be empty", ErrInvalidInput)
	}
	if u.JobType != nil {
		if err := u.JobType.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if u.Amount != nil && *u.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	for _, t := range []*string{u.StartTime, u.EndTime} {
		if t == nil {
			continue
		}
		if err := models.ValidateTimeOfDay(*t); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}

// Fields returns the column updates of the set fields
func (u InstanceUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.ClientID != nil {
		fields["client_id"] = *u.ClientID
	}
	if u.ClientName != nil {
		fields["client_name"] = *u.ClientName
	}
	if u.JobType != nil {
		fields["job_type"] = *u.JobType
	}
	if u.Amount != nil {
		fields["amount"] = *u.Amount
	}
	if u.Location != nil {
		fields["location"] = *u.Location
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.StartTime != nil {
		fields["start_time"] = *u.StartTime
	}
	if u.EndTime != nil {
		fields["end_time"] = *u.EndTime
	}
	return fields
}

// Lifecycle keeps the window of future instances of a template materialized
// and applies template changes to it
type Lifecycle struct {
	instances    *repos.InstanceRepository
	clock        Clock
	windowDays   int
	minDaysAhead int
}

// NewLifecycleService creates a lifecycle manager. windowDays ≤ 0 uses recurrence.DefaultWindowDays.
func NewLifecycleService(instances *repos.InstanceRepository, clock Clock, windowDays int) *Lifecycle {
	if windowDays <= 0 {
		windowDays = recurrence.DefaultWindowDays
	}
	return &Lifecycle{
		instances:    instances,
		clock:        clock,
		windowDays:   windowDays,
		minDaysAhead: DefaultMinDaysAhead,
	}
}

// SetMinDaysAhead changes the horizon used when callers pass no minimum. Values ≤ 0 are ignored.
func (l *Lifecycle) SetMinDaysAhead(days int) {
	if days > 0 {
		l.minDaysAhead = days
	}
}

// Today returns the current date in the business zone
func (l *Lifecycle) Today() string {
	return l.clock.TodayString()
}

func (l *Lifecycle) horizon(minDaysAhead int) string {
	if minDaysAhead <= 0 {
		minDaysAhead = l.minDaysAhead
	}
	return recurrence.FormatDate(recurrence.AddDays(l.clock.Today(), minDaysAhead))
}

// NeedsGeneration reports whether the template has no instance dated on or
// after today+minDaysAhead
func (l *Lifecycle) NeedsGeneration(ctx context.Context, tmpl *models.JobTemplate, minDaysAhead int) (bool, error) {
	if !tmpl.Active {
		return false, nil
	}
	has, err := l.instances.HasOnOrAfter(ctx, tmpl.ID, l.horizon(minDaysAhead))
	if err != nil {
		return false, err
	}
	return !has, nil
}

// EnsureGenerated generates and stores a full window of instances when the
// template's future is not covered up to today+minDaysAhead. It returns true
// when generation ran. Inactive templates are never generated.
func (l *Lifecycle) EnsureGenerated(ctx context.Context, tmpl *models.JobTemplate, minDaysAhead int) (bool, error) {
	needed, err := l.NeedsGeneration(ctx, tmpl, minDaysAhead)
	if err != nil || !needed {
		return false, err
	}

	dates, err := l.instances.ExistingDates(ctx, tmpl.ID)
	if err != nil {
		return false, err
	}
	generated, err := recurrence.GenerateInstances(tmpl, l.windowDays, recurrence.NewDateSet(dates...), l.clock.Today())
	if err != nil {
		return false, err
	}

	if err := l.instances.PutBatch(ctx, generated); err != nil {
		if db.IsDuplicateKeyError(err) {
			// a concurrent generation got there first
			logger.Warnf("Instances of template %s were generated concurrently", tmpl.ID)
			return false, nil
		}
		return false, err
	}

	logger.InfoWithFields("Generated job instances", map[string]interface{}{
		"template_id": tmpl.ID,
		"count":       len(generated),
		"window_days": l.windowDays,
	})
	return true, nil
}

// futureOpen selects the scheduled instances of a template dated today or later
func (l *Lifecycle) futureOpen(templateID string) models.InstanceQuery {
	return models.InstanceQuery{
		TemplateID: templateID,
		DateFrom:   l.clock.TodayString(),
		Statuses:   []models.InstanceStatus{models.InstanceStatusScheduled},
	}
}

// FutureInstances returns the scheduled instances of a template dated today or later
func (l *Lifecycle) FutureInstances(ctx context.Context, templateID string) ([]models.JobInstance, error) {
	return l.instances.Query(ctx, l.futureOpen(templateID))
}

// UpdateFutureInstances applies upd to the scheduled instances of a template
// dated today or later and returns how many changed. Past, completed,
// in-progress and cancelled instances are left alone.
func (l *Lifecycle) UpdateFutureInstances(ctx context.Context, templateID string, upd InstanceUpdate) (int, error) {
	if err := upd.Validate(); err != nil {
		return 0, err
	}
	fields := upd.Fields()
	if len(fields) == 0 {
		return 0, nil
	}

	n, err := l.instances.UpdateWhere(ctx, l.futureOpen(templateID), fields)
	if err != nil {
		return 0, err
	}
	logger.Debugf("Updated %d future instances of template %s", n, templateID)
	return int(n), nil
}

// CancelFutureInstances marks the scheduled instances of a template dated
// today or later as cancelled. Nothing is deleted and the calendar is not touched.
func (l *Lifecycle) CancelFutureInstances(ctx context.Context, templateID string) (int, error) {
	n, err := l.instances.UpdateWhere(ctx, l.futureOpen(templateID), map[string]interface{}{
		models.InstanceStatusField: models.InstanceStatusCancelled,
	})
	if err != nil {
		return 0, err
	}
	logger.Infof("Cancelled %d future instances of template %s", n, templateID)
	return int(n), nil
}
