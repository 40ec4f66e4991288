package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
	"github.com/ceronops/jobcal/internal/recurrence"
)

// TemplateUpdate holds the changes to a template. Nil fields are left unchanged.
// The instance fields are propagated to future scheduled instances.
type TemplateUpdate struct {
	InstanceUpdate
	Notes      *string                `json:"notes,omitempty"`
	Recurrence *models.RecurrenceRule `json:"recurrence,omitempty"`
}

// TemplateStats counts the instances of a template per status
type TemplateStats struct {
	Total      int64 `json:"total"`
	Scheduled  int64 `json:"scheduled"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

// NextOccurrence describes the upcoming slot of a template
type NextOccurrence struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	RRule       string `json:"rrule"`
}

// CancelResult is the outcome of cancelling the future of a template
type CancelResult struct {
	Cancelled    int `json:"cancelled"`
	Unsynced     int `json:"unsynced"`
	UnsyncFailed int `json:"unsync_failed"`
}

// Template handles job template operations
type Template struct {
	repo      *repos.TemplateRepository
	instances *repos.InstanceRepository
	lifecycle *Lifecycle
	sync      *Sync
}

// NewTemplateService creates a new template service. syncService may be nil,
// in which case calendar events are never touched.
func NewTemplateService(repo *repos.TemplateRepository, instances *repos.InstanceRepository, lifecycle *Lifecycle, syncService *Sync) *Template {
	return &Template{
		repo:      repo,
		instances: instances,
		lifecycle: lifecycle,
		sync:      syncService,
	}
}

func validateTemplate(tmpl *models.JobTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return recurrence.Validate(tmpl.Recurrence)
}

// Create validates and stores a template, then generates its first window of instances
func (s *Template) Create(ctx context.Context, tmpl *models.JobTemplate) error {
	tmpl.Active = true
	if err := validateTemplate(tmpl); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return err
	}
	logger.InfoWithFields("Template created", map[string]interface{}{
		"template_id": tmpl.ID,
		"client":      tmpl.ClientName,
		"frequency":   tmpl.Recurrence.Frequency,
	})

	if _, err := s.lifecycle.EnsureGenerated(ctx, tmpl, 0); err != nil {
		return fmt.Errorf("template %s created but instance generation failed: %w", tmpl.ID, err)
	}
	return nil
}

// Get retrieves a template and tops up its instances when the window runs low.
// Generation failures are logged, not returned.
func (s *Template) Get(ctx context.Context, id string) (*models.JobTemplate, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.EnsureGenerated(ctx, tmpl, 0); err != nil {
		logger.Warnf("Failed to generate instances of template %s: %v", id, err)
	}
	return tmpl, nil
}

// List retrieves templates with pagination
func (s *Template) List(ctx context.Context, opts *models.ListOptions) ([]models.JobTemplate, error) {
	return s.repo.List(ctx, opts)
}

// Generate runs EnsureGenerated for the template
func (s *Template) Generate(ctx context.Context, id string, minDaysAhead int) (bool, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.lifecycle.EnsureGenerated(ctx, tmpl, minDaysAhead)
}

// Update applies upd to the template and propagates the instance fields to its
// future scheduled instances, which are re-synced when they have an event.
// It returns the number of instances changed.
func (s *Template) Update(ctx context.Context, id string, upd TemplateUpdate) (*models.JobTemplate, int, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if err := upd.InstanceUpdate.Validate(); err != nil {
		return nil, 0, err
	}

	ruleChanged := upd.Recurrence != nil && *upd.Recurrence != tmpl.Recurrence
	if ruleChanged {
		count, err := s.instances.Count(ctx, models.InstanceQuery{TemplateID: id})
		if err != nil {
			return nil, 0, err
		}
		if count > 0 {
			return nil, 0, ErrTemplateImmutable
		}
		tmpl.Recurrence = *upd.Recurrence
	}
	applyTemplateUpdate(tmpl, upd)
	if err := validateTemplate(tmpl); err != nil {
		return nil, 0, err
	}
	if err := s.repo.Save(ctx, tmpl); err != nil {
		return nil, 0, err
	}

	changed, err := s.lifecycle.UpdateFutureInstances(ctx, id, upd.InstanceUpdate)
	if err != nil {
		return nil, 0, err
	}
	if changed > 0 {
		s.resync(ctx, id)
	}
	if ruleChanged {
		if _, err := s.lifecycle.EnsureGenerated(ctx, tmpl, 0); err != nil {
			return nil, changed, err
		}
	}
	return tmpl, changed, nil
}

func applyTemplateUpdate(tmpl *models.JobTemplate, upd TemplateUpdate) {
	if upd.ClientID != nil {
		tmpl.ClientID = *upd.ClientID
	}
	if upd.ClientName != nil {
		tmpl.ClientName = *upd.ClientName
	}
	if upd.JobType != nil {
		tmpl.JobType = *upd.JobType
	}
	if upd.Amount != nil {
		tmpl.Amount = *upd.Amount
	}
	if upd.Location != nil {
		tmpl.Location = *upd.Location
	}
	if upd.Description != nil {
		tmpl.Description = *upd.Description
	}
	if upd.StartTime != nil {
		tmpl.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		tmpl.EndTime = *upd.EndTime
	}
	if upd.Notes != nil {
		tmpl.Notes = *upd.Notes
	}
}

// resync pushes the updated future instances that already have an event
func (s *Template) resync(ctx context.Context, templateID string) {
	if s.sync == nil || !s.sync.Configured(ctx) {
		return
	}
	synced := true
	q := s.lifecycle.futureOpen(templateID)
	q.Synced = &synced
	instances, err := s.instances.Query(ctx, q)
	if err != nil {
		logger.Warnf("Failed to load synced instances of template %s: %v", templateID, err)
		return
	}
	for i := range instances {
		if _, err := s.sync.SyncOne(ctx, &instances[i]); err != nil {
			logger.Warnf("Failed to re-sync instance %s: %v", instances[i].ID, err)
		}
	}
}

// Cancel cancels the future scheduled instances of a template. With unsync the
// calendar events of those instances are removed as well.
func (s *Template) Cancel(ctx context.Context, id string, unsync bool) (CancelResult, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return CancelResult{}, err
	}

	var toUnsync []models.JobInstance
	if unsync && s.sync != nil {
		future, err := s.lifecycle.FutureInstances(ctx, id)
		if err != nil {
			return CancelResult{}, err
		}
		for _, inst := range future {
			if inst.Synced() {
				toUnsync = append(toUnsync, inst)
			}
		}
	}

	cancelled, err := s.lifecycle.CancelFutureInstances(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}

	result := CancelResult{Cancelled: cancelled}
	for i := range toUnsync {
		if err := s.sync.UnsyncOne(ctx, &toUnsync[i]); err != nil {
			result.UnsyncFailed++
			logger.Warnf("Failed to unsync instance %s: %v", toUnsync[i].ID, err)
			continue
		}
		if !toUnsync[i].Synced() {
			result.Unsynced++
		}
	}
	return result, nil
}

// Deactivate marks the template inactive and cancels its future instances
func (s *Template) Deactivate(ctx context.Context, id string, unsync bool) (CancelResult, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}
	if tmpl.Active {
		tmpl.Active = false
		if err := s.repo.Save(ctx, tmpl); err != nil {
			return CancelResult{}, err
		}
	}
	result, err := s.Cancel(ctx, id, unsync)
	if err != nil {
		return CancelResult{}, err
	}
	logger.InfoWithFields("Template deactivated", map[string]interface{}{
		"template_id": id,
		"cancelled":   result.Cancelled,
		"unsynced":    result.Unsynced,
	})
	return result, nil
}

// Next returns the next occurrence of the template after today
func (s *Template) Next(ctx context.Context, id string) (NextOccurrence, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return NextOccurrence{}, err
	}
	next, err := recurrence.NextOccurrence(tmpl.Recurrence, s.lifecycle.clock.Today())
	if err != nil {
		return NextOccurrence{}, err
	}
	rule, err := recurrence.RRule(tmpl.Recurrence)
	if err != nil {
		return NextOccurrence{}, err
	}
	return NextOccurrence{
		Date:        recurrence.FormatDate(next),
		Description: recurrence.Describe(tmpl.Recurrence),
		RRule:       rule,
	}, nil
}

// Stats counts the instances of a template per status
func (s *Template) Stats(ctx context.Context, id string) (TemplateStats, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return TemplateStats{}, err
	}
	counts, err := s.instances.CountByStatus(ctx, id)
	if err != nil {
		return TemplateStats{}, err
	}
	stats := TemplateStats{
		Scheduled:  counts[models.InstanceStatusScheduled],
		InProgress: counts[models.InstanceStatusInProgress],
		Completed:  counts[models.InstanceStatusCompleted],
		Cancelled:  counts[models.InstanceStatusCancelled],
	}
	stats.Total = stats.Scheduled + stats.InProgress + stats.Completed + stats.Cancelled
	return stats, nil
}

// Instances lists the instances of a template
func (s *Template) Instances(ctx context.Context, id string, q models.InstanceQuery) ([]models.JobInstance, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	q.TemplateID = id
	return s.instances.Query(ctx, q)
}

// IsNotFound reports whether err is a missing template or instance
func IsNotFound(err error) bool {
	return errors.Is(err, repos.ErrNotFound)
}
