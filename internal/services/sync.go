package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
)

// DefaultSyncConcurrency is the number of instances synced in parallel
const DefaultSyncConcurrency = 4

// CalendarGateway is the part of the calendar gateway the sync service uses
type CalendarGateway interface {
	IsConfigured(ctx context.Context) bool
	IsConnected(ctx context.Context) bool
	CreateEvent(ctx context.Context, job calendar.EventJob) (calendar.EventRef, error)
	UpdateEvent(ctx context.Context, externalID string, job calendar.EventJob) (calendar.EventRef, error)
	DeleteEvent(ctx context.Context, externalID string) error
}

var _ CalendarGateway = &calendar.Gateway{}

// SyncResult counts the outcome of a bulk sync
type SyncResult struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Sync pushes job instances to the external calendar and records the event ids
type Sync struct {
	instances   *repos.InstanceRepository
	gateway     CalendarGateway
	clock       Clock
	concurrency int
}

// NewSyncService creates a sync service. concurrency ≤ 0 uses DefaultSyncConcurrency.
func NewSyncService(instances *repos.InstanceRepository, gateway CalendarGateway, clock Clock, concurrency int) *Sync {
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	return &Sync{
		instances:   instances,
		gateway:     gateway,
		clock:       clock,
		concurrency: concurrency,
	}
}

// Configured reports whether the calendar can be synced to
func (s *Sync) Configured(ctx context.Context) bool {
	return s.gateway.IsConfigured(ctx)
}

// Connected reports whether calendar events can be removed
func (s *Sync) Connected(ctx context.Context) bool {
	return s.gateway.IsConnected(ctx)
}

// SyncOne creates or updates the calendar event of inst and returns its id.
// It returns "" and no error when the calendar is not configured.
// An event that disappeared from the calendar is created again.
func (s *Sync) SyncOne(ctx context.Context, inst *models.JobInstance) (string, error) {
	if !s.gateway.IsConfigured(ctx) {
		logger.Debugf("Calendar not configured, not syncing instance %s", inst.ID)
		return "", nil
	}

	job := calendar.EventJobFromInstance(inst)
	if inst.ExternalEventID != "" {
		ref, err := s.gateway.UpdateEvent(ctx, inst.ExternalEventID, job)
		switch {
		case err == nil:
			if ref.ExternalID != inst.ExternalEventID {
				if err := s.instances.SetExternalEventID(ctx, inst.ID, ref.ExternalID); err != nil {
					return "", err
				}
				inst.ExternalEventID = ref.ExternalID
			}
			return inst.ExternalEventID, nil
		case errors.Is(err, calendar.ErrNotFound):
			logger.Warnf("Calendar event %s of instance %s is gone, creating a new one", inst.ExternalEventID, inst.ID)
		default:
			return "", fmt.Errorf("failed to update event of instance %s: %w", inst.ID, err)
		}
	}

	ref, err := s.gateway.CreateEvent(ctx, job)
	if err != nil {
		return "", fmt.Errorf("failed to create event for instance %s: %w", inst.ID, err)
	}
	if err := s.instances.SetExternalEventID(ctx, inst.ID, ref.ExternalID); err != nil {
		if delErr := s.gateway.DeleteEvent(ctx, ref.ExternalID); delErr != nil {
			logger.ErrorWithFields("Failed to remove orphaned calendar event", map[string]interface{}{
				"instance_id": inst.ID,
				"event_id":    ref.ExternalID,
				"error":       delErr.Error(),
			})
		}
		return "", err
	}
	inst.ExternalEventID = ref.ExternalID

	logger.InfoWithFields("Instance synced to calendar", map[string]interface{}{
		"instance_id": inst.ID,
		"event_id":    ref.ExternalID,
		"date":        inst.Date,
	})
	return ref.ExternalID, nil
}

// UnsyncOne deletes the calendar event of inst and clears its id. It runs
// whenever a credential is connected, even with sync switched off.
// Instances without an event, and calls made while the calendar is
// disconnected, are no-ops; the id is kept in the latter case.
func (s *Sync) UnsyncOne(ctx context.Context, inst *models.JobInstance) error {
	if inst.ExternalEventID == "" {
		return nil
	}
	if !s.gateway.IsConnected(ctx) {
		logger.Debugf("Calendar disconnected, keeping event %s of instance %s", inst.ExternalEventID, inst.ID)
		return nil
	}

	if err := s.gateway.DeleteEvent(ctx, inst.ExternalEventID); err != nil {
		return fmt.Errorf("failed to delete event of instance %s: %w", inst.ID, err)
	}
	if err := s.instances.SetExternalEventID(ctx, inst.ID, ""); err != nil {
		return err
	}

	logger.Debugf("Removed calendar event %s of instance %s", inst.ExternalEventID, inst.ID)
	inst.ExternalEventID = ""
	return nil
}

// SyncMany syncs the open, unsynced instances in parallel. Closed and already
// synced instances are skipped, as is everything when the calendar is not
// configured. A failing instance does not stop the others.
func (s *Sync) SyncMany(ctx context.Context, instances []*models.JobInstance) SyncResult {
	if !s.gateway.IsConfigured(ctx) {
		return SyncResult{Skipped: len(instances)}
	}

	var synced, skipped, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, inst := range instances {
		if inst.Status.Closed() || inst.Synced() {
			skipped.Add(1)
			continue
		}
		inst := inst
		g.Go(func() error {
			id, err := s.SyncOne(ctx, inst)
			switch {
			case err != nil:
				failed.Add(1)
				logger.ErrorWithFields("Failed to sync instance", map[string]interface{}{
					"instance_id": inst.ID,
					"error":       err.Error(),
				})
			case id == "":
				skipped.Add(1)
			default:
				synced.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := SyncResult{
		Synced:  int(synced.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	logger.InfoWithFields("Bulk sync finished", map[string]interface{}{
		"synced":  result.Synced,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
	return result
}

// SyncIDs syncs the given instances. Unknown ids count as failed.
func (s *Sync) SyncIDs(ctx context.Context, ids []string) (SyncResult, error) {
	if len(ids) == 0 {
		return SyncResult{}, nil
	}
	found, err := s.instances.Query(ctx, models.InstanceQuery{IDs: ids})
	if err != nil {
		return SyncResult{}, err
	}
	result := s.SyncMany(ctx, pointers(found))
	result.Failed += len(ids) - len(found)
	return result, nil
}

// SyncPending syncs every open instance dated today or later that has no event yet
func (s *Sync) SyncPending(ctx context.Context) (SyncResult, error) {
	synced := false
	pending, err := s.instances.Query(ctx, models.InstanceQuery{
		DateFrom: s.clock.TodayString(),
		Statuses: []models.InstanceStatus{models.InstanceStatusScheduled, models.InstanceStatusInProgress},
		Synced:   &synced,
	})
	if err != nil {
		return SyncResult{}, err
	}
	return s.SyncMany(ctx, pointers(pending)), nil
}

func pointers(instances []models.JobInstance) []*models.JobInstance {
	out := make([]*models.JobInstance, len(instances))
	for i := range instances {
		out[i] = &instances[i]
	}
	return out
}
