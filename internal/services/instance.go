package services

import (
	"context"
	"fmt"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
)

// BulkDeleteResult is the outcome of a bulk delete
type BulkDeleteResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
	// Errors maps the id of each failed instance to its error
	Errors map[string]string `json:"errors,omitempty"`
}

// BulkStatusResult is the outcome of a bulk status change
type BulkStatusResult struct {
	Updated int `json:"updated"`
}

// Instance handles job instance operations
type Instance struct {
	repo *repos.InstanceRepository
	sync *Sync
}

// NewInstanceService creates a new instance service. syncService may be nil,
// in which case deletes never touch the calendar.
func NewInstanceService(repo *repos.InstanceRepository, syncService *Sync) *Instance {
	return &Instance{repo: repo, sync: syncService}
}

// Get retrieves an instance by ID
func (s *Instance) Get(ctx context.Context, id string) (*models.JobInstance, error) {
	return s.repo.Get(ctx, id)
}

// List returns the instances matching q. A zero limit uses models.DefaultLimit.
func (s *Instance) List(ctx context.Context, q models.InstanceQuery) ([]models.JobInstance, error) {
	if q.Limit <= 0 {
		q.Limit = models.DefaultLimit
	}
	return s.repo.Query(ctx, q)
}

func parseStatus(status string) (models.InstanceStatus, error) {
	st, err := models.ParseInstanceStatus(status)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return st, nil
}

// UpdateStatus changes the status of an instance
func (s *Instance) UpdateStatus(ctx context.Context, id, status string) (*models.JobInstance, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// BulkUpdateStatus changes the status of every listed instance. Unknown ids are ignored.
func (s *Instance) BulkUpdateStatus(ctx context.Context, ids []string, status string) (BulkStatusResult, error) {
	st, err := parseStatus(status)
	if err != nil {
		return BulkStatusResult{}, err
	}
	if len(ids) == 0 {
		return BulkStatusResult{}, nil
	}
	n, err := s.repo.UpdateWhere(ctx, models.InstanceQuery{IDs: ids}, map[string]interface{}{
		models.InstanceStatusField: st,
	})
	if err != nil {
		return BulkStatusResult{}, err
	}
	logger.Infof("Set status %s on %d instances", st, n)
	return BulkStatusResult{Updated: int(n)}, nil
}

// Delete removes the calendar event of an instance, then the instance itself.
// The instance is kept when its event cannot be removed, including when the
// calendar is disconnected and the event id would otherwise be lost.
func (s *Instance) Delete(ctx context.Context, id string) error {
	inst, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.sync != nil {
		if inst.Synced() && !s.sync.Connected(ctx) {
			return fmt.Errorf("instance %s has calendar event %s, reconnect to remove it: %w",
				inst.ID, inst.ExternalEventID, calendar.ErrNotConfigured)
		}
		if err := s.sync.UnsyncOne(ctx, inst); err != nil {
			return fmt.Errorf("failed to remove calendar event, instance kept: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Debugf("Deleted instance %s", id)
	return nil
}

// BulkDelete deletes each instance independently; a failure does not stop the rest
func (s *Instance) BulkDelete(ctx context.Context, ids []string) BulkDeleteResult {
	result := BulkDeleteResult{}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.Failed++
			if result.Errors == nil {
				result.Errors = map[string]string{}
			}
			result.Errors[id] = err.Error()
			continue
		}
		result.Deleted++
	}
	logger.InfoWithFields("Bulk delete finished", map[string]interface{}{
		"deleted": result.Deleted,
		"failed":  result.Failed,
	})
	return result
}
