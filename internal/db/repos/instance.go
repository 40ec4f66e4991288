package repos

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ceronops/jobcal/internal/db/models"
)

// InstanceRepository provides access to job instance database operations
type InstanceRepository struct {
	db *gorm.DB
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// Get retrieves an instance by its ID
func (r *InstanceRepository) Get(ctx context.Context, id string) (*models.JobInstance, error) {
	var instance models.JobInstance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&instance).Error
	if err != nil {
		return nil, wrapErr(err, "failed to get instance %s", id)
	}
	return &instance, nil
}

// Put inserts the instance, or overwrites it when it already has an ID
func (r *InstanceRepository) Put(ctx context.Context, instance *models.JobInstance) error {
	tx := r.db.WithContext(ctx)
	var err error
	if instance.ID == "" {
		err = tx.Create(instance).Error
	} else {
		err = tx.Save(instance).Error
	}
	if err != nil {
		return fmt.Errorf("failed to put instance: %w", err)
	}
	return nil
}

// PutBatch inserts the instances in a single transaction
func (r *InstanceRepository) PutBatch(ctx context.Context, instances []models.JobInstance) error {
	if len(instances) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&instances, 100).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create %d instances: %w", len(instances), err)
	}
	return nil
}

// applyQuery applies the filters of q, without pagination
func applyQuery(query *gorm.DB, q models.InstanceQuery) *gorm.DB {
	if q.TemplateID != "" {
		query = query.Where(models.InstanceTemplateIDField+" = ?", q.TemplateID)
	}
	if len(q.IDs) > 0 {
		query = query.Where("id IN ?", q.IDs)
	}
	if q.DateFrom != "" {
		query = query.Where(models.InstanceDateField+" >= ?", q.DateFrom)
	}
	if q.DateTo != "" {
		query = query.Where(models.InstanceDateField+" <= ?", q.DateTo)
	}
	if len(q.Statuses) > 0 {
		query = query.Where(models.InstanceStatusField+" IN ?", q.Statuses)
	}
	if q.Synced != nil {
		if *q.Synced {
			query = query.Where(models.InstanceExternalEventIDField + " <> ''")
		} else {
			query = query.Where("(" + models.InstanceExternalEventIDField + " = '' OR " +
				models.InstanceExternalEventIDField + " IS NULL)")
		}
	}
	return query
}

// Query returns the instances matching q ordered by date
func (r *InstanceRepository) Query(ctx context.Context, q models.InstanceQuery) ([]models.JobInstance, error) {
	query := applyQuery(r.db.WithContext(ctx), q).
		Order(models.InstanceDateField + " ASC").
		Order(models.InstanceNumberField + " ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var instances []models.JobInstance
	if err := query.Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}
	return instances, nil
}

// ExistingDates returns the dates that already have an instance of the template
func (r *InstanceRepository) ExistingDates(ctx context.Context, templateID string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).Model(&models.JobInstance{}).
		Where(models.InstanceTemplateIDField+" = ?", templateID).
		Pluck(models.InstanceDateField, &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get instance dates of template %s: %w", templateID, err)
	}
	return dates, nil
}

// HasOnOrAfter reports whether the template has any instance dated on or after date
func (r *InstanceRepository) HasOnOrAfter(ctx context.Context, templateID, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.JobInstance{}).
		Where(models.InstanceTemplateIDField+" = ?", templateID).
		Where(models.InstanceDateField+" >= ?", date).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check instances of template %s: %w", templateID, err)
	}
	return count > 0, nil
}

// UpdateWhere applies fields to every instance matching q and returns the number of rows changed.
// updated_at is always refreshed.
func (r *InstanceRepository) UpdateWhere(ctx context.Context, q models.InstanceQuery, fields map[string]interface{}) (int64, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates[models.InstanceUpdatedAtField] = time.Now()

	result := applyQuery(r.db.WithContext(ctx).Model(&models.JobInstance{}), q).Updates(updates)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update instances: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpdateStatus sets the status of one instance
func (r *InstanceRepository) UpdateStatus(ctx context.Context, id string, status models.InstanceStatus) error {
	result := r.db.WithContext(ctx).Model(&models.JobInstance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			models.InstanceStatusField:    status,
			models.InstanceUpdatedAtField: time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update status of instance %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update status of instance %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetExternalEventID records the calendar event of an instance. An empty
// value clears it.
func (r *InstanceRepository) SetExternalEventID(ctx context.Context, id, externalID string) error {
	result := r.db.WithContext(ctx).Model(&models.JobInstance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			models.InstanceExternalEventIDField: externalID,
			models.InstanceUpdatedAtField:       time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set external event id of instance %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to set external event id of instance %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes an instance
func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.JobInstance{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete instance %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete instance %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of instances matching q
func (r *InstanceRepository) Count(ctx context.Context, q models.InstanceQuery) (int64, error) {
	var count int64
	if err := applyQuery(r.db.WithContext(ctx).Model(&models.JobInstance{}), q).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count instances: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of instances of a template per status
func (r *InstanceRepository) CountByStatus(ctx context.Context, templateID string) (map[models.InstanceStatus]int64, error) {
	var rows []struct {
		Status models.InstanceStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.JobInstance{}).
		Select(models.InstanceStatusField+", COUNT(*) AS count").
		Where(models.InstanceTemplateIDField+" = ?", templateID).
		Group(models.InstanceStatusField).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count instances of template %s: %w", templateID, err)
	}

	counts := make(map[models.InstanceStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
