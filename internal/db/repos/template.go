package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ceronops/jobcal/internal/db/models"
)

// TemplateRepository provides access to job template database operations
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a new template
func (r *TemplateRepository) Create(ctx context.Context, tmpl *models.JobTemplate) error {
	if err := r.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// Get retrieves a template by its ID
func (r *TemplateRepository) Get(ctx context.Context, id string) (*models.JobTemplate, error) {
	var tmpl models.JobTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tmpl).Error
	if err != nil {
		return nil, wrapErr(err, "failed to get template %s", id)
	}
	return &tmpl, nil
}

// Save writes every field of the template
func (r *TemplateRepository) Save(ctx context.Context, tmpl *models.JobTemplate) error {
	if err := r.db.WithContext(ctx).Save(tmpl).Error; err != nil {
		return fmt.Errorf("failed to save template %s: %w", tmpl.ID, err)
	}
	return nil
}

// List returns templates ordered by creation time. Inactive templates are
// left out unless requested.
func (r *TemplateRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.JobTemplate, error) {
	query := r.db.WithContext(ctx).Order(models.TemplateCreatedAtField + " ASC")

	limit := models.DefaultLimit
	if opts != nil {
		if !opts.IncludeInactive {
			query = query.Where(models.TemplateActiveField+" = ?", true)
		}
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.Offset > 0 {
			query = query.Offset(opts.Offset)
		}
	} else {
		query = query.Where(models.TemplateActiveField+" = ?", true)
	}

	var templates []models.JobTemplate
	if err := query.Limit(limit).Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Delete removes a template row. Instances are left in place.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.JobTemplate{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete template %s: %w", id, ErrNotFound)
	}
	return nil
}
