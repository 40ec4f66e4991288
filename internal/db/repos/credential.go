package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ceronops/jobcal/internal/db/models"
)

// CredentialRepository persists the calendar provider credential
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get retrieves the credential of a provider
func (r *CredentialRepository) Get(ctx context.Context, provider string) (*models.CalendarCredential, error) {
	var cred models.CalendarCredential
	err := r.db.WithContext(ctx).Where("provider = ?", provider).First(&cred).Error
	if err != nil {
		return nil, wrapErr(err, "failed to get %s credential", provider)
	}
	return &cred, nil
}

// Save creates or overwrites the credential of cred.Provider
func (r *CredentialRepository) Save(ctx context.Context, cred *models.CalendarCredential) error {
	if err := r.db.WithContext(ctx).Save(cred).Error; err != nil {
		return fmt.Errorf("failed to save %s credential: %w", cred.Provider, err)
	}
	return nil
}

// Delete removes the credential of a provider. Deleting a missing credential is not an error.
func (r *CredentialRepository) Delete(ctx context.Context, provider string) error {
	err := r.db.WithContext(ctx).Where("provider = ?", provider).Delete(&models.CalendarCredential{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s credential: %w", provider, err)
	}
	return nil
}
