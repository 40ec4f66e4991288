package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceronops/jobcal/internal/db/models"
)

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db             *gorm.DB
	ctx            context.Context
	templateRepo   *TemplateRepository
	instanceRepo   *InstanceRepository
	credentialRepo *CredentialRepository
}

func (s *DBRepositoryTestSuite) SetupTest() {
	// Each test gets its own named in-memory database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_json=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	err = db.AutoMigrate(&models.JobTemplate{}, &models.JobInstance{}, &models.CalendarCredential{})
	require.NoError(s.T(), err, "Failed to run database migrations")

	s.db = db
	s.templateRepo = NewTemplateRepository(s.db)
	s.instanceRepo = NewInstanceRepository(s.db)
	s.credentialRepo = NewCredentialRepository(s.db)
	s.ctx = context.Background()
}

func (s *DBRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestTemplate() *models.JobTemplate {
	tmpl := &models.JobTemplate{
		ClientID:   "client-1",
		ClientName: "Jane Doe",
		JobType:    models.JobTypeResidential,
		Amount:     150,
		Location:   "12 Elm St",
		Active:     true,
		Recurrence: models.RecurrenceRule{
			Frequency: models.FrequencyWeekly,
			StartDate: "2024-01-01",
		},
	}
	s.Require().NoError(s.templateRepo.Create(s.ctx, tmpl))
	return tmpl
}

func (s *DBRepositoryTestSuite) createTestInstance(templateID, date string, status models.InstanceStatus) *models.JobInstance {
	inst := &models.JobInstance{
		TemplateID: templateID,
		ClientName: "Jane Doe",
		JobType:    models.JobTypeResidential,
		Date:       date,
		Status:     status,
		Amount:     150,
	}
	s.Require().NoError(s.instanceRepo.Put(s.ctx, inst))
	return inst
}
