package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
)

// testToday is the fixed "now" of the service tests
var testToday = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// mockGateway is a function-field CalendarGateway. Unset functions succeed;
// created events are numbered evt-1, evt-2, ...
type mockGateway struct {
	mu         sync.Mutex
	configured bool
	// disconnected hides the credential entirely; configured=false alone
	// means connected with sync switched off
	disconnected bool
	CreateFn     func(job calendar.EventJob) (calendar.EventRef, error)
	UpdateFn     func(externalID string, job calendar.EventJob) (calendar.EventRef, error)
	DeleteFn     func(externalID string) error

	created []string
	updated []string
	deleted []string
}

var _ CalendarGateway = &mockGateway{}

func (m *mockGateway) IsConfigured(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured
}

func (m *mockGateway) IsConnected(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.disconnected
}

func (m *mockGateway) CreateEvent(_ context.Context, job calendar.EventJob) (calendar.EventRef, error) {
	if m.CreateFn != nil {
		ref, err := m.CreateFn(job)
		if err != nil {
			return ref, err
		}
		m.mu.Lock()
		m.created = append(m.created, ref.ExternalID)
		m.mu.Unlock()
		return ref, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("evt-%d", len(m.created)+1)
	m.created = append(m.created, id)
	return calendar.EventRef{ExternalID: id}, nil
}

func (m *mockGateway) UpdateEvent(_ context.Context, externalID string, job calendar.EventJob) (calendar.EventRef, error) {
	m.mu.Lock()
	m.updated = append(m.updated, externalID)
	m.mu.Unlock()
	if m.UpdateFn != nil {
		return m.UpdateFn(externalID, job)
	}
	return calendar.EventRef{ExternalID: externalID}, nil
}

func (m *mockGateway) DeleteEvent(_ context.Context, externalID string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, externalID)
	m.mu.Unlock()
	if m.DeleteFn != nil {
		return m.DeleteFn(externalID)
	}
	return nil
}

func (m *mockGateway) counts() (created, updated, deleted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created), len(m.updated), len(m.deleted)
}

// TestSetup wires real services on an in-memory database and a mock gateway
type TestSetup struct {
	DB              *gorm.DB
	TemplateRepo    *repos.TemplateRepository
	InstanceRepo    *repos.InstanceRepository
	Gateway         *mockGateway
	Clock           Clock
	SyncService     *Sync
	Lifecycle       *Lifecycle
	TemplateService *Template
	InstanceService *Instance
	ctx             context.Context
}

// NewTestSetup creates a new test setup with in-memory database
func NewTestSetup(t *testing.T) *TestSetup {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_json=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to create in-memory database")
	require.NoError(t, db.AutoMigrate(&models.JobTemplate{}, &models.JobInstance{}, &models.CalendarCredential{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	templateRepo := repos.NewTemplateRepository(db)
	instanceRepo := repos.NewInstanceRepository(db)
	gateway := &mockGateway{configured: true}
	clock := NewClock(func() time.Time { return testToday }, time.UTC)

	syncService := NewSyncService(instanceRepo, gateway, clock, 0)
	lifecycle := NewLifecycleService(instanceRepo, clock, 0)

	return &TestSetup{
		DB:              db,
		TemplateRepo:    templateRepo,
		InstanceRepo:    instanceRepo,
		Gateway:         gateway,
		Clock:           clock,
		SyncService:     syncService,
		Lifecycle:       lifecycle,
		TemplateService: NewTemplateService(templateRepo, instanceRepo, lifecycle, syncService),
		InstanceService: NewInstanceService(instanceRepo, syncService),
		ctx:             context.Background(),
	}
}

// createTemplate stores a weekly template starting at start without generating instances
func (ts *TestSetup) createTemplate(t *testing.T, start string) *models.JobTemplate {
	t.Helper()
	tmpl := &models.JobTemplate{
		ClientID:   "client-1",
		ClientName: "Smith",
		JobType:    models.JobTypeResidential,
		Amount:     120,
		Location:   "12 Oak St",
		StartTime:  "09:00",
		EndTime:    "11:00",
		Active:     true,
		Recurrence: models.RecurrenceRule{Frequency: models.FrequencyWeekly, StartDate: start},
	}
	require.NoError(t, ts.TemplateRepo.Create(ts.ctx, tmpl))
	return tmpl
}

// createInstance stores an instance of tmpl
func (ts *TestSetup) createInstance(t *testing.T, tmpl *models.JobTemplate, date string, status models.InstanceStatus) *models.JobInstance {
	t.Helper()
	inst := &models.JobInstance{
		TemplateID: tmpl.ID,
		ClientName: tmpl.ClientName,
		JobType:    tmpl.JobType,
		Date:       date,
		StartTime:  tmpl.StartTime,
		EndTime:    tmpl.EndTime,
		Status:     status,
		Amount:     tmpl.Amount,
	}
	require.NoError(t, ts.InstanceRepo.Put(ts.ctx, inst))
	return inst
}

func (ts *TestSetup) reload(t *testing.T, id string) *models.JobInstance {
	t.Helper()
	inst, err := ts.InstanceRepo.Get(ts.ctx, id)
	require.NoError(t, err)
	return inst
}
