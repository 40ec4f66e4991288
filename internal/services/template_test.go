package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/recurrence"
)

func newTemplate(frequency models.Frequency, start string) *models.JobTemplate {
	return &models.JobTemplate{
		ClientName: "Acme",
		JobType:    models.JobTypeCommercial,
		Amount:     300,
		Recurrence: models.RecurrenceRule{Frequency: frequency, StartDate: start},
	}
}

func TestTemplateService_Create(t *testing.T) {
	ts := NewTestSetup(t)

	tmpl := newTemplate(models.FrequencyBiweekly, "2024-01-01")
	require.NoError(t, ts.TemplateService.Create(ts.ctx, tmpl))
	assert.NotEmpty(t, tmpl.ID)
	assert.True(t, tmpl.Active)

	instances, err := ts.TemplateService.Instances(ts.ctx, tmpl.ID, models.InstanceQuery{})
	require.NoError(t, err)
	// every two weeks until before Mar 31
	assert.Len(t, instances, 7)

	t.Run("invalid frequency", func(t *testing.T) {
		err := ts.TemplateService.Create(ts.ctx, newTemplate("yearly", "2024-01-01"))
		assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
	})

	t.Run("invalid job type", func(t *testing.T) {
		bad := newTemplate(models.FrequencyWeekly, "2024-01-01")
		bad.JobType = "industrial"
		assert.ErrorIs(t, ts.TemplateService.Create(ts.ctx, bad), ErrInvalidInput)
	})

	t.Run("invalid start date", func(t *testing.T) {
		bad := newTemplate(models.FrequencyWeekly, "01/01/2024")
		assert.ErrorIs(t, ts.TemplateService.Create(ts.ctx, bad), ErrInvalidInput)
	})
}

func TestTemplateService_GetTopsUpInstances(t *testing.T) {
	ts := NewTestSetup(t)
	tmpl := ts.createTemplate(t, "2024-01-01")

	got, err := ts.TemplateService.Get(ts.ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, got.ID)

	count, err := ts.InstanceRepo.Count(ts.ctx, models.InstanceQuery{TemplateID: tmpl.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(13), count)

	_, err = ts.TemplateService.Get(ts.ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestTemplateService_Update(t *testing.T) {
	ts := NewTestSetup(t)
	tmpl := newTemplate(models.FrequencyWeekly, "2024-01-01")
	require.NoError(t, ts.TemplateService.Create(ts.ctx, tmpl))

	first, err := ts.InstanceRepo.Query(ts.ctx, models.InstanceQuery{TemplateID: tmpl.ID, Limit: 2})
	require.NoError(t, err)
	require.NoError(t, ts.InstanceRepo.UpdateStatus(ts.ctx, first[1].ID, models.InstanceStatusCompleted))
	_, err = ts.SyncService.SyncOne(ts.ctx, &first[0])
	require.NoError(t, err)

	updated, changed, err := ts.TemplateService.Update(ts.ctx, tmpl.ID, TemplateUpdate{
		InstanceUpdate: InstanceUpdate{Amount: floatPtr(350)},
		Notes:          strPtr("Gate code 1234"),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, changed, "completed instance is left alone")
	assert.Equal(t, 350.0, updated.Amount)
	assert.Equal(t, "Gate code 1234", updated.Notes)
	assert.Equal(t, 300.0, ts.reload(t, first[1].ID).Amount)

	// the synced instance was pushed again
	_, updates, _ := ts.Gateway.counts()
	assert.Equal(t, 1, updates)

	t.Run("rule change rejected once instances exist", func(t *testing.T) {
		rule := models.RecurrenceRule{Frequency: models.FrequencyMonthly, StartDate: "2024-01-01"}
		_, _, err := ts.TemplateService.Update(ts.ctx, tmpl.ID, TemplateUpdate{Recurrence: &rule})
		assert.ErrorIs(t, err, ErrTemplateImmutable)
	})

	t.Run("same rule is not a change", func(t *testing.T) {
		rule := tmpl.Recurrence
		_, _, err := ts.TemplateService.Update(ts.ctx, tmpl.ID, TemplateUpdate{Recurrence: &rule})
		assert.NoError(t, err)
	})

	t.Run("invalid field", func(t *testing.T) {
		_, _, err := ts.TemplateService.Update(ts.ctx, tmpl.ID, TemplateUpdate{
			InstanceUpdate: InstanceUpdate{ClientName: strPtr("")},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestTemplateService_UpdateRuleWithoutInstances(t *testing.T) {
	ts := NewTestSetup(t)
	tmpl := ts.createTemplate(t, "2024-01-01")

	rule := models.RecurrenceRule{Frequency: models.FrequencyMonthly, StartDate: "2024-01-31"}
	updated, _, err := ts.TemplateService.Update(ts.ctx, tmpl.ID, TemplateUpdate{Recurrence: &rule})
	require.NoError(t, err)
	assert.Equal(t, rule, updated.Recurrence)

	instances, err := ts.InstanceRepo.Query(ts.ctx, models.InstanceQuery{TemplateID: tmpl.ID})
	require.NoError(t, err)
	// Mar 31 falls on the window bound
	require.Len(t, instances, 2)
	assert.Equal(t, "2024-01-31", instances[0].Date)
	assert.Equal(t, "2024-02-29", instances[1].Date)
}

func TestTemplateService_Deactivate(t *testing.T) {
	ts := NewTestSetup(t)
	tmpl := ts.createTemplate(t, "2023-12-01")
	past := ts.createInstance(t, tmpl, "2023-12-25", models.InstanceStatusScheduled)
	syncedFuture := ts.createInstance(t, tmpl, "2024-01-08", models.InstanceStatusScheduled)
	plainFuture := ts.createInstance(t, tmpl, "2024-01-15", models.InstanceStatusScheduled)
	require.NoError(t, ts.InstanceRepo.SetExternalEventID(ts.ctx, syncedFuture.ID, "evt-1"))

	result, err := ts.TemplateService.Deactivate(ts.ctx, tmpl.ID, true)
	require.NoError(t, err)
	assert.Equal(t, CancelResult{Cancelled: 2, Unsynced: 1}, result)

	stored, err := ts.TemplateRepo.Get(ts.ctx, tmpl.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	assert.Equal(t, models.InstanceStatusScheduled, ts.reload(t, past.ID).Status)
	assert.Equal(t, models.InstanceStatusCancelled, ts.reload(t, plainFuture.ID).Status)
	cancelled := ts.reload(t, syncedFuture.ID)
	assert.Equal(t, models.InstanceStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.Synced())
	assert.Equal(t, []string{"evt-1"}, ts.Gateway.deleted)

	// inactive templates are listed only on request
	active, err := ts.TemplateService.List(ts.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := ts.TemplateService.List(ts.ctx, &models.ListOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	generated, err := ts.TemplateService.Generate(ts.ctx, tmpl.ID, 0)
	require.NoError(t, err)
	assert.False(t, generated)
}

func TestTemplateService_CancelWithoutUnsync(t *testing.T) {
	ts := NewTestSetup(t)
	tmpl := ts.createTemplate(t, "2024-01-01")
	inst := ts.createInstance(t, tmpl, "2024-01-08", models.InstanceStatusScheduled)
	require.NoError(t, ts.InstanceRepo.SetExternalEventID(ts.ctx, inst.ID, "evt-1"))

	result, err := ts.TemplateService.Cancel(ts.ctx, tmpl.ID, false)
	require.NoError(t, err)
	assert.Equal(t, CancelResult{Cancelled: 1}, result)
	assert.Equal(t, "evt-1", ts.reload(t, inst.ID).ExternalEventID)

	_, err = ts.TemplateService.Cancel(ts.ctx, "missing", false)
	assert.True(t, IsNotFound(err))
}

func TestTemplateService_StatsAndNext(t *testing.T) {
	ts := NewTestSetup(t)
	tmpl := ts.createTemplate(t, "2023-12-04")
	ts.createInstance(t, tmpl, "2023-12-04", models.InstanceStatusCompleted)
	ts.createInstance(t, tmpl, "2023-12-11", models.InstanceStatusCompleted)
	ts.createInstance(t, tmpl, "2023-12-18", models.InstanceStatusCancelled)
	ts.createInstance(t, tmpl, "2023-12-25", models.InstanceStatusInProgress)
	ts.createInstance(t, tmpl, "2024-01-01", models.InstanceStatusScheduled)

	stats, err := ts.TemplateService.Stats(ts.ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, TemplateStats{Total: 5, Scheduled: 1, InProgress: 1, Completed: 2, Cancelled: 1}, stats)

	next, err := ts.TemplateService.Next(ts.ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", next.Date)
	assert.Equal(t, "Weekly", next.Description)
	assert.Contains(t, next.RRule, "FREQ=WEEKLY")
}
