package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ceronops/jobcal/internal/logger"
)

// DefaultAutoSyncSchedule runs the pending sync every 15 minutes
const DefaultAutoSyncSchedule = "*/15 * * * *"

// cronLogger routes cron's own messages to the application logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.DebugWithFields("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	logger.ErrorWithFields("cron: "+msg, fields)
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// AutoSync periodically pushes pending instances to the calendar.
// It never generates instances.
type AutoSync struct {
	cron        *cron.Cron
	syncService *Sync

	mu  sync.Mutex
	ctx context.Context
}

// NewAutoSync schedules the pending sync on a standard five-field cron spec
func NewAutoSync(syncService *Sync, schedule string) (*AutoSync, error) {
	if schedule == "" {
		schedule = DefaultAutoSyncSchedule
	}
	a := &AutoSync{
		syncService: syncService,
		ctx:         context.Background(),
	}
	a.cron = cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := a.cron.AddFunc(schedule, a.tick); err != nil {
		return nil, fmt.Errorf("invalid auto-sync schedule %q: %w", schedule, err)
	}
	return a, nil
}

func (a *AutoSync) tick() {
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	if _, err := a.RunOnce(ctx); err != nil {
		logger.Errorf("Auto-sync failed: %v", err)
	}
}

// RunOnce syncs the pending instances now
func (a *AutoSync) RunOnce(ctx context.Context) (SyncResult, error) {
	if !a.syncService.Configured(ctx) {
		logger.Debug("Auto-sync: calendar not configured")
		return SyncResult{}, nil
	}
	return a.syncService.SyncPending(ctx)
}

// LaunchAutoSync runs the schedule until ctx is cancelled
func LaunchAutoSync(ctx context.Context, wg *sync.WaitGroup, a *AutoSync) {
	defer wg.Done()

	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	a.cron.Start()
	logger.Info("Auto-sync started")

	<-ctx.Done()
	logger.Info("Auto-sync received shutdown signal, stopping...")
	<-a.cron.Stop().Done()
}
