package worker

import (
	"context"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/google/uuid"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)

type BatchSyncer interface {
	SyncAll(ctx context.Context) (model.SyncSummary, error)
}

type ReminderRunner interface {
	CheckAndSendReminders(ctx context.Context) (model.ReminderSummary, error)
}

// SyncWorker is the body of a scheduled run: sync every student, then send
// reminders once, under the batch lock.
type SyncWorker struct {
	syncer    BatchSyncer
	reminders ReminderRunner
	locker    Locker
	runs      RunLog
	now       func() time.Time
}

func NewSyncWorker(syncer BatchSyncer, reminders ReminderRunner, locker Locker, runs RunLog) *SyncWorker {
	return &SyncWorker{
		syncer:    syncer,
		reminders: reminders,
		locker:    locker,
		runs:      runs,
		now:       time.Now,
	}
}

// RunOnce returns common.ErrSyncInProgress when another run holds the lock.
func (w *SyncWorker) RunOnce(ctx context.Context, trigger string) (*model.SyncRun, error) {
	release, ok, err := w.locker.TryLock(ctx)
	if err != nil {
		logger.Error("Batch run (%s) could not take the lock: %v", trigger, err)
		return nil, err
	}
	if !ok {
		logger.Warn("Batch run (%s) skipped, another run is in progress", trigger)
		return nil, common.ErrSyncInProgress
	}
	defer release()

	run := model.SyncRun{ID: uuid.NewString(), Trigger: trigger, StartedAt: w.now().UTC()}
	logger.Info("Batch run %s started (%s)", run.ID, trigger)

	summary, err := w.syncer.SyncAll(ctx)
	run.Sync = summary
	if err != nil {
		run.Error = err.Error()
		logger.Error("Batch sync failed: %v", err)
	}

	if ctx.Err() == nil {
		reminders, err := w.reminders.CheckAndSendReminders(ctx)
		run.Reminders = reminders
		if err != nil && run.Error == "" {
			run.Error = err.Error()
			logger.Error("Reminder check failed: %v", err)
		}
	}

	run.FinishedAt = w.now().UTC()
	if w.runs != nil {
		// the run's ctx may be cancelled; the record should still land
		recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.runs.Append(recCtx, run); err != nil {
			logger.Warn("Could not record batch run %s: %v", run.ID, err)
		}
	}
	logger.Success("Batch run %s finished in %s", run.ID, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return &run, nil
}

func (w *SyncWorker) RecentRuns(ctx context.Context, n int) ([]model.SyncRun, error) {
	if w.runs == nil {
		return []model.SyncRun{}, nil
	}
	return w.runs.Recent(ctx, n)
}
