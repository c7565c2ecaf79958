package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeSyncer struct {
	calls   int
	summary model.SyncSummary
	err     error
}

func (f *fakeSyncer) SyncAll(context.Context) (model.SyncSummary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeReminders struct {
	calls   int
	summary model.ReminderSummary
}

func (f *fakeReminders) CheckAndSendReminders(context.Context) (model.ReminderSummary, error) {
	f.calls++
	return f.summary, nil
}

func TestRunOnce_SyncsThenReminds(t *testing.T) {
	syncer := &fakeSyncer{summary: model.SyncSummary{Total: 3, Succeeded: 2, Failed: 1}}
	reminders := &fakeReminders{summary: model.ReminderSummary{Sent: 1}}
	runs := NewMemoryRunLog(20)
	w := NewSyncWorker(syncer, reminders, &LocalLocker{}, runs)

	run, err := w.RunOnce(context.Background(), TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, syncer.calls)
	assert.Equal(t, 1, reminders.calls)
	assert.Equal(t, TriggerManual, run.Trigger)
	assert.Equal(t, 2, run.Sync.Succeeded)
	assert.Equal(t, 1, run.Reminders.Sent)
	assert.Empty(t, run.Error)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	recent, err := w.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, run.ID, recent[0].ID)
}

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	syncer := &fakeSyncer{}
	reminders := &fakeReminders{}
	locker := &LocalLocker{}
	w := NewSyncWorker(syncer, reminders, locker, NewMemoryRunLog(20))

	release, ok, err := locker.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = w.RunOnce(context.Background(), TriggerSchedule)
	assert.ErrorIs(t, err, common.ErrSyncInProgress)
	assert.Zero(t, syncer.calls)
	assert.Zero(t, reminders.calls)

	release()
	_, err = w.RunOnce(context.Background(), TriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 1, syncer.calls)
}

func TestRunOnce_RecordsSyncError(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("listing students: connection refused")}
	reminders := &fakeReminders{}
	w := NewSyncWorker(syncer, reminders, &LocalLocker{}, NewMemoryRunLog(20))

	run, err := w.RunOnce(context.Background(), TriggerCLI)
	require.NoError(t, err)
	assert.Contains(t, run.Error, "connection refused")
	assert.Equal(t, 1, reminders.calls, "reminders still run after a failed sync")
}

func TestMemoryRunLog_CapsAndOrdersNewestFirst(t *testing.T) {
	log := NewMemoryRunLog(3)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, log.Append(ctx, model.SyncRun{ID: id}))
	}

	all, err := log.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].ID)
	assert.Equal(t, "b", all[2].ID)

	two, err := log.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestLocalLocker(t *testing.T) {
	var l LocalLocker
	release, ok, err := l.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(context.Background())
	assert.False(t, ok)

	release()
	release2, ok, _ := l.TryLock(context.Background())
	assert.True(t, ok)
	release2()
}
