package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/worker"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "0 2 * * *"

type Runner interface {
	RunOnce(ctx context.Context, trigger string) (*model.SyncRun, error)
	RecentRuns(ctx context.Context, n int) ([]model.SyncRun, error)
}

type Status struct {
	Schedule string     `json:"schedule"`
	Timezone string     `json:"timezone"`
	Running  bool       `json:"running"`
	NextRun  *time.Time `json:"next_run"`
}

// Scheduler owns exactly one cron entry that fires the batch run.
// Schedule changes live in memory only.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	runner  Runner
	loc     *time.Location
	expr    string
	entry   cron.EntryID
	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(runner Runner, expr string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultSchedule
	}
	if err := Validate(expr); err != nil {
		return nil, err
	}

	cl := cronLogger{}
	s := &Scheduler{
		runner: runner,
		loc:    loc,
		expr:   expr,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	id, err := s.cron.AddFunc(expr, s.fire)
	if err != nil {
		return nil, fmt.Errorf("scheduling %q: %w", expr, err)
	}
	s.entry = id
	return s, nil
}

// Validate checks a standard 5-field cron expression (descriptors such as
// @daily are accepted too).
func Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return common.NewValidationError("schedule", "schedule is required")
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return common.NewValidationError("schedule", fmt.Sprintf("invalid cron expression: %v", err))
	}
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	// a previous Stop cancelled the old context
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.running = true
	logger.Info("Scheduler started with %q (%s)", s.expr, s.loc)
}

// Stop cancels an in-flight run and waits for it to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Info("Scheduler stopped")
	case <-ctx.Done():
		logger.Warn("Scheduler stop timed out waiting for the running job")
	}
}

// Replace swaps the schedule. On an invalid expression the current entry
// keeps running and a validation error is returned.
func (s *Scheduler) Replace(expr string) (Status, error) {
	expr = strings.TrimSpace(expr)
	if err := Validate(expr); err != nil {
		return s.Current(), err
	}

	s.mu.Lock()
	id, err := s.cron.AddFunc(expr, s.fire)
	if err != nil {
		s.mu.Unlock()
		return s.Current(), common.NewValidationError("schedule", err.Error())
	}
	s.cron.Remove(s.entry)
	old := s.expr
	s.entry = id
	s.expr = expr
	s.mu.Unlock()

	logger.Info("Sync schedule changed from %q to %q", old, expr)
	return s.Current(), nil
}

func (s *Scheduler) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Schedule: s.expr, Timezone: s.loc.String(), Running: s.running}
	if s.running {
		if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
			st.NextRun = &next
		}
	} else if sched, err := cron.ParseStandard(s.expr); err == nil {
		next := sched.Next(time.Now().In(s.loc))
		st.NextRun = &next
	}
	return st
}

func (s *Scheduler) Runs(ctx context.Context, n int) ([]model.SyncRun, error) {
	return s.runner.RecentRuns(ctx, n)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	logger.Info("Scheduled sync triggered")
	if _, err := s.runner.RunOnce(ctx, worker.TriggerSchedule); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			return
		}
		logger.Error("Scheduled sync failed: %v", err)
	}
}

// cronLogger routes robfig/cron's logging through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
