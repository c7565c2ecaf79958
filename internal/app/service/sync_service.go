package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/repository"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/codeforces"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

type SyncConfig struct {
	Location        *time.Location
	SubmissionCount int
	Concurrency     int
}

type SyncService struct {
	cf           codeforces.API
	studentRepo  repository.StudentRepository
	activityRepo repository.ActivityRepository
	cfg          SyncConfig
	now          func() time.Time
}

func NewSyncService(cf codeforces.API, sr repository.StudentRepository, ar repository.ActivityRepository, cfg SyncConfig) *SyncService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SubmissionCount <= 0 {
		cfg.SubmissionCount = 10000
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &SyncService{
		cf:           cf,
		studentRepo:  sr,
		activityRepo: ar,
		cfg:          cfg,
		now:          time.Now,
	}
}

// SyncStudent fetches the student's Codeforces data and replaces the stored
// activity record. Nothing is written unless all three fetches succeed.
func (s *SyncService) SyncStudent(ctx context.Context, student *model.Student) (*model.ActivityRecord, error) {
	handle := student.CodeforcesHandle

	user, err := s.cf.GetUserInfo(ctx, handle)
	if err != nil {
		return nil, s.syncFailed(student, err)
	}
	ratings, err := s.cf.GetRatingHistory(ctx, handle)
	if err != nil {
		return nil, s.syncFailed(student, err)
	}
	subs, err := s.cf.GetSubmissions(ctx, handle, s.cfg.SubmissionCount)
	if err != nil {
		return nil, s.syncFailed(student, err)
	}

	rec, lastSubmission := BuildActivityRecord(student.ID, user, ratings, subs, s.cfg.Location, s.now().UTC())
	if err := s.activityRepo.SaveSyncResult(ctx, rec, lastSubmission); err != nil {
		logger.Error("Saving sync result for %s (%s) failed: %v", student.Name, handle, err)
		return nil, fmt.Errorf("SyncService.SyncStudent: %w", err)
	}
	student.LastSubmissionDate = lastSubmission

	logger.Debug("Synced %s: rating %d, %d solved, %d submissions", handle, rec.CurrentRating, rec.ProblemStats.TotalSolved, rec.ProblemSolvingData.TotalSubmissions)
	return rec, nil
}

func (s *SyncService) syncFailed(student *model.Student, err error) error {
	logger.Warn("Failed to fetch codeforces data for %s: %v", student.CodeforcesHandle, err)
	return fmt.Errorf("syncing %s: %w", student.CodeforcesHandle, err)
}

// SyncStudentByID is the manual sync path; errors reach the caller.
func (s *SyncService) SyncStudentByID(ctx context.Context, id string) (*model.StudentWithActivity, error) {
	student, err := s.studentRepo.FindStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.SyncStudent(ctx, student)
	if err != nil {
		return nil, err
	}
	return &model.StudentWithActivity{Student: *student, Activity: rec}, nil
}

// SyncAll syncs every student. A failing student is logged and counted; the
// run continues with the next one.
func (s *SyncService) SyncAll(ctx context.Context) (model.SyncSummary, error) {
	students, err := s.studentRepo.ListStudents(ctx)
	if err != nil {
		return model.SyncSummary{}, fmt.Errorf("SyncService.SyncAll: %w", err)
	}

	summary := model.SyncSummary{Total: len(students)}
	var mu sync.Mutex
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			summary.Failed++
			return
		}
		summary.Succeeded++
	}

	logger.Info("Starting codeforces sync for %d students (concurrency %d)", len(students), s.cfg.Concurrency)
	start := time.Now()

	if s.cfg.Concurrency == 1 {
		for i := range students {
			if ctx.Err() != nil {
				break
			}
			_, err := s.SyncStudent(ctx, &students[i])
			record(err)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for i := range students {
			student := &students[i]
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				_, err := s.SyncStudent(gctx, student)
				record(err)
				return nil // one student's failure must not cancel the rest
			})
		}
		g.Wait()
	}

	if ctx.Err() != nil {
		logger.Warn("Codeforces sync interrupted: %v", ctx.Err())
	}
	logger.Success("Codeforces sync finished in %s: %d ok, %d failed, %d total",
		time.Since(start).Round(time.Millisecond), summary.Succeeded, summary.Failed, summary.Total)
	return summary, nil
}
