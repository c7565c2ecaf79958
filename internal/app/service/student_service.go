package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/repository"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/google/uuid"
)

type StudentService struct {
	studentRepo  repository.StudentRepository
	activityRepo repository.ActivityRepository
	syncService  *SyncService
	loc          *time.Location
	now          func() time.Time
}

func NewStudentService(sr repository.StudentRepository, ar repository.ActivityRepository, ss *SyncService, loc *time.Location) *StudentService {
	if loc == nil {
		loc = time.Local
	}
	return &StudentService{
		studentRepo:  sr,
		activityRepo: ar,
		syncService:  ss,
		loc:          loc,
		now:          time.Now,
	}
}

// StudentRequest is the body of both create and update (PUT replaces the editable fields).
type StudentRequest struct {
	Name                  string `json:"name" validate:"required,notblank,max=100"`
	Email                 string `json:"email" validate:"omitempty,email,max=254"`
	Phone                 string `json:"phone" validate:"omitempty,max=32"`
	CodeforcesHandle      string `json:"codeforces_handle" validate:"required,cfhandle"`
	EmailRemindersEnabled *bool  `json:"email_reminders_enabled"`
}

func (r *StudentRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.CodeforcesHandle = strings.TrimSpace(r.CodeforcesHandle)
}

func (s *StudentService) CreateStudent(ctx context.Context, req StudentRequest) (*model.StudentWithActivity, error) {
	req.normalize()
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	student := &model.Student{
		ID:                    uuid.NewString(),
		Name:                  req.Name,
		Email:                 req.Email,
		Phone:                 req.Phone,
		CodeforcesHandle:      req.CodeforcesHandle,
		EmailRemindersEnabled: true,
	}
	if req.EmailRemindersEnabled != nil {
		student.EmailRemindersEnabled = *req.EmailRemindersEnabled
	}

	if err := s.studentRepo.CreateStudent(ctx, student); err != nil {
		return nil, err
	}
	logger.Info("Student %s (%s) added", student.Name, student.CodeforcesHandle)

	activity := s.syncQuietly(ctx, student)
	return &model.StudentWithActivity{Student: *student, Activity: activity}, nil
}

func (s *StudentService) UpdateStudent(ctx context.Context, id string, req StudentRequest) (*model.StudentWithActivity, error) {
	req.normalize()
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	student, err := s.studentRepo.FindStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	handleChanged := student.CodeforcesHandle != req.CodeforcesHandle

	student.Name = req.Name
	student.Email = req.Email
	student.Phone = req.Phone
	student.CodeforcesHandle = req.CodeforcesHandle
	if req.EmailRemindersEnabled != nil {
		student.EmailRemindersEnabled = *req.EmailRemindersEnabled
	}
	if err := s.studentRepo.UpdateStudent(ctx, student); err != nil {
		return nil, err
	}

	if !handleChanged {
		activity, err := s.findActivity(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		return &model.StudentWithActivity{Student: *student, Activity: activity}, nil
	}

	// The stored record belongs to the previous handle.
	if err := s.activityRepo.DeleteActivityByStudentID(ctx, student.ID); err != nil {
		return nil, err
	}
	logger.Info("Handle of %s changed to %s, resyncing", student.Name, student.CodeforcesHandle)
	activity := s.syncQuietly(ctx, student)
	return &model.StudentWithActivity{Student: *student, Activity: activity}, nil
}

// syncQuietly runs the implicit sync after create/update. A failure is logged
// and leaves the student without activity; the write already succeeded.
func (s *StudentService) syncQuietly(ctx context.Context, student *model.Student) *model.ActivityRecord {
	rec, err := s.syncService.SyncStudent(ctx, student)
	if err != nil {
		logger.Warn("Initial sync for %s failed: %v", student.CodeforcesHandle, err)
		return nil
	}
	return rec
}

func (s *StudentService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.studentRepo.DeleteStudent(ctx, id); err != nil {
		return err
	}
	logger.Info("Student %s deleted", id)
	return nil
}

func (s *StudentService) GetStudent(ctx context.Context, id string) (*model.StudentWithActivity, error) {
	student, err := s.studentRepo.FindStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	activity, err := s.findActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.StudentWithActivity{Student: *student, Activity: activity}, nil
}

// ListStudents joins each student with its activity record, one lookup per student.
func (s *StudentService) ListStudents(ctx context.Context) ([]model.StudentWithActivity, error) {
	students, err := s.studentRepo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.StudentWithActivity, 0, len(students))
	for _, st := range students {
		activity, err := s.findActivity(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.StudentWithActivity{Student: st, Activity: activity})
	}
	return out, nil
}

func (s *StudentService) GetActivityByHandle(ctx context.Context, handle string) (*model.ActivityRecord, error) {
	student, err := s.studentRepo.FindStudentByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	return s.activityRepo.FindActivityByStudentID(ctx, student.ID)
}

func (s *StudentService) GetContestSummary(ctx context.Context, id string, days int) (*ContestWindow, error) {
	rec, err := s.activityForWindow(ctx, id, days)
	if err != nil {
		return nil, err
	}
	w := ContestSummary(rec, days, s.now())
	return &w, nil
}

func (s *StudentService) GetProblemSummary(ctx context.Context, id string, days int) (*ProblemWindow, error) {
	rec, err := s.activityForWindow(ctx, id, days)
	if err != nil {
		return nil, err
	}
	w := ProblemSummary(rec, days, s.now(), s.loc)
	return &w, nil
}

func (s *StudentService) activityForWindow(ctx context.Context, id string, days int) (*model.ActivityRecord, error) {
	if days <= 0 || days > MaxWindowDays {
		return nil, common.NewValidationError("days", fmt.Sprintf("days must be between 1 and %d", MaxWindowDays))
	}
	if _, err := s.studentRepo.FindStudentByID(ctx, id); err != nil {
		return nil, err
	}
	return s.findActivity(ctx, id)
}

// findActivity treats a missing record as "not synced yet".
func (s *StudentService) findActivity(ctx context.Context, id string) (*model.ActivityRecord, error) {
	rec, err := s.activityRepo.FindActivityByStudentID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}
