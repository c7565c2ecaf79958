package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// MemoryStore keeps students and activity records in process. It satisfies both
// StudentRepository and ActivityRepository and backs STORE_DRIVER=memory and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	students map[string]model.Student
	activity map[string]model.ActivityRecord
	now      func() time.Time
}

var (
	_ StudentRepository  = (*MemoryStore)(nil)
	_ ActivityRepository = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students: make(map[string]model.Student),
		activity: make(map[string]model.ActivityRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) handleTaken(handle, exceptID string) bool {
	for id, s := range m.students {
		if id != exceptID && s.CodeforcesHandle == handle {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateStudent(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[s.ID]; ok {
		return errors.Wrapf(common.ErrConflict, "student %s already exists", s.ID)
	}
	if m.handleTaken(s.CodeforcesHandle, "") {
		return errors.Wrapf(common.ErrConflict, "student with codeforces handle %q already exists", s.CodeforcesHandle)
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.students[s.ID] = *s
	return nil
}

func (m *MemoryStore) UpdateStudent(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.students[s.ID]
	if !ok {
		return common.ErrNotFound
	}
	if m.handleTaken(s.CodeforcesHandle, s.ID) {
		return errors.Wrapf(common.ErrConflict, "student with codeforces handle %q already exists", s.CodeforcesHandle)
	}
	cur.Name = s.Name
	cur.Email = s.Email
	cur.Phone = s.Phone
	cur.CodeforcesHandle = s.CodeforcesHandle
	cur.EmailRemindersEnabled = s.EmailRemindersEnabled
	cur.UpdatedAt = m.now()
	m.students[s.ID] = cur
	s.UpdatedAt = cur.UpdatedAt
	return nil
}

func (m *MemoryStore) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.students, id)
	delete(m.activity, id)
	return nil
}

func (m *MemoryStore) FindStudentByID(_ context.Context, id string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) FindStudentByHandle(_ context.Context, handle string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.students {
		if s.CodeforcesHandle == handle {
			s := s
			return &s, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *MemoryStore) ListStudents(_ context.Context) ([]model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sorted(func(model.Student) bool { return true }), nil
}

func (m *MemoryStore) ListReminderCandidates(_ context.Context, inactiveSince time.Time) ([]model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sorted(func(s model.Student) bool {
		if !s.EmailRemindersEnabled || s.Email == "" {
			return false
		}
		return !s.LastSubmissionDate.Valid || !s.LastSubmissionDate.Time.After(inactiveSince)
	}), nil
}

func (m *MemoryStore) sorted(keep func(model.Student) bool) []model.Student {
	out := []model.Student{}
	for _, s := range m.students {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStore) MarkReminderSent(_ context.Context, id string, at time.Time) error {
	_, err := m.mutate(id, func(s *model.Student) {
		s.ReminderEmailCount++
		s.LastReminderSent = null.TimeFrom(at)
	})
	return err
}

func (m *MemoryStore) SetRemindersEnabled(_ context.Context, id string, enabled bool) (*model.Student, error) {
	return m.mutate(id, func(s *model.Student) { s.EmailRemindersEnabled = enabled })
}

func (m *MemoryStore) ResetReminderCount(_ context.Context, id string) (*model.Student, error) {
	return m.mutate(id, func(s *model.Student) {
		s.ReminderEmailCount = 0
		s.LastReminderSent = null.Time{}
	})
}

func (m *MemoryStore) mutate(id string, fn func(*model.Student)) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	fn(&s)
	s.UpdatedAt = m.now()
	m.students[id] = s
	return &s, nil
}

func (m *MemoryStore) FindActivityByStudentID(_ context.Context, studentID string) (*model.ActivityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.activity[studentID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore) SaveSyncResult(_ context.Context, rec *model.ActivityRecord, lastSubmission null.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[rec.StudentID]
	if !ok {
		return common.ErrNotFound
	}
	m.activity[rec.StudentID] = *rec
	s.LastSubmissionDate = lastSubmission
	s.UpdatedAt = m.now()
	m.students[rec.StudentID] = s
	return nil
}

func (m *MemoryStore) DeleteActivityByStudentID(_ context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.activity, studentID)
	return nil
}

// SetStudent overwrites a student verbatim, timestamps included. Test seeding only.
func (m *MemoryStore) SetStudent(s model.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
}
