package repository

import (
	"context"
	"testing"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func newStudent(id, handle string) *model.Student {
	return &model.Student{
		ID:                    id,
		Name:                  "Student " + id,
		Email:                 id + "@example.com",
		CodeforcesHandle:      handle,
		EmailRemindersEnabled: true,
	}
}

func TestMemoryStore_StudentCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s := newStudent("s1", "tourist")
	require.NoError(t, m.CreateStudent(ctx, s))
	assert.False(t, s.CreatedAt.IsZero())

	got, err := m.FindStudentByHandle(ctx, "tourist")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	err = m.CreateStudent(ctx, newStudent("s2", "tourist"))
	assert.ErrorIs(t, err, common.ErrConflict)

	require.NoError(t, m.CreateStudent(ctx, newStudent("s2", "petr")))
	s2, _ := m.FindStudentByID(ctx, "s2")
	s2.CodeforcesHandle = "tourist"
	assert.ErrorIs(t, m.UpdateStudent(ctx, s2), common.ErrConflict)

	s2.CodeforcesHandle = "petr_new"
	s2.Name = "Petr"
	require.NoError(t, m.UpdateStudent(ctx, s2))
	got, err = m.FindStudentByID(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "Petr", got.Name)
	assert.Equal(t, "petr_new", got.CodeforcesHandle)

	_, err = m.FindStudentByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, m.DeleteStudent(ctx, "nope"), common.ErrNotFound)
	assert.ErrorIs(t, m.UpdateStudent(ctx, newStudent("nope", "x_y_z")), common.ErrNotFound)
}

func TestMemoryStore_ListOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		s := newStudent(id, "handle_"+id)
		s.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		m.SetStudent(*s)
	}

	list, err := m.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestMemoryStore_ReminderCandidates(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-7 * 24 * time.Hour)

	seed := func(id string, last null.Time, enabled bool, email string) {
		s := newStudent(id, "h_"+id)
		s.LastSubmissionDate = last
		s.EmailRemindersEnabled = enabled
		s.Email = email
		m.SetStudent(*s)
	}
	seed("six_days", null.TimeFrom(now.Add(-6*24*time.Hour)), true, "a@x.io")
	seed("seven_days", null.TimeFrom(cutoff), true, "b@x.io")
	seed("never", null.Time{}, true, "c@x.io")
	seed("disabled", null.Time{}, false, "d@x.io")
	seed("no_email", null.Time{}, true, "")

	got, err := m.ListReminderCandidates(ctx, cutoff)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, s := range got {
		ids[s.ID] = true
	}
	assert.Equal(t, map[string]bool{"seven_days": true, "never": true}, ids)
}

func TestMemoryStore_ReminderBookkeeping(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.CreateStudent(ctx, newStudent("s1", "tourist")))

	at := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)
	require.NoError(t, m.MarkReminderSent(ctx, "s1", at))
	require.NoError(t, m.MarkReminderSent(ctx, "s1", at.Add(24*time.Hour)))
	s, _ := m.FindStudentByID(ctx, "s1")
	assert.Equal(t, 2, s.ReminderEmailCount)
	assert.True(t, s.LastReminderSent.Time.Equal(at.Add(24*time.Hour)))

	s, err := m.SetRemindersEnabled(ctx, "s1", false)
	require.NoError(t, err)
	assert.False(t, s.EmailRemindersEnabled)

	s, err = m.ResetReminderCount(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, s.ReminderEmailCount)
	assert.False(t, s.LastReminderSent.Valid)

	assert.ErrorIs(t, m.MarkReminderSent(ctx, "nope", at), common.ErrNotFound)
}

func TestMemoryStore_SyncResult(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.CreateStudent(ctx, newStudent("s1", "tourist")))

	_, err := m.FindActivityByStudentID(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	last := time.Date(2024, 6, 9, 18, 0, 0, 0, time.UTC)
	rec := &model.ActivityRecord{StudentID: "s1", Handle: "tourist", CurrentRating: 3800}
	require.NoError(t, m.SaveSyncResult(ctx, rec, null.TimeFrom(last)))

	got, err := m.FindActivityByStudentID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3800, got.CurrentRating)
	s, _ := m.FindStudentByID(ctx, "s1")
	assert.True(t, s.LastSubmissionDate.Time.Equal(last))

	// a profile without submissions clears the date
	require.NoError(t, m.SaveSyncResult(ctx, rec, null.Time{}))
	s, _ = m.FindStudentByID(ctx, "s1")
	assert.False(t, s.LastSubmissionDate.Valid)

	orphan := &model.ActivityRecord{StudentID: "ghost"}
	assert.ErrorIs(t, m.SaveSyncResult(ctx, orphan, null.Time{}), common.ErrNotFound)

	require.NoError(t, m.DeleteStudent(ctx, "s1"))
	_, err = m.FindActivityByStudentID(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound, "activity goes with the student")
}
