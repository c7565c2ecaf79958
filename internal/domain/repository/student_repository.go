package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type StudentRepository interface {
	CreateStudent(ctx context.Context, s *model.Student) error
	UpdateStudent(ctx context.Context, s *model.Student) error
	DeleteStudent(ctx context.Context, id string) error // Also removes the paired activity record
	FindStudentByID(ctx context.Context, id string) (*model.Student, error)
	FindStudentByHandle(ctx context.Context, handle string) (*model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)

	// ListReminderCandidates returns students with reminders enabled, a non-empty
	// email and a last submission that is unknown or at or before inactiveSince.
	ListReminderCandidates(ctx context.Context, inactiveSince time.Time) ([]model.Student, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	SetRemindersEnabled(ctx context.Context, id string, enabled bool) (*model.Student, error)
	ResetReminderCount(ctx context.Context, id string) (*model.Student, error)
}

const studentColumns = `id, name, email, phone, codeforces_handle, email_reminders_enabled,
	reminder_email_count, last_reminder_sent, last_submission_date, created_at, updated_at`

type pgStudentRepository struct {
	db *sqlx.DB
}

func NewPgStudentRepository(db *sqlx.DB) StudentRepository {
	return &pgStudentRepository{db: db}
}

func (r *pgStudentRepository) CreateStudent(ctx context.Context, s *model.Student) error {
	query := `INSERT INTO students (id, name, email, phone, codeforces_handle, email_reminders_enabled, reminder_email_count)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, s.ID, s.Name, s.Email, s.Phone, s.CodeforcesHandle, s.EmailRemindersEnabled, s.ReminderEmailCount).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("student with codeforces handle %q already exists: %w", s.CodeforcesHandle, common.ErrConflict)
		}
		return fmt.Errorf("pgStudentRepository.CreateStudent: %w", err)
	}
	return nil
}

func (r *pgStudentRepository) UpdateStudent(ctx context.Context, s *model.Student) error {
	if !validID(s.ID) {
		return common.ErrNotFound
	}
	query := `UPDATE students SET
                name = $1, email = $2, phone = $3, codeforces_handle = $4,
                email_reminders_enabled = $5, updated_at = CURRENT_TIMESTAMP
              WHERE id = $6
              RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, s.Name, s.Email, s.Phone, s.CodeforcesHandle, s.EmailRemindersEnabled, s.ID).
		Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("student with codeforces handle %q already exists: %w", s.CodeforcesHandle, common.ErrConflict)
		}
		return fmt.Errorf("pgStudentRepository.UpdateStudent: %w", err)
	}
	return nil
}

func (r *pgStudentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	// activity_records rows go with it (ON DELETE CASCADE)
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.DeleteStudent: %w", err)
	}
	return expectOneRow(res)
}

func (r *pgStudentRepository) FindStudentByID(ctx context.Context, id string) (*model.Student, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	s := &model.Student{}
	err := r.db.GetContext(ctx, s, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStudentRepository.FindStudentByID: %w", err)
	}
	return s, nil
}

func (r *pgStudentRepository) FindStudentByHandle(ctx context.Context, handle string) (*model.Student, error) {
	s := &model.Student{}
	err := r.db.GetContext(ctx, s, `SELECT `+studentColumns+` FROM students WHERE codeforces_handle = $1`, handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStudentRepository.FindStudentByHandle: %w", err)
	}
	return s, nil
}

func (r *pgStudentRepository) ListStudents(ctx context.Context) ([]model.Student, error) {
	students := []model.Student{}
	if err := r.db.SelectContext(ctx, &students, `SELECT `+studentColumns+` FROM students ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("pgStudentRepository.ListStudents: %w", err)
	}
	return students, nil
}

func (r *pgStudentRepository) ListReminderCandidates(ctx context.Context, inactiveSince time.Time) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
              WHERE email_reminders_enabled = TRUE
                AND email <> ''
                AND (last_submission_date IS NULL OR last_submission_date <= $1)
              ORDER BY created_at, id`

	students := []model.Student{}
	if err := r.db.SelectContext(ctx, &students, query, inactiveSince); err != nil {
		return nil, fmt.Errorf("pgStudentRepository.ListReminderCandidates: %w", err)
	}
	return students, nil
}

func (r *pgStudentRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	query := `UPDATE students SET
                reminder_email_count = reminder_email_count + 1,
                last_reminder_sent = $1, updated_at = CURRENT_TIMESTAMP
              WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.MarkReminderSent: %w", err)
	}
	return expectOneRow(res)
}

func (r *pgStudentRepository) SetRemindersEnabled(ctx context.Context, id string, enabled bool) (*model.Student, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	query := `UPDATE students SET email_reminders_enabled = $1, updated_at = CURRENT_TIMESTAMP
              WHERE id = $2 RETURNING ` + studentColumns
	return r.updateReturning(ctx, "SetRemindersEnabled", query, enabled, id)
}

func (r *pgStudentRepository) ResetReminderCount(ctx context.Context, id string) (*model.Student, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	query := `UPDATE students SET reminder_email_count = 0, last_reminder_sent = NULL, updated_at = CURRENT_TIMESTAMP
              WHERE id = $1 RETURNING ` + studentColumns
	return r.updateReturning(ctx, "ResetReminderCount", query, id)
}

func (r *pgStudentRepository) updateReturning(ctx context.Context, op, query string, args ...interface{}) (*model.Student, error) {
	s := &model.Student{}
	if err := r.db.GetContext(ctx, s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStudentRepository.%s: %w", op, err)
	}
	return s, nil
}

// validID rejects ids the UUID column could never hold, which would otherwise
// surface as a 22P02 error instead of a miss.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
