package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"
)

type ActivityRepository interface {
	FindActivityByStudentID(ctx context.Context, studentID string) (*model.ActivityRecord, error)
	// SaveSyncResult replaces the student's activity record and last_submission_date
	// in one transaction. An invalid lastSubmission clears the date.
	SaveSyncResult(ctx context.Context, rec *model.ActivityRecord, lastSubmission null.Time) error
	DeleteActivityByStudentID(ctx context.Context, studentID string) error
}

type pgActivityRepository struct {
	db *sqlx.DB
}

func NewPgActivityRepository(db *sqlx.DB) ActivityRepository {
	return &pgActivityRepository{db: db}
}

func (r *pgActivityRepository) FindActivityByStudentID(ctx context.Context, studentID string) (*model.ActivityRecord, error) {
	if !validID(studentID) {
		return nil, common.ErrNotFound
	}
	rec := &model.ActivityRecord{}
	err := r.db.QueryRowxContext(ctx, `SELECT document FROM activity_records WHERE student_id = $1`, studentID).Scan(rec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgActivityRepository.FindActivityByStudentID: %w", err)
	}
	return rec, nil
}

func (r *pgActivityRepository) SaveSyncResult(ctx context.Context, rec *model.ActivityRecord, lastSubmission null.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgActivityRepository.SaveSyncResult: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	upsert := `INSERT INTO activity_records (student_id, handle, document, last_updated)
	           VALUES ($1, $2, $3, $4)
	           ON CONFLICT (student_id) DO UPDATE
	           SET handle = EXCLUDED.handle, document = EXCLUDED.document, last_updated = EXCLUDED.last_updated`
	if _, err = tx.ExecContext(ctx, upsert, rec.StudentID, rec.Handle, *rec, rec.LastUpdated); err != nil {
		if isForeignKeyViolation(err) {
			err = common.ErrNotFound
			return err
		}
		return fmt.Errorf("pgActivityRepository.SaveSyncResult: upsert: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE students SET last_submission_date = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		lastSubmission, rec.StudentID)
	if err != nil {
		return fmt.Errorf("pgActivityRepository.SaveSyncResult: student: %w", err)
	}
	if err = expectOneRow(res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("pgActivityRepository.SaveSyncResult: commit: %w", err)
	}
	return nil
}

func (r *pgActivityRepository) DeleteActivityByStudentID(ctx context.Context, studentID string) error {
	if !validID(studentID) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activity_records WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("pgActivityRepository.DeleteActivityByStudentID: %w", err)
	}
	return nil
}
