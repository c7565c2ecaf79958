package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type Student struct {
	ID                    string    `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name"`
	Email                 string    `json:"email" db:"email"`
	Phone                 string    `json:"phone,omitempty" db:"phone"`
	CodeforcesHandle      string    `json:"codeforces_handle" db:"codeforces_handle"`
	EmailRemindersEnabled bool      `json:"email_reminders_enabled" db:"email_reminders_enabled"`
	ReminderEmailCount    int       `json:"reminder_email_count" db:"reminder_email_count"`
	LastReminderSent      null.Time `json:"last_reminder_sent" db:"last_reminder_sent"`
	LastSubmissionDate    null.Time `json:"last_submission_date" db:"last_submission_date"` // Derived from sync
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// StudentWithActivity is the list/detail view; Activity is nil until the first successful sync.
type StudentWithActivity struct {
	Student
	Activity *ActivityRecord `json:"activity"`
}
