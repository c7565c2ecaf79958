package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type ReminderSummary struct {
	Sent    int `json:"sent"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"`
}

type ReminderStats struct {
	StudentID             string    `json:"student_id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	EmailRemindersEnabled bool      `json:"email_reminders_enabled"`
	ReminderEmailCount    int       `json:"reminder_email_count"`
	LastReminderSent      null.Time `json:"last_reminder_sent"`
	LastSubmissionDate    null.Time `json:"last_submission_date"`
}

type StudentReminderView struct {
	Student
	DaysSinceLastSubmission *int `json:"days_since_last_submission"`
	IsInactive              bool `json:"is_inactive"`
}

type EmailConfigStatus struct {
	Configured bool   `json:"configured"`
	Driver     string `json:"driver"`
	From       string `json:"from,omitempty"`
}

type SyncSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SyncRun is one scheduled or manual batch execution.
type SyncRun struct {
	ID         string          `json:"id"`
	Trigger    string          `json:"trigger"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Sync       SyncSummary     `json:"sync"`
	Reminders  ReminderSummary `json:"reminders"`
	Error      string          `json:"error,omitempty"`
}
