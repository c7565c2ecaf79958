package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common/security"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/repository"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/mail"
)

const day = 24 * time.Hour

type ReminderConfig struct {
	AppName             string
	PublicBaseURL       string
	InactivityThreshold time.Duration
	Cooldown            time.Duration
	MailDriver          string
	MailFrom            string
}

type ReminderService struct {
	studentRepo repository.StudentRepository
	sender      mail.Sender // nil when mail is not configured
	tokens      *security.TokenIssuer
	cfg         ReminderConfig
	now         func() time.Time
}

func NewReminderService(sr repository.StudentRepository, sender mail.Sender, tokens *security.TokenIssuer, cfg ReminderConfig) *ReminderService {
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = 7 * day
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = day
	}
	return &ReminderService{
		studentRepo: sr,
		sender:      sender,
		tokens:      tokens,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *ReminderService) MailConfigured() bool { return s.sender != nil }

// CheckAndSendReminders emails every inactive student outside the cooldown.
// Without a mail transport it does nothing and returns zero counts.
func (s *ReminderService) CheckAndSendReminders(ctx context.Context) (model.ReminderSummary, error) {
	var summary model.ReminderSummary
	if s.sender == nil {
		logger.Warn("Email is not configured, skipping reminder emails")
		return summary, nil
	}

	now := s.now()
	candidates, err := s.studentRepo.ListReminderCandidates(ctx, now.Add(-s.cfg.InactivityThreshold))
	if err != nil {
		return summary, fmt.Errorf("ReminderService.CheckAndSendReminders: %w", err)
	}
	logger.Info("Found %d inactive students eligible for reminders", len(candidates))

	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		st := &candidates[i]

		if st.LastReminderSent.Valid && now.Sub(st.LastReminderSent.Time) < s.cfg.Cooldown {
			summary.Skipped++
			logger.Debug("Skipping reminder for %s, last one sent %s", st.Name, st.LastReminderSent.Time.Format(time.RFC3339))
			continue
		}

		if err := s.sendReminder(ctx, st); err != nil {
			summary.Errors++
			logger.Error("Failed to send reminder to %s (%s): %v", st.Name, st.Email, err)
			continue
		}
		if err := s.studentRepo.MarkReminderSent(ctx, st.ID, now); err != nil {
			summary.Errors++
			logger.Error("Reminder sent to %s but recording it failed: %v", st.Email, err)
			continue
		}
		summary.Sent++
		logger.Info("Reminder sent to %s (%s)", st.Name, st.Email)
	}

	logger.Success("Reminder summary: %d sent, %d errors, %d skipped", summary.Sent, summary.Errors, summary.Skipped)
	return summary, nil
}

// CheckNow is the manual trigger; unlike the scheduled path it refuses to run without mail.
func (s *ReminderService) CheckNow(ctx context.Context) (model.ReminderSummary, error) {
	if s.sender == nil {
		return model.ReminderSummary{}, common.ErrMailNotConfigured
	}
	logger.Info("Manual reminder check triggered")
	return s.CheckAndSendReminders(ctx)
}

func (s *ReminderService) sendReminder(ctx context.Context, st *model.Student) error {
	data := mail.ReminderData{
		AppName:      s.cfg.AppName,
		Name:         st.Name,
		Handle:       st.CodeforcesHandle,
		InactiveDays: int(s.cfg.InactivityThreshold / day),
	}
	if s.tokens != nil && s.cfg.PublicBaseURL != "" {
		token, err := s.tokens.GenerateUnsubscribeToken(st.ID)
		if err != nil {
			return fmt.Errorf("signing unsubscribe link: %w", err)
		}
		data.UnsubscribeURL = s.cfg.PublicBaseURL + "/api/v1/reminders/unsubscribe?token=" + url.QueryEscape(token)
	}
	return s.sender.Send(ctx, mail.NewReminderMessage(st.Name, st.Email, data))
}

func (s *ReminderService) ToggleReminders(ctx context.Context, id string, enabled bool) (*model.Student, error) {
	student, err := s.studentRepo.SetRemindersEnabled(ctx, id, enabled)
	if err != nil {
		return nil, err
	}
	logger.Info("Email reminders %s for %s", enabledWord(enabled), student.Name)
	return student, nil
}

func (s *ReminderService) ResetReminderCount(ctx context.Context, id string) (*model.Student, error) {
	return s.studentRepo.ResetReminderCount(ctx, id)
}

func (s *ReminderService) GetReminderStats(ctx context.Context, id string) (*model.ReminderStats, error) {
	st, err := s.studentRepo.FindStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ReminderStats{
		StudentID:             st.ID,
		Name:                  st.Name,
		Email:                 st.Email,
		EmailRemindersEnabled: st.EmailRemindersEnabled,
		ReminderEmailCount:    st.ReminderEmailCount,
		LastReminderSent:      st.LastReminderSent,
		LastSubmissionDate:    st.LastSubmissionDate,
	}, nil
}

// ListStudentsWithReminderInfo adds whole days since the last submission and
// an inactivity flag; a student with no known submission counts as inactive.
func (s *ReminderService) ListStudentsWithReminderInfo(ctx context.Context) ([]model.StudentReminderView, error) {
	students, err := s.studentRepo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	thresholdDays := int(s.cfg.InactivityThreshold / day)

	out := make([]model.StudentReminderView, 0, len(students))
	for _, st := range students {
		view := model.StudentReminderView{Student: st, IsInactive: true}
		if st.LastSubmissionDate.Valid {
			days := int(now.Sub(st.LastSubmissionDate.Time) / day)
			if days < 0 {
				days = 0
			}
			view.DaysSinceLastSubmission = &days
			view.IsInactive = days >= thresholdDays
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *ReminderService) EmailConfigStatus() model.EmailConfigStatus {
	status := model.EmailConfigStatus{Configured: s.sender != nil, Driver: s.cfg.MailDriver}
	if status.Configured {
		status.From = s.cfg.MailFrom
	}
	return status
}

// Unsubscribe disables reminders for the student named in a signed link.
func (s *ReminderService) Unsubscribe(ctx context.Context, token string) (*model.Student, error) {
	if s.tokens == nil {
		return nil, common.ErrServiceUnavailable
	}
	id, err := s.tokens.ParseUnsubscribeToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBadRequest, err)
	}
	student, err := s.studentRepo.SetRemindersEnabled(ctx, id, false)
	if err != nil {
		return nil, err
	}
	logger.Info("%s unsubscribed from reminder emails", student.Name)
	return student, nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
