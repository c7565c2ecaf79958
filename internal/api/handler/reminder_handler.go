package handler

import (
	"net/http"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/service"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ReminderHandler struct {
	reminderService *service.ReminderService
}

func NewReminderHandler(rs *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: rs}
}

func (h *ReminderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats/{studentID}", h.stats)
	r.Patch("/toggle/{studentID}", h.toggle)
	r.Post("/reset-count/{studentID}", h.resetCount)
	r.Post("/check-now", h.checkNow)
	r.Get("/email-config", h.emailConfig)
	r.Get("/students", h.listStudents)
	r.Get("/unsubscribe", h.unsubscribe) // linked from reminder emails
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type studentMessage struct {
	Message string         `json:"message"`
	Student *model.Student `json:"student"`
}

func (h *ReminderHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reminderService.GetReminderStats(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *ReminderHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, common.NewValidationError("enabled", "enabled must be a boolean"))
		return
	}
	if req.Enabled == nil {
		common.RespondWithDomainError(w, common.NewValidationError("enabled", "enabled must be a boolean"))
		return
	}

	student, err := h.reminderService.ToggleReminders(r.Context(), chi.URLParam(r, "studentID"), *req.Enabled)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	msg := "Email reminders disabled"
	if *req.Enabled {
		msg = "Email reminders enabled"
	}
	common.RespondWithJSON(w, http.StatusOK, studentMessage{Message: msg, Student: student})
}

func (h *ReminderHandler) resetCount(w http.ResponseWriter, r *http.Request) {
	student, err := h.reminderService.ResetReminderCount(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, studentMessage{Message: "Reminder count reset", Student: student})
}

func (h *ReminderHandler) checkNow(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reminderService.CheckNow(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *ReminderHandler) emailConfig(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.reminderService.EmailConfigStatus())
}

func (h *ReminderHandler) listStudents(w http.ResponseWriter, r *http.Request) {
	views, err := h.reminderService.ListStudentsWithReminderInfo(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, views)
}

func (h *ReminderHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		common.RespondWithDomainError(w, common.NewValidationError("token", "token is required"))
		return
	}
	student, err := h.reminderService.Unsubscribe(r.Context(), token)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, studentMessage{
		Message: "You will no longer receive reminder emails",
		Student: student,
	})
}
