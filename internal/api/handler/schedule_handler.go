package handler

import (
	"context"
	"net/http"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/scheduler"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type Schedule interface {
	Current() scheduler.Status
	Replace(expr string) (scheduler.Status, error)
	Runs(ctx context.Context, n int) ([]model.SyncRun, error)
}

type ScheduleHandler struct {
	schedule Schedule
}

func NewScheduleHandler(s Schedule) *ScheduleHandler {
	return &ScheduleHandler{schedule: s}
}

func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/current", h.current) // GET /api/v1/settings/cron/current
	r.Post("/set", h.set)        // POST /api/v1/settings/cron/set
	r.Get("/runs", h.runs)       // GET /api/v1/settings/cron/runs
}

type setScheduleRequest struct {
	Schedule string `json:"schedule" validate:"required,notblank"`
}

func (h *ScheduleHandler) current(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.schedule.Current())
}

func (h *ScheduleHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	status, err := h.schedule.Replace(req.Schedule)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *ScheduleHandler) runs(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	runs, err := h.schedule.Runs(r.Context(), limit)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if runs == nil {
		runs = []model.SyncRun{}
	}
	common.RespondWithJSON(w, http.StatusOK, runs)
}
