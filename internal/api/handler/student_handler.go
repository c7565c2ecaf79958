package handler

import (
	"net/http"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/service"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"

	"github.com/go-chi/chi/v5"
)

type StudentHandler struct {
	studentService *service.StudentService
	syncService    *service.SyncService
}

func NewStudentHandler(st *service.StudentService, ss *service.SyncService) *StudentHandler {
	return &StudentHandler{studentService: st, syncService: ss}
}

func (h *StudentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listStudents)                           // GET /api/v1/students
	r.Post("/", h.createStudent)                         // POST /api/v1/students
	r.Get("/codeforces/{handle}", h.getActivityByHandle) // GET /api/v1/students/codeforces/tourist
	r.Route("/{studentID}", func(r chi.Router) {
		r.Get("/", h.getStudent)
		r.Put("/", h.updateStudent)
		r.Delete("/", h.deleteStudent)
		r.Post("/sync-codeforces", h.syncStudent)
		r.Get("/contests", h.contestHistory)
		r.Get("/problems", h.problemStats)
	})
}

func (h *StudentHandler) listStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.ListStudents(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) createStudent(w http.ResponseWriter, r *http.Request) {
	var req service.StudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	student, err := h.studentService.CreateStudent(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) getStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentService.GetStudent(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) updateStudent(w http.ResponseWriter, r *http.Request) {
	var req service.StudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	student, err := h.studentService.UpdateStudent(r.Context(), chi.URLParam(r, "studentID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.DeleteStudent(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Student deleted successfully"})
}

func (h *StudentHandler) getActivityByHandle(w http.ResponseWriter, r *http.Request) {
	activity, err := h.studentService.GetActivityByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, activity)
}

func (h *StudentHandler) syncStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.syncService.SyncStudentByID(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) contestHistory(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", service.DefaultContestWindowDays)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	summary, err := h.studentService.GetContestSummary(r.Context(), chi.URLParam(r, "studentID"), days)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *StudentHandler) problemStats(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", service.DefaultProblemWindowDays)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	summary, err := h.studentService.GetProblemSummary(r.Context(), chi.URLParam(r, "studentID"), days)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}
