package api

import (
	"net/http"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/api/handler"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/api/middleware"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(
	cfg RouterConfig,
	studentService *service.StudentService,
	syncService *service.SyncService,
	reminderService *service.ReminderService,
	schedule handler.Schedule,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		studentHandler := handler.NewStudentHandler(studentService, syncService)
		v1.Route("/students", studentHandler.RegisterRoutes)

		reminderHandler := handler.NewReminderHandler(reminderService)
		v1.Route("/reminders", reminderHandler.RegisterRoutes)

		scheduleHandler := handler.NewScheduleHandler(schedule)
		v1.Route("/settings/cron", scheduleHandler.RegisterRoutes)
	})

	return r
}
