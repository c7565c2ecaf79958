package middleware

import (
	"net/http"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		reqID := chiMiddleware.GetReqID(r.Context())
		duration := time.Since(start).Round(time.Microsecond)

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("[%s] %s %s -> %d (%v)", reqID, r.Method, r.URL.Path, status, duration)
		case status >= http.StatusBadRequest:
			logger.Warn("[%s] %s %s -> %d (%v)", reqID, r.Method, r.URL.Path, status, duration)
		default:
			logger.Info("[%s] %s %s -> %d (%v)", reqID, r.Method, r.URL.Path, status, duration)
		}
	})
}
