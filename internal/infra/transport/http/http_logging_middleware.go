package http

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"

	"github.com/mkrupp/blobrelay/internal/infra/logging"
)

// LoggingMiddleware logs every request at DEBUG and its response at a level
// chosen by status code: ERROR for 5xx, WARN for 4xx, INFO otherwise.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.DebugContext(r.Context(), "request", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
		))

		m := httpsnoop.CaptureMetrics(next, w, r)

		var level logging.Level

		switch {
		case m.Code >= http.StatusInternalServerError:
			level = logging.LevelError
		case m.Code >= http.StatusBadRequest:
			level = logging.LevelWarn
		default:
			level = logging.LevelInfo
		}

		log.Log(r.Context(), level, "response", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
			"status", m.Code,
			"bytes_sent", m.Written,
			"duration_ms", m.Duration.Milliseconds(),
		))
	})
}
