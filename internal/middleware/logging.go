package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// logFields is filled in by inner middleware so the request line can carry
// values resolved after Logging ran.
type logFields struct {
	companyID uuid.UUID
}

func annotateCompany(ctx context.Context, companyID uuid.UUID) {
	if fields, ok := ctx.Value(logFieldsKey).(*logFields); ok {
		fields.companyID = companyID
	}
}

// Logging emits one http_request line per request; 5xx responses are logged
// at error level.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
			fields := &logFields{}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logFieldsKey, fields)))

			level := slog.LevelInfo
			if ww.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"bytes", ww.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFromContext(r.Context()),
			}
			if fields.companyID != uuid.Nil {
				attrs = append(attrs, "company_id", fields.companyID)
			}
			logger.Log(r.Context(), level, "http_request", attrs...)
		})
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
