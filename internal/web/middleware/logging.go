// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/tabprep/internal/logging"
)

// Logger is an HTTP middleware that logs request details using structured logging.
//
// It captures request timing, status code, and key metadata for observability.
// The middleware integrates with chi's RequestID to ensure all log entries
// include the request ID for tracing.
//
// Log fields:
//   - method: HTTP method (GET, POST, etc.)
//   - path: Request URL path
//   - status: HTTP response status code
//   - duration_ms: Request processing time in milliseconds
//   - bytes: Response body size
//   - ip: Client IP address (resolved by TrustedRealIP)
//   - user_agent: Client user agent string
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		logger := logging.FromContext(r.Context())

		level := slog.LevelInfo
		if ww.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", duration.Milliseconds(),
			"ip", ClientIP(r),
			"user_agent", r.UserAgent(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap provides access to the underlying ResponseWriter for middleware
// that need to inspect it (e.g., http.Flusher).
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
