package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned to clients as a coded user message from core.MapError
//   - Rendered as an HTMX fragment, JSON or plain text based on the request
//
// The status code is derived from the error itself, so handlers only call
// respondError(w, r, err).

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/table"
	"github.com/JonMunkholm/tabprep/internal/web/views"
)

var (
	// errDatabaseNotConfigured is returned by persist when no DATABASE_URL is set.
	errDatabaseNotConfigured = errors.New("database not configured")

	// errFileTooLarge is returned when a body exceeds its size limit.
	errFileTooLarge = errors.New("file too large")
)

// tooLarge reports whether err came from an http.MaxBytesReader limit.
// Multipart parsing does not always keep the typed error.
func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large")
}

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBusy), errors.Is(err, errDatabaseNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, errTooManyDatasets):
		return http.StatusConflict
	case errors.Is(err, table.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the user-facing one.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = views.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, status)
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
