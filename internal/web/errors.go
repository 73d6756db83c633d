package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical text and the request ID, then
// mapped through core.MapError so the client only ever sees the message,
// action and support code. The response shape follows the client:
//
//	HX-Request: true        ErrorSection fragment replacing #results
//	JSON client or /api/*   ErrorResponse via go-chi/render
//	anything else           full page with the alert

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/JonMunkholm/DataTransformer/internal/logging"
	"github.com/JonMunkholm/DataTransformer/internal/web/templates"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// respondError logs err and writes a user-friendly response with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	requestID := middleware.GetReqID(r.Context())

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		render.Status(r, statusCode)
		render.JSON(w, r, ErrorResponse{
			Error:     userMsg.Message,
			Message:   userMsg.Message,
			Action:    userMsg.Action,
			Code:      userMsg.Code,
			Detail:    userMsg.Detail,
			RequestID: requestID,
		})
	default:
		respondErrorHTML(w, r, userMsg, statusCode)
	}
}

// respondErrorHTML writes a full page holding the alert.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	page := templates.Layout("Error "+msg.Code, templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// renderErrorPartial renders an HTMX error fragment. The page's htmx config
// swaps 4xx and 5xx responses, so it takes the place of the results section.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorSection(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error partial", "error", err)
	}
}

// statusFor picks the HTTP status for a batch-level error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrSerialization), errors.Is(err, core.ErrUnknownColumn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNoFiles), errors.Is(err, core.ErrTooManyFiles),
		errors.Is(err, core.ErrInvalidChoices), errors.Is(err, core.ErrInvalidForm),
		errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrMalformedFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
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
