package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/logger"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/validator"
)

// Response is the success envelope: {"success": true, "data": ...}.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the error envelope: {"error": "<Kind>", "message": "..."}.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   string            `json:"details,omitempty"`
	Stack     string            `json:"stack,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess wraps data in the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Success: true, Data: data})
}

// ErrorWriter maps errors to the error envelope and logs the original error.
// When exposeDetails is set (non-production), internal errors carry the
// underlying error chain in "details".
type ErrorWriter struct {
	logger        *slog.Logger
	exposeDetails bool
}

// NewErrorWriter creates an ErrorWriter.
func NewErrorWriter(l *slog.Logger, exposeDetails bool) *ErrorWriter {
	return &ErrorWriter{logger: l, exposeDetails: exposeDetails}
}

// ExposeDetails reports whether internal error details are returned to clients.
func (ew *ErrorWriter) ExposeDetails() bool {
	return ew.exposeDetails
}

// Write writes the error response for err. It prefers the request-scoped
// logger (set by the RequestLogger middleware) over the writer's own logger.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = ew.logger
	}

	resp := ErrorResponse{RequestID: logger.CorrelationIDFromContext(r.Context())}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		err = valErr.AppError()
	}

	status := apperrors.HTTPStatus(err)
	resp.Error = apperrors.Kind(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Fields = appErr.Fields
	} else {
		resp.Message = defaultMessage(status, err)
	}

	if status >= http.StatusInternalServerError {
		resp.Message = "an internal error occurred"
		if ew.exposeDetails {
			resp.Details = err.Error()
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	} else {
		l.DebugContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
		)
	}

	WriteJSON(w, status, resp)
}

// WritePanic writes a 500 response for a recovered panic. The stack is only
// included when details are exposed.
func (ew *ErrorWriter) WritePanic(w http.ResponseWriter, r *http.Request, recovered any, stack []byte) {
	resp := ErrorResponse{
		Error:     apperrors.KindInternal,
		Message:   "an internal error occurred",
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}
	if ew.exposeDetails {
		if e, ok := recovered.(error); ok {
			resp.Details = e.Error()
		} else if s, ok := recovered.(string); ok {
			resp.Details = s
		}
		resp.Stack = string(stack)
	}
	WriteJSON(w, http.StatusInternalServerError, resp)
}

func defaultMessage(status int, err error) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "resource already exists"
	default:
		return err.Error()
	}
}

// ParseID parses a path identifier. A malformed id cannot name an existing
// resource, so it is reported as NotFound.
func ParseID(resource, param string) (string, error) {
	id, err := uuid.Parse(param)
	if err != nil {
		return "", apperrors.NotFound(resource, param)
	}
	return id.String(), nil
}
