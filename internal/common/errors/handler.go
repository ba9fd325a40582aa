// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler normalizes errors and writes them to HTTP responses
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRequestError handles any error raised while serving a request
func (h *ErrorHandler) HandleRequestError(w http.ResponseWriter, r *http.Request, err error) {
	// Normalize to StandardError
	stdErr := h.normalizeError(err)

	// Convert to API error
	apiErr := ConvertToAPIError(stdErr)

	h.logError(r, stdErr, apiErr)

	h.writeError(w, apiErr)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) writeError(w http.ResponseWriter, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)

	body, err := json.Marshal(apiErr.ToBody())
	if err != nil {
		// Fallback: minimal hand-built body
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"encoding failure"}}`))
		return
	}
	_, _ = w.Write(body)
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, apiErr *APIError) {
	h.logger.Error("Request failed", map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"errorCode":     string(stdErr.Code),
		"status":        apiErr.Status,
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
