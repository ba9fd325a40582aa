// Package errors provides standardized error handling for the audit surfaces.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidWeightTable ErrorCode = "INVALID_WEIGHT_TABLE"
	ErrCodeConfigInvalid      ErrorCode = "CONFIG_INVALID"

	ErrCodeReasoningTimeout   ErrorCode = "REASONING_TIMEOUT"
	ErrCodeReasoningRefusal   ErrorCode = "REASONING_REFUSAL"
	ErrCodeSchemaInvalid      ErrorCode = "SCHEMA_INVALID"
	ErrCodeReasoningTransport ErrorCode = "REASONING_TRANSPORT"

	ErrCodeAllAssessorsFailed ErrorCode = "ALL_ASSESSORS_FAILED"

	ErrCodeDocumentLoadFailed ErrorCode = "DOCUMENT_LOAD_FAILED"
	ErrCodeNoChunksProduced   ErrorCode = "NO_CHUNKS_PRODUCED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeRunNotFound              ErrorCode = "RUN_NOT_FOUND"

	ErrCodeIndexingFailed ErrorCode = "INDEXING_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeReportWriteFailed ErrorCode = "REPORT_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. API Error Integration
// ==========================

// APIError represents an error envelope returned by the HTTP surface.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
	Status    int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError[%s]: %s", e.Code, e.Message)
}

// ToBody returns a map suitable for JSON encoding as the response body.
func (e *APIError) ToBody() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":      e.Code,
			"message":   e.Message,
			"details":   e.Details,
			"retryable": e.Retryable,
		},
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidWeightTableError creates a non-retryable configuration error.
func NewInvalidWeightTableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidWeightTable,
		Message:   "Assessor weight table does not sum to 1.0",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError creates a non-retryable configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Configuration validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningTimeoutError creates a retryable reasoning service timeout error.
func NewReasoningTimeoutError(assessor string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningTimeout,
		Message:   "Reasoning service call exceeded its deadline",
		Details:   fmt.Sprintf("assessor: %s", assessor),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningRefusalError creates a non-retryable refusal error.
func NewReasoningRefusalError(assessor, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningRefusal,
		Message:   "Reasoning service declined to answer",
		Details:   fmt.Sprintf("assessor: %s, refusal: %s", assessor, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaInvalidError creates a retryable schema validation error.
func NewSchemaInvalidError(assessor, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaInvalid,
		Message:   "Reasoning answer failed schema validation",
		Details:   fmt.Sprintf("assessor: %s, error: %s", assessor, details),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReasoningTransportError creates a retryable transport error.
func NewReasoningTransportError(assessor string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReasoningTransport,
		Message:   "Reasoning service transport fault",
		Details:   fmt.Sprintf("assessor: %s, error: %s", assessor, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAllAssessorsFailedError creates a retryable evaluation error.
func NewAllAssessorsFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAllAssessorsFailed,
		Message:   "Every configured assessor failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentLoadFailedError creates a non-retryable loader error.
func NewDocumentLoadFailedError(origin string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentLoadFailed,
		Message:   "Document could not be loaded",
		Details:   fmt.Sprintf("origin: %s, error: %s", origin, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoChunksProducedError creates a non-retryable pipeline error.
func NewNoChunksProducedError(origin string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoChunksProduced,
		Message:   "Document produced no auditable chunks",
		Details:   fmt.Sprintf("origin: %s", origin),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunNotFoundError creates a non-retryable lookup error.
func NewRunNotFoundError(runID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunNotFound,
		Message:   "Audit run not found",
		Details:   fmt.Sprintf("runId: %s", runID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingFailedError creates a retryable indexing error.
func NewIndexingFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Chunk result indexing failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportWriteFailedError creates a retryable report write error.
func NewReportWriteFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportWriteFailed,
		Message:   "Report file write failed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to API
// ==========================

// httpStatusMapping maps internal error codes to HTTP status codes.
var httpStatusMapping = map[ErrorCode]int{
	ErrCodeInvalidWeightTable:       http.StatusInternalServerError,
	ErrCodeConfigInvalid:            http.StatusInternalServerError,
	ErrCodeReasoningTimeout:         http.StatusGatewayTimeout,
	ErrCodeReasoningRefusal:         http.StatusBadGateway,
	ErrCodeSchemaInvalid:            http.StatusBadGateway,
	ErrCodeReasoningTransport:       http.StatusBadGateway,
	ErrCodeAllAssessorsFailed:       http.StatusBadGateway,
	ErrCodeDocumentLoadFailed:       http.StatusBadRequest,
	ErrCodeNoChunksProduced:         http.StatusUnprocessableEntity,
	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeDatabaseInsertFailed:     http.StatusServiceUnavailable,
	ErrCodeRunNotFound:              http.StatusNotFound,
	ErrCodeIndexingFailed:           http.StatusServiceUnavailable,
	ErrCodeNotificationSendFailed:   http.StatusServiceUnavailable,
	ErrCodeReportWriteFailed:        http.StatusInternalServerError,
}

// ConvertToAPIError converts a StandardError into an APIError for the HTTP surface.
func ConvertToAPIError(stdErr *StandardError) *APIError {
	status, exists := httpStatusMapping[stdErr.Code]
	if !exists {
		status = http.StatusInternalServerError
	}

	return &APIError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Status:    status,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code names a transient fault.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeReasoningTimeout,
		ErrCodeSchemaInvalid,
		ErrCodeReasoningTransport,
		ErrCodeAllAssessorsFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeIndexingFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeReportWriteFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "WEIGHT") || strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	case strings.Contains(codeStr, "REASONING") || strings.Contains(codeStr, "SCHEMA") || strings.Contains(codeStr, "ASSESSOR"):
		return "ASSESSMENT"
	case strings.Contains(codeStr, "DOCUMENT") || strings.Contains(codeStr, "CHUNK"):
		return "PIPELINE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "RUN"):
		return "STORAGE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "REPORT"):
		return "REPORTING"
	default:
		return "OTHER"
	}
}
