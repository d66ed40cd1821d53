// Package errors provides the structured error type shared by the wizard API,
// the backend client and the underwriting job worker.
package errors

import (
	stderrors "errors"
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
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidField      ErrorCode = "INVALID_FIELD"
	ErrCodeStepOutOfRange    ErrorCode = "STEP_OUT_OF_RANGE"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidPoolType   ErrorCode = "INVALID_POOL_TYPE"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeBackendRequestFailed ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeBackendUnavailable   ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeUnauthenticated      ErrorCode = "UNAUTHENTICATED"

	ErrCodePayloadSchemaInvalid ErrorCode = "PAYLOAD_SCHEMA_INVALID"
	ErrCodeLedgerWriteFailed    ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeNotificationFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodePoolValidationFailed ErrorCode = "POOL_VALIDATION_FAILED"
	ErrCodeProcessStartFailed   ErrorCode = "PROCESS_START_FAILED"
	ErrCodeInputParsingFailed   ErrorCode = "INPUT_PARSING_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError reports a step whose fields still have problems.
func NewValidationFailedError(step int, fieldErrors map[string][]string) *StandardError {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	err := newError(ErrCodeValidationFailed, "Please fix the highlighted fields before continuing",
		fmt.Sprintf("step: %d, fields: %s", step, strings.Join(fields, ",")), false)
	err.Metadata = map[string]interface{}{
		"step":   step,
		"errors": fieldErrors,
	}
	return err
}

func NewInvalidFieldError(field, details string) *StandardError {
	return newError(ErrCodeInvalidField, fmt.Sprintf("Unknown or invalid field '%s'", field), details, false)
}

func NewStepOutOfRangeError(step int) *StandardError {
	return newError(ErrCodeStepOutOfRange, "Step must be between 1 and 6", fmt.Sprintf("step: %d", step), false)
}

func NewInvalidTransitionError(message string, step int) *StandardError {
	return newError(ErrCodeInvalidTransition, message, fmt.Sprintf("currentStep: %d", step), false)
}

func NewInvalidPoolTypeError(poolType string) *StandardError {
	return newError(ErrCodeInvalidPoolType, "Pool type must be 'equity' or 'refinance'",
		fmt.Sprintf("poolType: %s", poolType), false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Malformed request", details, false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Wizard session not found or expired",
		fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error", err.Error(), true)
}

// NewBackendRequestFailedError wraps a non-2xx backend answer. message is the
// user-facing text, already parsed from the backend's {error} payload.
func NewBackendRequestFailedError(endpoint string, status int, message string) *StandardError {
	err := newError(ErrCodeBackendRequestFailed, message, fmt.Sprintf("endpoint: %s, status: %d", endpoint, status), false)
	err.Metadata = map[string]interface{}{"status": status, "endpoint": endpoint}
	return err
}

func NewBackendUnavailableError(endpoint string, err error) *StandardError {
	return newError(ErrCodeBackendUnavailable, "Could not reach the lending service",
		fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()), true)
}

func NewUnauthenticatedError(details string) *StandardError {
	return newError(ErrCodeUnauthenticated, "Please sign in to continue", details, false)
}

func NewPayloadSchemaInvalidError(details string) *StandardError {
	return newError(ErrCodePayloadSchemaInvalid, "Pool payload does not match the create-pool contract", details, false)
}

func NewLedgerWriteFailedError(err error) *StandardError {
	return newError(ErrCodeLedgerWriteFailed, "Submission ledger write failed", err.Error(), true)
}

func NewNotificationFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewPoolValidationFailedError(details string) *StandardError {
	return newError(ErrCodePoolValidationFailed, "Submitted pool failed validation", details, false)
}

func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed, "Could not start underwriting process",
		fmt.Sprintf("processId: %s, error: %s", processID, err.Error()), true)
}

func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Conversions
// ==========================

// AsStandardError unwraps err into a StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always yields a StandardError, wrapping foreign errors as internal ones.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the status the wizard API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodePayloadSchemaInvalid:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidField, ErrCodeStepOutOfRange, ErrCodeInvalidPoolType, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeBackendRequestFailed, ErrCodeBackendUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionStoreFailed,
		ErrCodeBackendUnavailable,
		ErrCodeLedgerWriteFailed,
		ErrCodeNotificationFailed,
		ErrCodeProcessStartFailed:
		return 3

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "BACKEND") || code == ErrCodeUnauthenticated:
		return "BACKEND"
	case strings.Contains(codeStr, "LEDGER"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "PROCESS"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "STEP"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
