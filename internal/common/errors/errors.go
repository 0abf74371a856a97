// Package errors provides standardized error handling for the applicant portal.
package errors

import (
	"errors"
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
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeCandidateRequestFailed      ErrorCode = "CANDIDATE_REQUEST_FAILED"
	ErrCodeReferenceDataUnavailable    ErrorCode = "REFERENCE_DATA_UNAVAILABLE"
	ErrCodeSubmissionInFlight          ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeAlreadySubmitted            ErrorCode = "ALREADY_SUBMITTED"
	ErrCodeSessionStoreFailed          ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeMalformedRequest            ErrorCode = "MALFORMED_REQUEST"
	ErrCodeInternal                    ErrorCode = "INTERNAL_ERROR"
)

// User facing messages. Every candidate request failure maps to MsgSubmissionFailed.
const (
	MsgSubmissionFailed   = "Failed to submit application. Please try again."
	MsgSubmissionSuccess  = "Application submitted successfully!"
	MsgUnexpectedResponse = "Unexpected response from server."
	MsgFetchJobsFailed    = "Failed to fetch jobs."
	MsgFetchLevelsFailed  = "Failed to fetch job levels."
	MsgSubmissionPending  = "Your application is already being submitted."
	MsgAlreadySubmitted   = "Your application was already submitted. Close the confirmation to start a new one."
	MsgFixHighlighted     = "Please correct the highlighted fields."
	MsgSomethingWentWrong = "Something went wrong. Please reload the page."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError reports a draft that failed one or more field rules.
// fields maps the form field name to its inline message.
func NewValidationFailedError(fields map[string]string) *StandardError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	meta := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		meta[k] = v
	}
	return &StandardError{
		Code:      ErrCodeApplicationValidationFailed,
		Message:   MsgFixHighlighted,
		Details:   fmt.Sprintf("invalid fields: %s", strings.Join(names, ",")),
		Retryable: false,
		Metadata:  meta,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateRequestError covers both non-success statuses and transport failures.
func NewCandidateRequestError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateRequestFailed,
		Message:   MsgSubmissionFailed,
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewReferenceDataUnavailableError reports a list that could not be loaded.
func NewReferenceDataUnavailableError(list, message string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReferenceDataUnavailable,
		Message:   message,
		Details:   fmt.Sprintf("list: %s, error: %v", list, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"list": list},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ErrSubmissionInFlight is the cause carried by NewSubmissionInFlightError.
var ErrSubmissionInFlight = errors.New("submission already in flight")

func NewSubmissionInFlightError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   MsgSubmissionPending,
		Details:   fmt.Sprintf("session: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrSubmissionInFlight,
	}
}

// ErrAlreadySubmitted is the cause carried by NewAlreadySubmittedError.
var ErrAlreadySubmitted = errors.New("submission accepted and not yet dismissed")

// NewAlreadySubmittedError rejects a submit while the previous success has not been dismissed.
func NewAlreadySubmittedError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySubmitted,
		Message:   MsgAlreadySubmitted,
		Details:   fmt.Sprintf("session: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrAlreadySubmitted,
	}
}

func NewSessionStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   MsgSomethingWentWrong,
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewMalformedRequestError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRequest,
		Message:   "The form could not be read.",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   MsgSomethingWentWrong,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

// HTTPStatus maps an error code to the status the portal answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeApplicationValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeMalformedRequest:
		return http.StatusBadRequest
	case ErrCodeSubmissionInFlight, ErrCodeAlreadySubmitted:
		return http.StatusConflict
	case ErrCodeCandidateRequestFailed, ErrCodeReferenceDataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeApplicationValidationFailed, ErrCodeMalformedRequest:
		return "VALIDATION"
	case ErrCodeCandidateRequestFailed, ErrCodeReferenceDataUnavailable:
		return "BACKEND"
	case ErrCodeSubmissionInFlight, ErrCodeAlreadySubmitted:
		return "CONCURRENCY"
	case ErrCodeSessionStoreFailed:
		return "STORAGE"
	default:
		return "OTHER"
	}
}
