package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }

func TestAsStandard(t *testing.T) {
	assert.Nil(t, AsStandard(nil))

	plain := AsStandard(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)

	wrapped := fmt.Errorf("submit: %w", NewSubmissionInFlightError("s-1"))
	assert.Equal(t, ErrCodeSubmissionInFlight, AsStandard(wrapped).Code)
	assert.True(t, HasCode(wrapped, ErrCodeSubmissionInFlight))
	assert.False(t, HasCode(wrapped, ErrCodeInternal))
}

func TestCandidateRequestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewCandidateRequestError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, MsgSubmissionFailed, err.Message)
	assert.True(t, err.Retryable)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeApplicationValidationFailed, http.StatusUnprocessableEntity},
		{ErrCodeMalformedRequest, http.StatusBadRequest},
		{ErrCodeSubmissionInFlight, http.StatusConflict},
		{ErrCodeAlreadySubmitted, http.StatusConflict},
		{ErrCodeCandidateRequestFailed, http.StatusBadGateway},
		{ErrCodeSessionStoreFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestErrorHandler_ValidationFailure(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/application", nil)
	h.HandleHTTPError(rec, req, NewValidationFailedError(map[string]string{
		"contact_email": "Invalid email address",
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeApplicationValidationFailed, body.Code)
	assert.Equal(t, "Invalid email address", body.Fields["contact_email"])

	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestErrorHandler_InternalFailure(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	h.HandleHTTPError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, log.errors, 1)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeApplicationValidationFailed))
	assert.Equal(t, "BACKEND", GetErrorCategory(ErrCodeReferenceDataUnavailable))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeSessionStoreFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestAlreadySubmittedError(t *testing.T) {
	err := NewAlreadySubmittedError("s-1")

	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, MsgAlreadySubmitted, err.Message)
	assert.False(t, err.Retryable)
	assert.Equal(t, "CONCURRENCY", GetErrorCategory(err.Code))

	log := &recordingLogger{}
	NewErrorHandler(log).Log(nil, err)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}
