// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler logs errors and renders them as JSON responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Response is the JSON body written for failed portal requests.
type Response struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleHTTPError normalizes err, logs it and writes the matching JSON response.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := AsStandard(err)
	h.Log(r, stdErr)

	resp := Response{Code: stdErr.Code, Message: stdErr.Message}
	if stdErr.Code == ErrCodeApplicationValidationFailed {
		resp.Fields = FieldMessages(stdErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(stdErr.Code))
	_ = json.NewEncoder(w).Encode(resp)
}

// Log records stdErr. Validation failures are expected and logged at warn level.
func (h *ErrorHandler) Log(r *http.Request, stdErr *StandardError) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}

	switch stdErr.Code {
	case ErrCodeApplicationValidationFailed, ErrCodeSubmissionInFlight, ErrCodeAlreadySubmitted, ErrCodeMalformedRequest:
		h.logger.Warn("request rejected", fields)
	default:
		h.logger.Error("request failed", fields)
	}
}

// FieldMessages extracts the per-field messages carried by a validation error.
func FieldMessages(stdErr *StandardError) map[string]string {
	out := make(map[string]string, len(stdErr.Metadata))
	for k, v := range stdErr.Metadata {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
