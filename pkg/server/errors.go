package server

import (
	"net/http"
	"time"

	taxonerrors "github.com/NVIDIA/cluster-inventory/pkg/errors"
	"github.com/NVIDIA/cluster-inventory/pkg/serializer"
	"github.com/google/uuid"
)

// ErrorResponse represents error responses as per OpenAPI spec
type ErrorResponse struct {
	Code      string         `json:"code" yaml:"code"`
	Message   string         `json:"message" yaml:"message"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	RequestID string         `json:"requestId" yaml:"requestId"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Retryable bool           `json:"retryable" yaml:"retryable"`
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
// Unknown codes map to 500 so new codes fail safe.
func HTTPStatusFromCode(code taxonerrors.ErrorCode) int {
	switch code {
	case taxonerrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case taxonerrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case taxonerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case taxonerrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case taxonerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case taxonerrors.ErrCodeInputUnavailable:
		return http.StatusBadGateway
	case taxonerrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case taxonerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case taxonerrors.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// retryableFromCode reports whether a client may retry the failed request.
func retryableFromCode(code taxonerrors.ErrorCode) bool {
	switch code {
	case taxonerrors.ErrCodeTimeout,
		taxonerrors.ErrCodeUnavailable,
		taxonerrors.ErrCodeInputUnavailable,
		taxonerrors.ErrCodeRateLimitExceeded,
		taxonerrors.ErrCodeInternal:
		return true
	default:
		return false
	}
}

// mergeDetails combines two detail maps, the second overwriting the first.
// Returns nil when both are empty so the details field is omitted.
func mergeDetails(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code taxonerrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}

	serializer.RespondJSON(w, statusCode, errResp)
}

// WriteErrorFromErr maps err to an error response. Structured errors keep
// their code, message and details; anything else becomes a retryable
// internal error carrying fallbackMessage.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error,
	fallbackMessage string, details map[string]any) {

	code := taxonerrors.ErrCodeInternal
	message := fallbackMessage
	var cause error

	if serr, ok := taxonerrors.AsStructured(err); ok {
		code = serr.Code
		if serr.Message != "" {
			message = serr.Message
		}
		details = mergeDetails(serr.Details, details)
		cause = serr.Err
	} else {
		details = mergeDetails(nil, details)
		cause = err
	}

	if cause != nil {
		if details == nil {
			details = map[string]any{}
		}
		details["error"] = cause.Error()
	}

	WriteError(w, r, HTTPStatusFromCode(code), code, message, retryableFromCode(code), details)
}
