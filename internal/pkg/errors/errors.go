package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"orgconsole/internal/engine/tenancy"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeSeatLimitExceeded  = "SEAT_LIMIT_EXCEEDED"
	ErrCodeDependency         = "DEPENDENCY_FAILURE"
	ErrCodeCompensationFailed = "COMPENSATION_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// FromEngine maps an engine error kind to an HTTP status and error code.
func FromEngine(err error) (int, string) {
	if tenancy.HasKind(err, tenancy.KindCompensation) {
		return http.StatusInternalServerError, ErrCodeCompensationFailed
	}
	switch tenancy.KindOf(err) {
	case tenancy.KindValidation:
		return http.StatusBadRequest, ErrCodeInvalidInput
	case tenancy.KindConflict:
		if stderrors.Is(err, tenancy.ErrSeatLimitExceeded) {
			return http.StatusConflict, ErrCodeSeatLimitExceeded
		}
		return http.StatusConflict, ErrCodeConflict
	case tenancy.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case tenancy.KindAuthentication:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case tenancy.KindCompensation:
		return http.StatusInternalServerError, ErrCodeCompensationFailed
	default:
		return http.StatusBadGateway, ErrCodeDependency
	}
}

// WriteEngineError writes err using FromEngine. Dependency and compensation
// failures are logged and their message replaced, the rest are safe to echo.
func WriteEngineError(w http.ResponseWriter, err error, details interface{}) {
	status, code := FromEngine(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Msg("request failed")
		msg = "the operation could not be completed"
	}
	WriteError(w, status, code, msg, details)
}
