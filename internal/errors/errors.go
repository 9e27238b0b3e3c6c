// Package errors defines the application error type shared by the loader
// and the HTTP layer, and the JSON envelopes both success and failure
// responses use.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// CodeConfiguration marks a missing source file or column. Loading halts.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// CodeDataIntegrity marks a join that would multiply rows.
	CodeDataIntegrity ErrorCode = "DATA_INTEGRITY_ERROR"
)

var statusByCode = map[ErrorCode]int{
	CodeBadRequest:     http.StatusBadRequest,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

func statusFor(code ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusFor(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError { return New(CodeInternal, message) }
func BadRequest(message string) *AppError { return New(CodeBadRequest, message) }
func RateLimit(message string) *AppError { return New(CodeRateLimit, message) }
func ServiceUnavailable(message string) *AppError { return New(CodeServiceUnavail, message) }
func Configuration(message string) *AppError { return New(CodeConfiguration, message) }
func DataIntegrity(message string) *AppError { return New(CodeDataIntegrity, message) }

func ConfigurationWrap(err error, message string) *AppError {
	return Wrap(err, CodeConfiguration, message)
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

// WriteError renders err as a JSON error envelope. Errors that are not
// AppErrors are reported as INTERNAL_ERROR without leaking their text.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = Wrap(err, CodeInternal, "An unexpected error occurred")
	}
	appErr.RequestID = requestID

	level := slog.LevelWarn
	if appErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)

	if encodeErr := writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.Error("failed to encode error response", "error", encodeErr, "request_id", requestID)
	}
}

func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
