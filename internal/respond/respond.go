// Package respond writes the JSON envelope every API response uses.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/logger"
)

type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Total     int    `json:"total,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// List writes data with its length in meta.
func List[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	write(w, http.StatusOK, Envelope{Success: true, Data: items, Meta: &Meta{Total: len(items)}})
}

// Error maps err onto a status code. Internal details are logged, never sent.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code := apperror.CodeOf(err)
	status := Status(code)
	msg := apperror.MessageOf(err)

	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if code == apperror.CodeUnknown {
			code = apperror.CodeInternal
			msg = "internal error"
		}
	}

	Fail(w, status, code, msg)
}

// Fail writes an error envelope without going through an error value.
func Fail(w http.ResponseWriter, status int, code apperror.Code, message string) {
	write(w, status, Envelope{Success: false, Error: &APIError{Code: string(code), Message: message}})
}

func Status(code apperror.Code) int {
	switch code {
	case apperror.CodeInvalid:
		return http.StatusBadRequest
	case apperror.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperror.CodeForbidden:
		return http.StatusForbidden
	case apperror.CodeNotFound:
		return http.StatusNotFound
	case apperror.CodeConflict:
		return http.StatusConflict
	case apperror.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}
