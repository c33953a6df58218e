// Package apperrors defines the error shape returned to API clients.
//
// Services return *AppError for anything the caller can act on (bad
// input, missing rows, conflicts, permissions). Anything else is treated
// as an internal failure and reported with a generic message.
package apperrors

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// FieldError is a validation failure on one form field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// AppError is the JSON error body written by the HTTP layer.
type AppError struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	// Step is set by the registration wizard to name the failing step.
	Step string `json:"step,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// WithStep returns a copy of e tagged with a wizard step.
func (e *AppError) WithStep(step string) *AppError {
	out := *e
	out.Step = step
	return &out
}

func newError(status int, message string) *AppError {
	return &AppError{
		Status:  status,
		Code:    codeFor(status),
		Message: message,
	}
}

func codeFor(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func BadRequest(message string) *AppError   { return newError(http.StatusBadRequest, message) }
func Unauthorized(message string) *AppError { return newError(http.StatusUnauthorized, message) }
func Forbidden(message string) *AppError    { return newError(http.StatusForbidden, message) }
func NotFound(message string) *AppError     { return newError(http.StatusNotFound, message) }
func Conflict(message string) *AppError     { return newError(http.StatusConflict, message) }
func Internal(message string) *AppError     { return newError(http.StatusInternalServerError, message) }

// Validation converts ozzo validation output into a 400 with field errors.
func Validation(err error) *AppError {
	out := newError(http.StatusBadRequest, "validation failed")
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		keys := make([]string, 0, len(verrs))
		for k := range verrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if verrs[k] == nil {
				continue
			}
			out.Fields = append(out.Fields, FieldError{Field: k, Error: verrs[k].Error()})
		}
		return out
	}
	out.Message = err.Error()
	return out
}

// From maps any error to an AppError. Unknown errors become a 500 and
// the bool result reports whether the original error should be logged.
func From(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, appErr.Status >= http.StatusInternalServerError
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("record not found"), false
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return Validation(verrs), false
	}
	return Internal("internal server error"), true
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Status == http.StatusNotFound
}
