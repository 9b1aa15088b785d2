// Package apperror carries an HTTP status alongside an error so the single
// error handler can decide what reaches the client.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

// Wrap attaches a status and client message to err, keeping a stack trace.
func Wrap(err error, status int, message string) *AppError {
	return &AppError{Status: status, Message: message, Err: errors.WithStack(err)}
}

func BadRequest(message string) *AppError   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *AppError { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(http.StatusForbidden, message) }
func NotFound(message string) *AppError     { return New(http.StatusNotFound, message) }
func Conflict(message string) *AppError     { return New(http.StatusConflict, message) }

func Internal(err error, message string) *AppError {
	return Wrap(err, http.StatusInternalServerError, message)
}

// StatusOf returns the status attached to err, or 500 when there is none.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
