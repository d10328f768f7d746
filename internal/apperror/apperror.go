// Package apperror classifies failures of calls to the gallery backend.
//
// Every error produced by the resource client wraps exactly one of the kind
// sentinels below, so callers can branch with errors.Is and read the
// human-readable message with errors.As.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNetwork    = errors.New("network error")
	ErrServer     = errors.New("server error")
	ErrShape      = errors.New("unexpected response shape")
	ErrAuth       = errors.New("authentication required")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type AppError struct {
	Err     error  // kind sentinel
	Message string // display message, server supplied when available
	Status  int    // HTTP status of the response, 0 when none was received
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Network(err error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: fmt.Sprintf("network error: %v", err),
	}
}

func Shape(detail string) *AppError {
	return &AppError{
		Err:     ErrShape,
		Message: "unexpected response from server: " + detail,
	}
}

func Auth(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}

// FromStatus maps a non-2xx status and the server's message to an error kind.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}

	kind := ErrServer
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrValidation
	case http.StatusNotFound:
		kind = ErrNotFound
	}

	return &AppError{
		Err:     kind,
		Message: message,
		Status:  status,
	}
}

// Message returns the display message of err, falling back to fallback when
// err carries no AppError.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}

	return fallback
}

// HTTPStatus maps an error kind to the status the portal gateway answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrShape), errors.Is(err, ErrServer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
