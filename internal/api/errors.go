package api

import (
	"errors"
	"fmt"
)

var (
	// Auth errors surfaced by login/register.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServer             = errors.New("server error")

	// Booking/request errors surfaced by authenticated calls.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("room is not available for the selected time period")
	ErrNotFound        = errors.New("not found")
	ErrUnknown         = errors.New("request failed")
)

// BackendError keeps the HTTP status and server-provided message while
// unwrapping to one of the sentinel categories above.
type BackendError struct {
	Status   int
	Message  string
	category error
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (http %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: http %d", e.Status)
}

func (e *BackendError) Unwrap() error {
	return e.category
}

// UserMessage returns the server-provided message when present,
// else a generic fallback for the category.
func (e *BackendError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.category.Error()
}

func newBackendError(status int, message string, authCall bool) *BackendError {
	category := ErrUnknown
	switch {
	case status == 401 && authCall:
		category = ErrInvalidCredentials
	case status == 401:
		category = ErrUnauthenticated
	case status == 403:
		category = ErrForbidden
	case status == 404:
		category = ErrNotFound
	case status == 409:
		category = ErrConflict
	case status >= 500:
		category = ErrServer
	}
	return &BackendError{Status: status, Message: message, category: category}
}
