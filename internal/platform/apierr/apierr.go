package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure categories shared by clients, repositories and pipeline stages.
// Wrap with fmt.Errorf("...: %w", ErrX) so callers can errors.Is on them.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrUpstream        = errors.New("upstream failure")
	ErrMalformedOutput = errors.New("malformed generative output")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps an error onto an HTTP status and stable code.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrInvalidInput):
		return New(http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, ErrConfiguration):
		return New(http.StatusServiceUnavailable, "configuration_error", err)
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrMalformedOutput):
		return New(http.StatusBadGateway, "upstream_error", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
