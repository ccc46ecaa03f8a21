package http

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrRangeNotSupported = errors.New("http: server does not support range requests")
	ErrNotFound          = errors.New("http: resource not found")
	ErrForbidden         = errors.New("http: access forbidden")
	ErrUnauthorized      = errors.New("http: unauthorized")
	ErrServerError       = errors.New("http: server error")
)

// ReadError reports a socket failure while draining a response.
type ReadError struct {
	Received int // bytes received before the failure
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("http: read failed after %d bytes: %v", e.Received, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError reports a response or URL that could not be interpreted.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("http: parse %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("http: parse %s: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusError is returned when a server answers with an unexpected status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("http: unexpected status %d %s", e.Code, e.Status)
	}
	return fmt.Sprintf("http: unexpected status %d", e.Code)
}

// Unwrap maps well-known codes onto the package sentinels so callers can use
// errors.Is(err, ErrNotFound).
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == 404:
		return ErrNotFound
	case e.Code == 403:
		return ErrForbidden
	case e.Code == 401:
		return ErrUnauthorized
	case e.Code == 416:
		return ErrRangeNotSupported
	case e.Code >= 500:
		return ErrServerError
	default:
		return nil
	}
}

// checkStatusCode returns an error for non-success status codes.
func checkStatusCode(code int, text string) error {
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{Code: code, Status: text}
}
