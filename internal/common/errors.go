// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Upstream POS errors.
	ErrUpstream        = errors.New("upstream request failed")
	ErrUpstreamPayload = errors.New("upstream response malformed")

	// Import errors.
	ErrInvalidBatchState = errors.New("invalid batch state")
	ErrUnreadableContent = errors.New("unreadable batch content")
	ErrUnsupportedFormat = errors.New("unsupported batch format")
	ErrMalformedRow      = errors.New("malformed row")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UpstreamError carries the HTTP status of a failed upstream call.
type UpstreamError struct {
	Body       string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", ErrUpstream, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
