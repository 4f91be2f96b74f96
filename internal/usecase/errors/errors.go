package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Video call request errors
var (
	ErrRequestNotFound        = errors.New("video call request not found")
	ErrRequestAlreadyResolved = errors.New("video call request already resolved")
	ErrInvalidStatus          = errors.New("invalid video call request status")
	ErrInvalidMaxAge          = errors.New("max age must be positive")
)

// Session errors
var (
	ErrSessionProvisioning = errors.New("failed to provision video session")
)

// Event stream errors
var (
	ErrEventsUnavailable = errors.New("event stream is not configured")
)
