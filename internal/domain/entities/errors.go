package entities

import "errors"

// Domain errors
var (
	// Call request errors
	ErrCallRequestNotFound = errors.New("call request not found")
	ErrCallRequestResolved = errors.New("call request already resolved")

	ErrInvalidRequest = errors.New("invalid request")
)
