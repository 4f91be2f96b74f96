package videocall

import "errors"

var (
	// ErrNotFound is returned for an unknown request id
	ErrNotFound = errors.New("video call request not found")

	// ErrUnreachable covers transport failures and unexpected API responses;
	// callers fall back to the offline mirror on it
	ErrUnreachable = errors.New("telemed API unreachable")

	// ErrValidation is returned when the API rejects a submission
	ErrValidation = errors.New("invalid video call request")

	// ErrAlreadyResolved is returned when accepting or declining a terminal request
	ErrAlreadyResolved = errors.New("video call request already resolved")

	// ErrWidgetUnready is returned when the video widget cannot open a room yet
	ErrWidgetUnready = errors.New("video widget is not ready")
)
