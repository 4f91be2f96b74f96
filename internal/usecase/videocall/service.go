package videocall

import (
	"context"
	"time"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
)

// DefaultCleanupMaxAge is the age after which requests are purged when no max age is given
const DefaultCleanupMaxAge = 24 * time.Hour

// Service defines the interface for the video call request use case
type Service interface {
	// Submit creates a pending request
	Submit(ctx context.Context, input SubmitInput) (*entities.CallRequest, error)

	// GetStatus retrieves a request and, once accepted, the caller's session credentials
	GetStatus(ctx context.Context, requestID string) (*StatusOutput, error)

	// ListPending retrieves pending requests
	ListPending(ctx context.Context, calleeID *string) ([]*entities.CallRequest, error)

	// Accept moves a pending request to accepted
	Accept(ctx context.Context, requestID string, callee entities.ParticipantInfo) (*AcceptOutput, error)

	// Decline moves a pending request to declined
	Decline(ctx context.Context, requestID string) error

	// Cleanup removes requests older than maxAge regardless of status
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)

	// Subscribe streams request events until ctx is done
	Subscribe(ctx context.Context) (<-chan events.Event, error)
}

// SubmitInput represents input for submitting a request
type SubmitInput struct {
	Caller   entities.ParticipantInfo
	CalleeID *string
	RoomName string // generated when empty
}

// SessionCredentials lets one participant join the shared room
type SessionCredentials struct {
	URL   string
	Token string
}

// StatusOutput is the caller-side view of a request
type StatusOutput struct {
	Request *entities.CallRequest
	Session *SessionCredentials
}

// AcceptOutput is returned to the callee on acceptance
type AcceptOutput struct {
	Request *entities.CallRequest
	Session *SessionCredentials
}

// Ensure VideoCallService implements Service interface
var _ Service = (*VideoCallService)(nil)
