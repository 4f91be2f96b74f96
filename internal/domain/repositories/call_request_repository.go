package repositories

import (
	"context"
	"time"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
)

// CallRequestRepository is the request store. Implementations return
// entities.ErrCallRequestNotFound for unknown ids and
// entities.ErrCallRequestResolved when a transition targets a terminal request.
type CallRequestRepository interface {
	// Insert appends a new request
	Insert(ctx context.Context, req *entities.CallRequest) error

	// FindByID retrieves a request by its ID
	FindByID(ctx context.Context, id string) (*entities.CallRequest, error)

	// FindAllPending retrieves all pending requests in insertion order
	FindAllPending(ctx context.Context) ([]*entities.CallRequest, error)

	// UpdateStatus moves a pending request to a terminal status and stamps the matching *At field
	UpdateStatus(ctx context.Context, id string, status entities.CallRequestStatus, update StatusUpdate) (*entities.CallRequest, error)

	// ListCreatedBefore retrieves requests created strictly before cutoff
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entities.CallRequest, error)

	// PurgeCreatedBefore removes requests created strictly before cutoff regardless of status
	PurgeCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// PurgeOlderThan removes requests created before now - maxAge regardless of status
	PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}
