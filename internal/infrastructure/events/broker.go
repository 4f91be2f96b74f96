package events

import (
	"context"
	"time"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
)

// EventType names a change in the request store
type EventType string

const (
	EventRequestCreated  EventType = "request.created"
	EventRequestAccepted EventType = "request.accepted"
	EventRequestDeclined EventType = "request.declined"
	EventRequestsPurged  EventType = "requests.purged"
)

// Event is what subscribers receive; Request is a snapshot, not a live record
type Event struct {
	Type         EventType             `json:"type"`
	Request      *entities.CallRequest `json:"request,omitempty"`
	RemovedCount int64                 `json:"removedCount,omitempty"`
	OccurredAt   time.Time             `json:"occurredAt"`
}

// Broker fans request events out to subscribers
type Broker interface {
	// Publish delivers the event to current subscribers
	Publish(ctx context.Context, event Event) error

	// Subscribe returns a channel of events that is closed when ctx is done
	Subscribe(ctx context.Context) (<-chan Event, error)

	// Close releases broker resources
	Close() error
}
