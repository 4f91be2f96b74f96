package memory

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/domain/repositories"
)

// CallRequestStore keeps call requests in process memory, in insertion order.
// Contents are lost on restart and are not shared across instances.
type CallRequestStore struct {
	mu    sync.RWMutex
	items []*entities.CallRequest
	clock clock.Clock
}

// NewCallRequestStore creates an empty store
func NewCallRequestStore(clk clock.Clock) *CallRequestStore {
	if clk == nil {
		clk = clock.New()
	}
	return &CallRequestStore{clock: clk}
}

var _ repositories.CallRequestRepository = (*CallRequestStore)(nil)

// Insert appends a new request
func (s *CallRequestStore) Insert(ctx context.Context, req *entities.CallRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, req.Clone())
	return nil
}

// FindByID retrieves a request by its ID
func (s *CallRequestStore) FindByID(ctx context.Context, id string) (*entities.CallRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), nil
	}
	return nil, entities.ErrCallRequestNotFound
}

// FindAllPending retrieves all pending requests in insertion order
func (s *CallRequestStore) FindAllPending(ctx context.Context) ([]*entities.CallRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.CallRequest, 0, len(s.items))
	for _, it := range s.items {
		if it.IsPending() {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// UpdateStatus moves a pending request to a terminal status
func (s *CallRequestStore) UpdateStatus(ctx context.Context, id string, status entities.CallRequestStatus, update repositories.StatusUpdate) (*entities.CallRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, entities.ErrCallRequestNotFound
	}

	at := update.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	// mutate a copy so a failed transition leaves the stored record untouched
	next := s.items[i].Clone()
	var err error
	switch status {
	case entities.CallRequestStatusAccepted:
		callee := entities.ParticipantInfo{}
		if update.Callee != nil {
			callee = *update.Callee
		}
		err = next.Accept(callee, at)
	case entities.CallRequestStatusDeclined:
		err = next.Decline(at)
	default:
		return nil, entities.ErrInvalidRequest
	}
	if err != nil {
		return nil, err
	}

	s.items[i] = next
	return next.Clone(), nil
}

// ListCreatedBefore retrieves requests created strictly before cutoff
func (s *CallRequestStore) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entities.CallRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.CallRequest
	for _, it := range s.items {
		if it.CreatedBefore(cutoff) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// PurgeCreatedBefore removes requests created strictly before cutoff
func (s *CallRequestStore) PurgeCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	var removed int64
	for _, it := range s.items {
		if it.CreatedBefore(cutoff) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	// drop references held past the new length
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
	return removed, nil
}

// PurgeOlderThan removes requests created before now - maxAge
func (s *CallRequestStore) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.PurgeCreatedBefore(ctx, s.clock.Now().Add(-maxAge))
}

// Len returns the number of stored requests
func (s *CallRequestStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *CallRequestStore) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
