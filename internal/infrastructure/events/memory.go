package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

// MemoryBroker delivers events to subscribers in the same process
type MemoryBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
	logger *zap.Logger
}

// NewMemoryBroker creates an in-process broker
func NewMemoryBroker(logger *zap.Logger) *MemoryBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBroker{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Publish delivers the event without blocking; slow subscribers miss events
func (b *MemoryBroker) Publish(ctx context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("events.subscriber.dropped",
				zap.Int("subscriber", id),
				zap.String("type", string(event.Type)),
			)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done
func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, nil
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	go func() {
		<-ctx.Done()
		b.remove(id)
	}()

	return ch, nil
}

// Subscribers returns the number of active subscribers
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	return nil
}

func (b *MemoryBroker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}
