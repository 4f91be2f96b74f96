package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func TestMemoryBroker_FanOut(t *testing.T) {
	b := NewMemoryBroker(nil)
	defer b.Close()

	ctx := context.Background()
	first, err := b.Subscribe(ctx)
	require.NoError(t, err)
	second, err := b.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Subscribers())

	req := &entities.CallRequest{ID: "req-1"}
	require.NoError(t, b.Publish(ctx, Event{Type: EventRequestCreated, Request: req}))
	require.NoError(t, b.Publish(ctx, Event{Type: EventRequestAccepted, Request: req}))

	for _, ch := range []<-chan Event{first, second} {
		assert.Equal(t, EventRequestCreated, receive(t, ch).Type)
		assert.Equal(t, EventRequestAccepted, receive(t, ch).Type)
	}
}

func TestMemoryBroker_CancelRemovesSubscriber(t *testing.T) {
	b := NewMemoryBroker(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestMemoryBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewMemoryBroker(nil)
	defer b.Close()

	_, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = b.Publish(context.Background(), Event{Type: EventRequestsPurged, RemovedCount: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestMemoryBroker_Close(t *testing.T) {
	b := NewMemoryBroker(nil)

	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, ok := <-ch
	assert.False(t, ok)

	late, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	_, ok = <-late
	assert.False(t, ok)
}
