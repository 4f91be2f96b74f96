package videocall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/cache"
	usecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

func TestWatcher_ReceivesPushedEvents(t *testing.T) {
	srv, server := startServer(t)
	s := newClientService(t, srv.URL+"/api/telemed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := make(chan PollResult, 4)
	events := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewWatcher(s, WatcherConfig{ConnectTimeout: time.Second}, nil).Watch(ctx,
			func(ev Event) { events <- ev },
			func(res PollResult) { snapshots <- res },
		)
	}()

	select {
	case snap := <-snapshots:
		assert.False(t, snap.Offline)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after connect")
	}

	// the snapshot is taken after the dial succeeds; give the server a moment to subscribe
	time.Sleep(50 * time.Millisecond)
	req, err := server.Submit(context.Background(), usecase.SubmitInput{Caller: entities.ParticipantInfo{Name: "John Doe"}})
	require.NoError(t, err)

	select {
	case ev := <-events:
		require.NotNil(t, ev.Request)
		assert.Equal(t, req.ID, ev.Request.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no pushed event")
	}

	_, ok := s.Mirror().Get(req.ID)
	assert.True(t, ok, "pushed requests are mirrored")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_FallsBackToPolling(t *testing.T) {
	s := newClientService(t, deadURL(t))
	_, err := s.Mirror().AddLocal(Participant{Name: "John Doe"}, nil, "Room-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polls := make(chan PollResult, 16)
	done := make(chan error, 1)
	go func() {
		done <- NewWatcher(s, WatcherConfig{
			PollInterval:   10 * time.Millisecond,
			ConnectTimeout: 50 * time.Millisecond,
			RetryPushAfter: time.Hour,
		}, nil).Watch(ctx, nil, func(res PollResult) { polls <- res })
	}()

	select {
	case res := <-polls:
		assert.True(t, res.Offline)
		require.Len(t, res.Requests, 1)
		assert.Equal(t, "Room-1", res.Requests[0].RoomName)
	case <-time.After(3 * time.Second):
		t.Fatal("no poll while the stream is down")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RetriesPushWhenClockAdvances(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/events") {
			dials.Add(1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	clk := clock.NewMock()
	kv := cache.NewMemoryStore(clk)
	defer kv.Close()
	s := NewService(NewAPIClient(srv.URL+"/api/telemed", WithTimeout(time.Second)), NewOfflineMirror(kv, clk, nil), Config{Clock: clk}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- NewWatcher(s, WatcherConfig{
			PollInterval:   time.Minute,
			ConnectTimeout: 50 * time.Millisecond,
			RetryPushAfter: time.Hour,
		}, nil).Watch(ctx, nil, nil)
	}()

	require.Eventually(t, func() bool { return dials.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	// the first connect gives up after one dial; nothing redials until the retry delay passes
	time.Sleep(200 * time.Millisecond)
	first := dials.Load()

	assert.Eventually(t, func() bool {
		clk.Add(time.Hour)
		return dials.Load() > first
	}, 3*time.Second, 20*time.Millisecond, "push channel is retried on the service clock")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
