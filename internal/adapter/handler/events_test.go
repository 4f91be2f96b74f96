package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/repository/memory"
	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	videocallUsecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

func TestEvents_StreamsRequestChanges(t *testing.T) {
	broker := events.NewMemoryBroker(nil)
	defer broker.Close()
	service := videocallUsecase.NewVideoCallService(memory.NewCallRequestStore(nil), broker, nil, nil, nil, nil, videocallUsecase.ServiceConfig{})

	srv := httptest.NewServer(newTestServer(t, testConfig(), service))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/telemed/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the subscription is registered after the upgrade completes
	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	created, err := service.Submit(context.Background(), videocallUsecase.SubmitInput{
		Caller:   entities.ParticipantInfo{Name: "John Doe"},
		RoomName: "Room-1",
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg videocall.EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "request.created", msg.Type)
	require.NotNil(t, msg.Request)
	assert.Equal(t, created.ID, msg.Request.ID)
	assert.Equal(t, "Room-1", msg.Request.RoomName)

	conn.Close()
	assert.Eventually(t, func() bool { return broker.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEvents_RejectsForeignOrigin(t *testing.T) {
	service := newMemoryService(t)
	h := NewEventsHandler(service, []string{"http://localhost:5173"}, nil, nil)

	check := h.upgrader.CheckOrigin
	ok := &http.Request{Header: http.Header{"Origin": []string{"http://localhost:5173"}}}
	bad := &http.Request{Header: http.Header{"Origin": []string{"http://evil.example"}}}
	assert.True(t, check(ok))
	assert.False(t, check(bad))
}
