package videocall

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	usecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

func TestService_OnlineLifecycle(t *testing.T) {
	srv, _ := startServer(t)
	caller := newClientService(t, srv.URL+"/api/telemed")
	callee := newClientService(t, srv.URL+"/api/telemed")
	ctx := context.Background()

	sub, err := caller.Submit(ctx, SubmitInput{
		Caller:   Participant{ID: "p-1", Name: "John Doe", Email: "john@example.com"},
		RoomName: "Room-1",
	})
	require.NoError(t, err)
	assert.False(t, sub.Offline)
	assert.Equal(t, "Room-1", sub.RoomName)
	assert.Equal(t, "Video call request sent to doctor", sub.Message)

	mirrored, ok := caller.Mirror().Get(sub.RequestID)
	require.True(t, ok)
	assert.Equal(t, "pending", mirrored.Status)

	pending := callee.PendingRequests(ctx)
	assert.False(t, pending.Offline)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, sub.RequestID, pending.Requests[0].ID)

	acc, err := callee.Accept(ctx, sub.RequestID, Participant{Name: "Dr. X"})
	require.NoError(t, err)
	assert.Equal(t, "Room-1", acc.RoomName)
	assert.Equal(t, "John Doe", acc.CallerInfo.Name)

	status, err := caller.Status(ctx, sub.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, status.Status)
	require.NotNil(t, status.CalleeInfo)
	assert.Equal(t, "Dr. X", status.CalleeInfo.Name)

	_, err = callee.Decline(ctx, sub.RequestID)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	assert.Empty(t, callee.PendingRequests(ctx).Requests)
}

func TestService_SubmitGeneratesRoomName(t *testing.T) {
	srv, _ := startServer(t)
	s := newClientService(t, srv.URL+"/api/telemed")

	sub, err := s.Submit(context.Background(), SubmitInput{Caller: Participant{Name: "John Doe"}})
	require.NoError(t, err)
	assert.Regexp(t, `^SmartMed-\d+-[0-9a-z]{9}$`, sub.RoomName)
}

func TestService_ServerErrorsAreNotMaskedByTheMirror(t *testing.T) {
	srv, _ := startServer(t)
	s := newClientService(t, srv.URL+"/api/telemed")
	ctx := context.Background()

	_, err := s.Submit(ctx, SubmitInput{Caller: Participant{Name: ""}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, s.Mirror().All())

	_, err = s.Status(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Accept(ctx, "nope", Participant{Name: "Dr. X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_OfflineFallback(t *testing.T) {
	s := newClientService(t, deadURL(t))
	ctx := context.Background()

	sub, err := s.Submit(ctx, SubmitInput{Caller: Participant{Name: "John Doe"}, RoomName: "Room-1"})
	require.NoError(t, err)
	assert.True(t, sub.Offline)
	assert.Equal(t, "Video call request sent (offline mode)", sub.Message)
	assert.Regexp(t, `^offline-\d+-[0-9a-z]{6}$`, sub.RequestID)

	pending := s.PendingRequests(ctx)
	assert.True(t, pending.Offline)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, sub.RequestID, pending.Requests[0].ID)

	acc, err := s.Accept(ctx, sub.RequestID, Participant{Name: "Dr. X"})
	require.NoError(t, err)
	assert.True(t, acc.Offline)
	assert.Equal(t, "Room-1", acc.RoomName)
	assert.Equal(t, "John Doe", acc.CallerInfo.Name)

	status, err := s.Status(ctx, sub.RequestID)
	require.NoError(t, err)
	assert.True(t, status.Offline)
	assert.Equal(t, StatusAccepted, status.Status)

	offline, err := s.Decline(ctx, sub.RequestID)
	assert.True(t, offline)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = s.Status(ctx, "unknown")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestService_PendingFallsBackWhenServerStoreFails(t *testing.T) {
	srv, _ := startServer(t)
	s := newClientService(t, srv.URL+"/api/telemed")
	ctx := context.Background()

	sub, err := s.Submit(ctx, SubmitInput{Caller: Participant{Name: "John Doe"}, RoomName: "Room-1"})
	require.NoError(t, err)
	require.Len(t, s.PendingRequests(ctx).Requests, 1)

	srv.Close()

	pending := s.PendingRequests(ctx)
	assert.True(t, pending.Offline)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, sub.RequestID, pending.Requests[0].ID)
}

func TestService_Cleanup(t *testing.T) {
	srv, server := startServer(t)
	s := newClientService(t, srv.URL+"/api/telemed")
	ctx := context.Background()

	_, err := server.Submit(ctx, usecase.SubmitInput{Caller: entities.ParticipantInfo{Name: "John Doe"}})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	removed, offline, err := s.Cleanup(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.False(t, offline)
	assert.Equal(t, int64(1), removed)

	dead := newClientService(t, deadURL(t))
	_, err = dead.Submit(ctx, SubmitInput{Caller: Participant{Name: "John Doe"}})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	removed, offline, err = dead.Cleanup(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, offline)
	assert.Equal(t, int64(1), removed)
	assert.Empty(t, dead.Mirror().All())
}

func TestService_OfflineSubmitReportsStoreFailure(t *testing.T) {
	ctx := context.Background()

	dead := NewService(NewAPIClient(deadURL(t), WithTimeout(time.Second)), NewOfflineMirror(failingKV{}, nil, nil), Config{}, nil)
	_, err := dead.Submit(ctx, SubmitInput{Caller: Participant{Name: "John Doe"}, RoomName: "Room-1"})
	assert.ErrorIs(t, err, errDiskFull, "an unsaved offline request is not reported as sent")

	_, _, err = dead.Cleanup(ctx, time.Hour)
	assert.NoError(t, err, "nothing to purge means nothing to write")

	// online, the server holds the request so the mirror failure is only logged
	srv, _ := startServer(t)
	online := NewService(NewAPIClient(srv.URL+"/api/telemed", WithTimeout(time.Second)), NewOfflineMirror(failingKV{}, nil, nil), Config{}, nil)
	sub, err := online.Submit(ctx, SubmitInput{Caller: Participant{Name: "John Doe"}, RoomName: "Room-1"})
	require.NoError(t, err)
	assert.False(t, sub.Offline)
	assert.Len(t, online.PendingRequests(ctx).Requests, 1)
}
