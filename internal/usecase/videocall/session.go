package videocall

import (
	"context"
	"fmt"
	"time"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/external/livekit"
	usecaseErrors "github.com/johnquangdev/telemed-assistant/internal/usecase/errors"
)

// SessionProvisioner prepares the shared video room for an accepted request
type SessionProvisioner interface {
	// Provision makes the room available for both participants
	Provision(ctx context.Context, roomName string) error

	// Credentials issues join credentials for one participant
	Credentials(roomName string, participant entities.ParticipantInfo) (*SessionCredentials, error)

	// Release tears the room down
	Release(ctx context.Context, roomName string) error
}

// LiveKitSessions provisions rooms on a LiveKit server
type LiveKitSessions struct {
	client   livekit.Client
	tokenTTL time.Duration
}

// NewLiveKitSessions creates a provisioner backed by client
func NewLiveKitSessions(client livekit.Client, tokenTTL time.Duration) *LiveKitSessions {
	if tokenTTL <= 0 {
		tokenTTL = 2 * time.Hour
	}
	return &LiveKitSessions{client: client, tokenTTL: tokenTTL}
}

// Provision creates the two-party room
func (s *LiveKitSessions) Provision(ctx context.Context, roomName string) error {
	if _, err := s.client.CreateRoom(ctx, roomName, &livekit.CreateRoomOptions{
		MaxParticipants:  2,
		EmptyTimeout:     300,
		DepartureTimeout: 30,
	}); err != nil {
		return fmt.Errorf("%w: %v", usecaseErrors.ErrSessionProvisioning, err)
	}
	return nil
}

// Credentials signs a room token for participant
func (s *LiveKitSessions) Credentials(roomName string, participant entities.ParticipantInfo) (*SessionCredentials, error) {
	token, err := s.client.GenerateToken(participant.ID, roomName, participant.Name, &livekit.TokenOptions{
		ValidFor:       s.tokenTTL,
		CanPublish:     true,
		CanSubscribe:   true,
		CanPublishData: true,
		RoomJoin:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrSessionProvisioning, err)
	}
	return &SessionCredentials{URL: s.client.URL(), Token: token}, nil
}

// Release deletes the room
func (s *LiveKitSessions) Release(ctx context.Context, roomName string) error {
	return s.client.DeleteRoom(ctx, roomName)
}
