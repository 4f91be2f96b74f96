package videocall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/domain/repositories"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/metrics"
	usecaseErrors "github.com/johnquangdev/telemed-assistant/internal/usecase/errors"
)

// Archiver keeps purged requests before they are deleted
type Archiver interface {
	Archive(ctx context.Context, reqs []*entities.CallRequest, at time.Time) (string, error)
}

// ServiceConfig holds the non-collaborator settings of VideoCallService
type ServiceConfig struct {
	RoomPrefix string

	// FilterPendingByCallee narrows ListPending to the requested callee plus
	// untargeted requests. Off by default: the pending list is global.
	FilterPendingByCallee bool

	Clock clock.Clock
}

// VideoCallService handles video call request business logic
type VideoCallService struct {
	repo     repositories.CallRequestRepository
	broker   events.Broker
	sessions SessionProvisioner
	archiver Archiver
	metrics  *metrics.Recorder
	logger   *zap.Logger
	cfg      ServiceConfig
}

// NewVideoCallService creates a new video call service.
// broker, sessions, archiver and recorder may be nil; without a broker
// Subscribe fails with ErrEventsUnavailable.
func NewVideoCallService(
	repo repositories.CallRequestRepository,
	broker events.Broker,
	sessions SessionProvisioner,
	archiver Archiver,
	recorder *metrics.Recorder,
	logger *zap.Logger,
	cfg ServiceConfig,
) *VideoCallService {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.RoomPrefix == "" {
		cfg.RoomPrefix = "SmartMed"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoCallService{
		repo:     repo,
		broker:   broker,
		sessions: sessions,
		archiver: archiver,
		metrics:  recorder,
		logger:   logger,
		cfg:      cfg,
	}
}

// Submit creates a pending request
func (s *VideoCallService) Submit(ctx context.Context, input SubmitInput) (*entities.CallRequest, error) {
	if input.Caller.Name == "" {
		return nil, fmt.Errorf("%w: caller name is required", usecaseErrors.ErrInvalidInput)
	}

	now := s.cfg.Clock.Now()

	roomName := input.RoomName
	if roomName == "" {
		generated, err := NewRoomName(s.cfg.RoomPrefix, now)
		if err != nil {
			return nil, err
		}
		roomName = generated
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}
	req := entities.NewCallRequest(id.String(), input.Caller, input.CalleeID, roomName, now)

	if err := s.repo.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to store request: %w", err)
	}

	s.metrics.RequestSubmitted(input.CalleeID != nil)
	s.logger.Info("videocall.request.created",
		zap.String("request_id", req.ID),
		zap.String("caller_id", req.CallerID),
		zap.String("room_name", req.RoomName),
	)
	s.publish(ctx, events.EventRequestCreated, req)

	return req, nil
}

// GetStatus retrieves a request and, once accepted, the caller's session credentials
func (s *VideoCallService) GetStatus(ctx context.Context, requestID string) (*StatusOutput, error) {
	req, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{Request: req}
	if req.Status == entities.CallRequestStatusAccepted {
		out.Session = s.credentials(req, callerIdentity(req))
	}
	return out, nil
}

// ListPending retrieves pending requests. The callee id only narrows the
// result when FilterPendingByCallee is enabled.
func (s *VideoCallService) ListPending(ctx context.Context, calleeID *string) ([]*entities.CallRequest, error) {
	reqs, err := s.repo.FindAllPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	if calleeID != nil && *calleeID != "" {
		if !s.cfg.FilterPendingByCallee {
			s.logger.Debug("videocall.pending.callee_filter_ignored", zap.String("callee_id", *calleeID))
		} else {
			filtered := reqs[:0]
			for _, r := range reqs {
				if r.CalleeID == nil || *r.CalleeID == *calleeID {
					filtered = append(filtered, r)
				}
			}
			reqs = filtered
		}
	}

	s.metrics.PendingObserved(len(reqs))
	return reqs, nil
}

// Accept moves a pending request to accepted and prepares the callee's session
func (s *VideoCallService) Accept(ctx context.Context, requestID string, callee entities.ParticipantInfo) (*AcceptOutput, error) {
	req, err := s.repo.UpdateStatus(ctx, requestID, entities.CallRequestStatusAccepted, repositories.StatusUpdate{
		At:     s.cfg.Clock.Now(),
		Callee: &callee,
	})
	if err != nil {
		return nil, s.mapStoreError(requestID, err)
	}

	s.metrics.Transition(string(entities.CallRequestStatusAccepted))
	s.logger.Info("videocall.request.accepted",
		zap.String("request_id", req.ID),
		zap.String("callee_id", callee.ID),
		zap.String("room_name", req.RoomName),
	)
	s.publish(ctx, events.EventRequestAccepted, req)

	out := &AcceptOutput{Request: req}
	if s.sessions != nil {
		// the acceptance stands even if the room cannot be prepared; clients fall back to the widget room name
		if err := s.sessions.Provision(ctx, req.RoomName); err != nil {
			s.logger.Warn("videocall.session.provision_failed",
				zap.String("request_id", req.ID),
				zap.Error(err),
			)
			return out, nil
		}
		out.Session = s.credentials(req, calleeIdentity(req, callee))
	}
	return out, nil
}

// Decline moves a pending request to declined
func (s *VideoCallService) Decline(ctx context.Context, requestID string) error {
	req, err := s.repo.UpdateStatus(ctx, requestID, entities.CallRequestStatusDeclined, repositories.StatusUpdate{
		At: s.cfg.Clock.Now(),
	})
	if err != nil {
		return s.mapStoreError(requestID, err)
	}

	s.metrics.Transition(string(entities.CallRequestStatusDeclined))
	s.logger.Info("videocall.request.declined", zap.String("request_id", req.ID))
	s.publish(ctx, events.EventRequestDeclined, req)
	return nil
}

// Cleanup removes requests older than maxAge regardless of status.
// With an archiver configured, the doomed requests are archived first and
// nothing is deleted if archiving fails.
func (s *VideoCallService) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, usecaseErrors.ErrInvalidMaxAge
	}

	// one cutoff for listing and purging, so a request that ages past it
	// during a slow archive upload waits for the next sweep
	cutoff := s.cfg.Clock.Now().Add(-maxAge)

	if s.archiver != nil || s.sessions != nil {
		stale, err := s.repo.ListCreatedBefore(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to list stale requests: %w", err)
		}
		if s.archiver != nil && len(stale) > 0 {
			object, err := s.archiver.Archive(ctx, stale, s.cfg.Clock.Now())
			if err != nil {
				return 0, fmt.Errorf("failed to archive stale requests: %w", err)
			}
			s.logger.Info("videocall.cleanup.archived",
				zap.String("object", object),
				zap.Int("count", len(stale)),
			)
		}
		s.releaseRooms(ctx, stale)
	}

	removed, err := s.repo.PurgeCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge requests: %w", err)
	}

	s.metrics.Purged(removed)
	s.logger.Info("videocall.cleanup.completed",
		zap.Int64("removed_count", removed),
		zap.Duration("max_age", maxAge),
	)
	if removed > 0 {
		s.publishEvent(ctx, events.Event{
			Type:         events.EventRequestsPurged,
			RemovedCount: removed,
			OccurredAt:   s.cfg.Clock.Now(),
		})
	}
	return removed, nil
}

// Subscribe streams request events until ctx is done
func (s *VideoCallService) Subscribe(ctx context.Context) (<-chan events.Event, error) {
	if s.broker == nil {
		return nil, usecaseErrors.ErrEventsUnavailable
	}
	return s.broker.Subscribe(ctx)
}

func (s *VideoCallService) find(ctx context.Context, requestID string) (*entities.CallRequest, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.mapStoreError(requestID, err)
	}
	return req, nil
}

func (s *VideoCallService) mapStoreError(requestID string, err error) error {
	switch {
	case errors.Is(err, entities.ErrCallRequestNotFound):
		return usecaseErrors.ErrRequestNotFound
	case errors.Is(err, entities.ErrCallRequestResolved):
		return usecaseErrors.ErrRequestAlreadyResolved
	case errors.Is(err, entities.ErrInvalidRequest):
		return usecaseErrors.ErrInvalidStatus
	}
	return fmt.Errorf("failed to access request %s: %w", requestID, err)
}

func (s *VideoCallService) credentials(req *entities.CallRequest, who entities.ParticipantInfo) *SessionCredentials {
	if s.sessions == nil {
		return nil
	}
	creds, err := s.sessions.Credentials(req.RoomName, who)
	if err != nil {
		s.logger.Warn("videocall.session.credentials_failed",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
		return nil
	}
	return creds
}

func (s *VideoCallService) releaseRooms(ctx context.Context, reqs []*entities.CallRequest) {
	if s.sessions == nil {
		return
	}
	for _, r := range reqs {
		if r.Status != entities.CallRequestStatusAccepted {
			continue
		}
		if err := s.sessions.Release(ctx, r.RoomName); err != nil {
			s.logger.Debug("videocall.session.release_failed",
				zap.String("room_name", r.RoomName),
				zap.Error(err),
			)
		}
	}
}

func (s *VideoCallService) publish(ctx context.Context, typ events.EventType, req *entities.CallRequest) {
	s.publishEvent(ctx, events.Event{
		Type:       typ,
		Request:    req.Clone(),
		OccurredAt: s.cfg.Clock.Now(),
	})
}

// publishEvent is best effort; the store stays the source of truth
func (s *VideoCallService) publishEvent(ctx context.Context, event events.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, event); err != nil {
		s.logger.Warn("videocall.event.publish_failed",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

func callerIdentity(req *entities.CallRequest) entities.ParticipantInfo {
	caller := req.Caller()
	if caller.ID == "" {
		caller.ID = "caller-" + req.ID
	}
	return caller
}

func calleeIdentity(req *entities.CallRequest, callee entities.ParticipantInfo) entities.ParticipantInfo {
	if callee.ID == "" {
		callee.ID = "callee-" + req.ID
	}
	return callee
}
