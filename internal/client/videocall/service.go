package videocall

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	dto "github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	roomnames "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

// Defaults for waiting on a callee answer
const (
	DefaultWaitInterval = 2 * time.Second
	DefaultWaitTimeout  = 30 * time.Second
	DefaultPollInterval = 3 * time.Second
	DefaultRoomPrefix   = "SmartMed"
)

// Config tunes a client Service
type Config struct {
	WaitInterval time.Duration
	RoomPrefix   string
	CalleeID     string // sent as ?calleeId= on pending lists
	Clock        clock.Clock
}

// Service is the client side of the request lifecycle. Every call falls back
// to the offline mirror when the API is unreachable.
type Service struct {
	api    *APIClient
	mirror *OfflineMirror
	cfg    Config
	logger *zap.Logger
}

// NewService creates a client service
func NewService(api *APIClient, mirror *OfflineMirror, cfg Config, logger *zap.Logger) *Service {
	if cfg.WaitInterval <= 0 {
		cfg.WaitInterval = DefaultWaitInterval
	}
	if cfg.RoomPrefix == "" {
		cfg.RoomPrefix = DefaultRoomPrefix
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, mirror: mirror, cfg: cfg, logger: logger}
}

// Mirror exposes the offline mirror
func (s *Service) Mirror() *OfflineMirror {
	return s.mirror
}

// SubmitInput describes a new request from the caller side
type SubmitInput struct {
	Caller   Participant
	CalleeID *string
	RoomName string // generated when empty
}

// Submit sends a request. Validation failures are returned as is; an
// unreachable API records the request locally instead.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	roomName := in.RoomName
	if roomName == "" {
		generated, err := roomnames.NewRoomName(s.cfg.RoomPrefix, s.cfg.Clock.Now())
		if err != nil {
			return nil, err
		}
		roomName = generated
	}

	resp, err := s.api.Submit(ctx, dto.SubmitRequest{
		CallerID:    in.Caller.ID,
		CallerName:  in.Caller.Name,
		CallerEmail: in.Caller.Email,
		RoomName:    roomName,
		CalleeID:    in.CalleeID,
	})
	if err == nil {
		now := s.cfg.Clock.Now()
		mirrorErr := s.mirror.Upsert(&Request{
			ID:          resp.RequestID,
			CallerID:    in.Caller.ID,
			CallerName:  in.Caller.Name,
			CallerEmail: in.Caller.Email,
			CalleeID:    in.CalleeID,
			RoomName:    resp.RoomName,
			Status:      string(StatusPending),
			Timestamp:   now.UTC().Format(time.RFC3339Nano),
			CreatedAt:   now.UnixMilli(),
		})
		if mirrorErr != nil {
			s.logger.Warn("videocall.client.mirror_failed", zap.String("request_id", resp.RequestID), zap.Error(mirrorErr))
		}
		return &SubmitResult{RequestID: resp.RequestID, RoomName: resp.RoomName, Message: resp.Message}, nil
	}
	if !errors.Is(err, ErrUnreachable) {
		return nil, err
	}

	s.logger.Warn("videocall.client.submit_offline", zap.Error(err))
	local, err := s.mirror.AddLocal(in.Caller, in.CalleeID, roomName)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		RequestID: local.ID,
		RoomName:  local.RoomName,
		Message:   "Video call request sent (offline mode)",
		Offline:   true,
	}, nil
}

// PendingRequests lists pending requests. Network failures never surface:
// the mirror's pending records are returned instead, possibly stale.
func (s *Service) PendingRequests(ctx context.Context) PendingResult {
	reqs, err := s.api.Pending(ctx, s.cfg.CalleeID)
	if err == nil {
		if err := s.mirror.Replace(reqs); err != nil {
			s.logger.Warn("videocall.client.mirror_failed", zap.Error(err))
		}
		return PendingResult{Requests: reqs}
	}

	s.logger.Debug("videocall.client.pending_offline", zap.Error(err))
	return PendingResult{Requests: s.mirror.Pending(), Offline: true}
}

// Accept accepts a request as callee
func (s *Service) Accept(ctx context.Context, requestID string, callee Participant) (*AcceptResult, error) {
	resp, err := s.api.Accept(ctx, requestID, callee)
	if err == nil {
		s.resolveMirror(requestID, StatusAccepted, &callee)
		return &AcceptResult{RoomName: resp.RoomName, CallerInfo: resp.CallerInfo, Session: resp.Session}, nil
	}
	if !errors.Is(err, ErrUnreachable) {
		return nil, err
	}

	s.logger.Warn("videocall.client.accept_offline", zap.String("request_id", requestID), zap.Error(err))
	r, mirrorErr := s.mirror.Resolve(requestID, StatusAccepted, &callee)
	if mirrorErr != nil {
		return nil, mirrorErr
	}
	return &AcceptResult{
		RoomName: r.RoomName,
		CallerInfo: Participant{
			ID:    r.CallerID,
			Name:  r.CallerName,
			Email: r.CallerEmail,
		},
		Offline: true,
	}, nil
}

// Decline declines a request; offline reports whether only the mirror changed
func (s *Service) Decline(ctx context.Context, requestID string) (offline bool, err error) {
	err = s.api.Decline(ctx, requestID)
	if err == nil {
		s.resolveMirror(requestID, StatusDeclined, nil)
		return false, nil
	}
	if !errors.Is(err, ErrUnreachable) {
		return false, err
	}

	s.logger.Warn("videocall.client.decline_offline", zap.String("request_id", requestID), zap.Error(err))
	if _, err := s.mirror.Resolve(requestID, StatusDeclined, nil); err != nil {
		return true, err
	}
	return true, nil
}

// Cleanup purges old requests on the server and in the mirror. The returned
// count is the server's, or the mirror's when offline.
func (s *Service) Cleanup(ctx context.Context, maxAge time.Duration) (removed int64, offline bool, err error) {
	if maxAge <= 0 {
		maxAge = roomnames.DefaultCleanupMaxAge
	}

	local, mirrorErr := s.mirror.Purge(maxAge)
	removed, err = s.api.Cleanup(ctx, maxAge)
	if err == nil {
		if mirrorErr != nil {
			s.logger.Warn("videocall.client.mirror_failed", zap.Error(mirrorErr))
		}
		return removed, false, nil
	}
	if !errors.Is(err, ErrUnreachable) {
		return 0, false, err
	}

	s.logger.Warn("videocall.client.cleanup_offline", zap.Error(err))
	if mirrorErr != nil {
		return 0, true, mirrorErr
	}
	return local, true, nil
}

// resolveMirror follows a server-side resolution locally. The server is the
// source of truth here, so a stale or failing mirror is only logged.
func (s *Service) resolveMirror(requestID string, status Status, callee *Participant) {
	_, err := s.mirror.Resolve(requestID, status, callee)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrAlreadyResolved) {
		s.logger.Warn("videocall.client.mirror_failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

// Status fetches one request, falling back to the mirror when unreachable
func (s *Service) Status(ctx context.Context, requestID string) (*WaitResult, error) {
	resp, err := s.api.Status(ctx, requestID)
	if err == nil {
		return &WaitResult{
			Status:     Status(resp.Status),
			RoomName:   resp.RoomName,
			CalleeInfo: resp.CalleeInfo,
			Session:    resp.Session,
		}, nil
	}
	if !errors.Is(err, ErrUnreachable) {
		return nil, err
	}

	r, ok := s.mirror.Get(requestID)
	if !ok {
		return nil, err
	}
	return &WaitResult{
		Status:     Status(r.Status),
		RoomName:   r.RoomName,
		CalleeInfo: r.CalleeInfo,
		Offline:    true,
	}, nil
}
