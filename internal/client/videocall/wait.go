package videocall

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// WaitForResponse polls the request every WaitInterval until the callee
// answers or timeout has elapsed, in which case the result carries
// StatusTimeout. The first check happens immediately. Unreachable checks are
// retried on the next tick; an unknown id ends the wait with ErrNotFound.
func (s *Service) WaitForResponse(ctx context.Context, requestID string, timeout time.Duration) (*WaitResult, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	deadline := s.cfg.Clock.Now().Add(timeout)
	ticker := s.cfg.Clock.Ticker(s.cfg.WaitInterval)
	defer ticker.Stop()
	timer := s.cfg.Clock.Timer(timeout)
	defer timer.Stop()

	for {
		res, err := s.Status(ctx, requestID)
		switch {
		case err == nil && res.Status.IsTerminal():
			return res, nil
		case errors.Is(err, ErrNotFound):
			return nil, err
		case err != nil && !errors.Is(err, ErrUnreachable):
			return nil, err
		case err != nil:
			s.logger.Debug("videocall.client.wait_unreachable",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}

		if !s.cfg.Clock.Now().Before(deadline) {
			return &WaitResult{Status: StatusTimeout}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		case <-timer.C:
		}
	}
}
