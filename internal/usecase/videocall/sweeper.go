package videocall

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper runs Cleanup on a cron schedule
type Sweeper struct {
	service  Service
	schedule string
	maxAge   time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewSweeper creates a sweeper; schedule uses cron syntax or descriptors such as "@every 1h"
func NewSweeper(service Service, schedule string, maxAge time.Duration, logger *zap.Logger) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultCleanupMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		service:  service,
		schedule: schedule,
		maxAge:   maxAge,
		timeout:  time.Minute,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the job and starts the scheduler
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Cleanup sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("max_age", s.maxAge),
	)
	return nil
}

// Stop halts the scheduler and waits for a running sweep
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Cleanup sweeper stopped")
}

// RunOnce performs a single sweep
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.service.Cleanup(ctx, s.maxAge)
	if err != nil {
		s.logger.Error("Cleanup sweep failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		s.logger.Info("Cleanup sweep removed requests", zap.Int64("removed_count", removed))
	}
	return removed
}
