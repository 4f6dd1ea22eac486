package app

import (
	"context"
	"time"

	"github.com/tutorium/sessions/internal/service"
	"go.uber.org/zap"
)

// Scheduler drives the lifecycle sweeper on a fixed interval. The sweep
// itself is idempotent, so a missed or doubled tick is harmless.
type Scheduler struct {
	sweeper  *service.SweeperService
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewScheduler(sweeper *service.SweeperService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting lifecycle sweeper",
		zap.Duration("interval", s.interval))

	go s.runSweepLoop(ctx)
}

// Stop terminates the background loop.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping lifecycle sweeper")
	close(s.stopChan)
}

func (s *Scheduler) runSweepLoop(ctx context.Context) {
	// First sweep right away so a restart catches up immediately.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Sweep loop stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweep loop cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	// A failed sweep is abandoned for this tick; the next tick retries from
	// scratch because every rule re-derives its match set from current state.
	if _, err := s.sweeper.SweepOnce(ctx, time.Now()); err != nil {
		s.logger.Error("Lifecycle sweep aborted", zap.Error(err))
	}
}
