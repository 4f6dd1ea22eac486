package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StartingSoonWindow is how far ahead of its start a scheduled session is
// flagged as starting soon.
const StartingSoonWindow = 10 * time.Minute

// SweepCounts reports how many sessions each sweep rule moved.
type SweepCounts struct {
	StartingSoon int64
	Started      int64
	Expired      int64
}

// Total returns how many sessions the sweep moved in total.
func (c SweepCounts) Total() int64 {
	return c.StartingSoon + c.Started + c.Expired
}

// SweeperService advances sessions through the time-gated states. Each rule
// is one conditional bulk update keyed on the current state and a time
// boundary, so the sweep is idempotent and safe to run concurrently from
// overlapping workers: a row moved by one instance falls out of the other's
// match set.
type SweeperService struct {
	store  SweepStore
	logger *zap.Logger
}

func NewSweeperService(store SweepStore, logger *zap.Logger) *SweeperService {
	return &SweeperService{store: store, logger: logger}
}

// SweepOnce runs the three rules against the given instant. Any store error
// aborts the whole sweep; the next tick retries from scratch.
func (s *SweeperService) SweepOnce(ctx context.Context, now time.Time) (SweepCounts, error) {
	var counts SweepCounts
	var err error

	counts.StartingSoon, err = s.store.MarkStartingSoon(ctx, now, StartingSoonWindow)
	if err != nil {
		return counts, fmt.Errorf("mark starting soon: %w", err)
	}

	counts.Started, err = s.store.MarkInProgress(ctx, now)
	if err != nil {
		return counts, fmt.Errorf("mark in progress: %w", err)
	}

	counts.Expired, err = s.store.MarkExpired(ctx, now)
	if err != nil {
		return counts, fmt.Errorf("mark expired: %w", err)
	}

	if counts.Total() > 0 {
		s.logger.Info("Lifecycle sweep completed",
			zap.Int64("starting_soon", counts.StartingSoon),
			zap.Int64("started", counts.Started),
			zap.Int64("expired", counts.Expired),
		)
	}

	return counts, nil
}
