package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
	"go.uber.org/zap"
)

// LevelService recomputes tutor level counters from a fresh count of
// completed sessions.
type LevelService struct {
	sessions SessionStore
	users    IdentityProvider
	logger   *zap.Logger
}

func NewLevelService(sessions SessionStore, users IdentityProvider, logger *zap.Logger) *LevelService {
	return &LevelService{sessions: sessions, users: users, logger: logger}
}

// Recalculate counts the tutor's completed sessions and stores the derived
// level. Counting fresh instead of incrementing keeps the counters right
// even if a previous hook invocation was lost.
func (s *LevelService) Recalculate(ctx context.Context, tutorID uuid.UUID) error {
	count, err := s.sessions.CountCompletedByTutor(ctx, tutorID)
	if err != nil {
		return fmt.Errorf("count completed sessions: %w", err)
	}

	level := model.LevelForCompletedSessions(count)
	if err := s.users.UpdateTutorLevel(ctx, tutorID, level, count); err != nil {
		return fmt.Errorf("update tutor level: %w", err)
	}

	s.logger.Info("Tutor level recalculated",
		zap.String("tutor_id", tutorID.String()),
		zap.Int("completed_sessions", count),
		zap.Int("level", level),
	)

	return nil
}
