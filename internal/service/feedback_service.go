package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
	"go.uber.org/zap"
)

// FeedbackService creates pending feedback records for completed sessions.
type FeedbackService struct {
	feedback FeedbackStore
	logger   *zap.Logger
}

func NewFeedbackService(feedback FeedbackStore, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{feedback: feedback, logger: logger}
}

// Schedule creates a pending feedback record due a fixed window after
// completion.
func (s *FeedbackService) Schedule(ctx context.Context, sessionID, tutorID, studentID uuid.UUID, completedAt time.Time) error {
	record := &model.Feedback{
		ID:        uuid.New(),
		SessionID: sessionID,
		TutorID:   tutorID,
		StudentID: studentID,
		Status:    model.FeedbackStatusPending,
		DueAt:     completedAt.Add(model.FeedbackWindow),
	}

	if err := s.feedback.Create(ctx, record); err != nil {
		return fmt.Errorf("create feedback record: %w", err)
	}

	s.logger.Info("Feedback scheduled",
		zap.String("session_id", sessionID.String()),
		zap.Time("due_at", record.DueAt),
	)

	return nil
}
