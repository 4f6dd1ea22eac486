package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
	"go.uber.org/zap"
)

// hookTimeout bounds the post-completion side effects so a slow collaborator
// cannot pin a goroutine forever.
const hookTimeout = 30 * time.Second

// SessionService handles cancellation and completion. Completion triggers
// the downstream hooks (feedback creation, level recomputation) best-effort:
// the completion itself is committed before they run and never depends on
// their outcome.
type SessionService struct {
	sessions SessionStore
	feedback FeedbackScheduler
	levels   LevelRecalculator
	activity ActivitySink
	logger   *zap.Logger
	now      func() time.Time
	hooks    sync.WaitGroup
}

func NewSessionService(
	sessions SessionStore,
	feedback FeedbackScheduler,
	levels LevelRecalculator,
	activity ActivitySink,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		feedback: feedback,
		levels:   levels,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// GetByID returns a session. Viewing is unrestricted; lifecycle guards apply
// to mutations only.
func (s *SessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, model.NewNotFound("session not found")
	}
	return session, nil
}

// GetByParticipant lists the sessions a user takes part in.
func (s *SessionService) GetByParticipant(ctx context.Context, userID uuid.UUID) ([]*model.Session, error) {
	return s.sessions.GetByParticipant(ctx, userID)
}

// Cancel terminates a scheduled session on a participant's request.
func (s *SessionService) Cancel(ctx context.Context, sessionID, actorID uuid.UUID, reason string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return model.NewNotFound("session not found")
	}
	if !session.IsParticipant(actorID) {
		return model.NewForbidden("only a session participant can cancel")
	}
	if session.Status != model.SessionStatusScheduled {
		return model.NewInvalidState(fmt.Sprintf("cannot cancel a session in status %q", session.Status))
	}

	now := s.now()
	cancelled, err := s.sessions.Cancel(ctx, sessionID, actorID, strings.TrimSpace(reason), now)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}
	if !cancelled {
		return model.NewInvalidState("session is no longer cancellable")
	}

	s.recordActivity(ctx, model.ActivityEvent{
		Type:        model.ActivitySessionCancelled,
		ActorID:     actorID,
		EntityID:    sessionID,
		Description: fmt.Sprintf("Session %q cancelled", session.Subject),
		OccurredAt:  now,
	})

	s.logger.Info("Session cancelled",
		zap.String("session_id", sessionID.String()),
		zap.String("cancelled_by", actorID.String()),
	)

	return nil
}

// Complete finalizes a session and stamps completed_at exactly once. The
// feedback and level hooks run asynchronously; their failures are logged and
// never surfaced to the caller.
func (s *SessionService) Complete(ctx context.Context, sessionID, actorID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return model.NewNotFound("session not found")
	}
	if !session.IsParticipant(actorID) {
		return model.NewForbidden("only a session participant can complete the session")
	}
	if session.Status == model.SessionStatusCompleted {
		return model.NewInvalidState("session is already completed")
	}
	if session.Status.IsTerminal() {
		return model.NewInvalidState(fmt.Sprintf("cannot complete a session in status %q", session.Status))
	}

	now := s.now()
	completed, err := s.sessions.Complete(ctx, sessionID, now)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if !completed {
		return model.NewInvalidState("session is already finalized")
	}

	s.recordActivity(ctx, model.ActivityEvent{
		Type:        model.ActivitySessionCompleted,
		ActorID:     actorID,
		EntityID:    sessionID,
		Description: fmt.Sprintf("Session %q completed", session.Subject),
		OccurredAt:  now,
	})

	s.logger.Info("Session completed",
		zap.String("session_id", sessionID.String()),
		zap.String("tutor_id", session.TutorID.String()),
	)

	s.hooks.Add(1)
	go func() {
		defer s.hooks.Done()
		s.runCompletionHooks(sessionID, session.TutorID, session.StudentID, now)
	}()

	return nil
}

// Wait drains in-flight completion hooks. Called on shutdown and by tests.
func (s *SessionService) Wait() {
	s.hooks.Wait()
}

func (s *SessionService) runCompletionHooks(sessionID, tutorID, studentID uuid.UUID, completedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	if err := s.feedback.Schedule(ctx, sessionID, tutorID, studentID, completedAt); err != nil {
		s.logger.Error("Failed to schedule feedback", zap.Error(err),
			zap.String("session_id", sessionID.String()))
	}

	if err := s.levels.Recalculate(ctx, tutorID); err != nil {
		s.logger.Error("Failed to recalculate tutor level", zap.Error(err),
			zap.String("tutor_id", tutorID.String()))
	}
}

func (s *SessionService) recordActivity(ctx context.Context, event model.ActivityEvent) {
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Error("Failed to record activity", zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("entity_id", event.EntityID.String()))
	}
}
