package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
)

// Store contracts consumed by the services. The repository package provides
// the Postgres implementations; tests substitute in-memory fakes. The bool
// results of the conditional writes report whether the guarded transition
// matched a row — false means the session moved on under us and the caller
// maps it to an invalid-state error.

type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetByParticipant(ctx context.Context, userID uuid.UUID) ([]*model.Session, error)
	Cancel(ctx context.Context, id, by uuid.UUID, reason string, at time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	InstallReschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleRequest) (bool, error)
	ApproveReschedule(ctx context.Context, id, by uuid.UUID, at time.Time) (bool, error)
	RejectReschedule(ctx context.Context, id, by uuid.UUID, at time.Time) (bool, error)
	CountCompletedByTutor(ctx context.Context, tutorID uuid.UUID) (int, error)
}

// SweepStore is the bulk conditional-update surface the sweeper runs on.
// Each method is one atomic match-and-set; re-running it with the same now
// matches nothing the first run already moved.
type SweepStore interface {
	MarkStartingSoon(ctx context.Context, now time.Time, window time.Duration) (int64, error)
	MarkInProgress(ctx context.Context, now time.Time) (int64, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type ProposalStore interface {
	Create(ctx context.Context, p *model.SessionProposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SessionProposal, error)
	GetPendingByConversation(ctx context.Context, conversationID uuid.UUID) ([]*model.SessionProposal, error)
	MarkAccepted(ctx context.Context, id, sessionID uuid.UUID) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)
}

// IdentityProvider resolves users, their roles and verification flags.
type IdentityProvider interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateTutorLevel(ctx context.Context, tutorID uuid.UUID, level, completedSessions int) error
}

type ConversationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
}

// ActivitySink receives audit events. Purely observational; failures are
// logged by the caller and never fail the operation.
type ActivitySink interface {
	Record(ctx context.Context, event model.ActivityEvent) error
}

// FeedbackScheduler creates the pending feedback record for a completed
// session.
type FeedbackScheduler interface {
	Schedule(ctx context.Context, sessionID, tutorID, studentID uuid.UUID, completedAt time.Time) error
}

// LevelRecalculator recomputes a tutor's level counters from a fresh
// completed-session count.
type LevelRecalculator interface {
	Recalculate(ctx context.Context, tutorID uuid.UUID) error
}
