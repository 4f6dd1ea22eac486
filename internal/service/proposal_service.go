package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
	"go.uber.org/zap"
)

// MinRejectionReasonLength is the shortest rejection reason a student may
// give when declining a proposal.
const MinRejectionReasonLength = 10

// ProposalService is the proposal gateway and booking confirmer: it turns a
// tutor offer into an expirable proposal and an accepted proposal into a
// scheduled session.
type ProposalService struct {
	proposals     ProposalStore
	sessions      SessionStore
	users         IdentityProvider
	conversations ConversationStore
	activity      ActivitySink
	logger        *zap.Logger
	now           func() time.Time
}

func NewProposalService(
	proposals ProposalStore,
	sessions SessionStore,
	users IdentityProvider,
	conversations ConversationStore,
	activity ActivitySink,
	logger *zap.Logger,
) *ProposalService {
	return &ProposalService{
		proposals:     proposals,
		sessions:      sessions,
		users:         users,
		conversations: conversations,
		activity:      activity,
		logger:        logger,
		now:           time.Now,
	}
}

// Propose creates a pending proposal in a conversation. The price is derived
// from the student's pricing tier; the proposal expires at its own start
// time.
func (s *ProposalService) Propose(ctx context.Context, tutorID, conversationID uuid.UUID, subject string, startTime, endTime time.Time, description string) (*model.SessionProposal, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, model.NewValidation("subject is required")
	}
	if !endTime.After(startTime) {
		return nil, model.NewValidation("session end time must be after start time")
	}

	now := s.now()
	if !startTime.After(now) {
		return nil, model.NewValidation("session start time must be in the future")
	}

	tutor, err := s.users.GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return nil, model.NewNotFound("tutor not found")
	}
	if !tutor.IsVerifiedTutor() {
		return nil, model.NewForbidden("only verified tutors can propose sessions")
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, model.NewNotFound("conversation not found")
	}
	if !conv.HasParticipant(tutorID) {
		return nil, model.NewForbidden("tutor is not a participant of the conversation")
	}

	studentID, _ := conv.CounterpartyOf(tutorID)
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, model.NewNotFound("student not found")
	}

	minutes := int(endTime.Sub(startTime) / time.Minute)
	rate := student.PricingTier.HourlyRate()

	proposal := &model.SessionProposal{
		ID:             uuid.New(),
		ConversationID: conversationID,
		TutorID:        tutorID,
		StudentID:      studentID,
		Subject:        subject,
		Description:    strings.TrimSpace(description),
		StartTime:      startTime,
		EndTime:        endTime,
		PricePerHour:   rate,
		TotalPrice:     model.PriceFor(rate, minutes),
		Status:         model.ProposalStatusProposed,
		ExpiresAt:      startTime,
	}

	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	s.logger.Info("Session proposed",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("tutor_id", tutorID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("subject", subject),
		zap.Time("start_time", startTime),
	)

	return proposal, nil
}

// Accept turns an open proposal into a scheduled session. An acceptance
// arriving past the expiry flips the proposal to expired and fails instead
// of silently booking a session that already started.
func (s *ProposalService) Accept(ctx context.Context, proposalID, studentID uuid.UUID) (*model.Session, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if proposal == nil {
		return nil, model.NewNotFound("proposal not found")
	}
	if proposal.StudentID != studentID {
		return nil, model.NewForbidden("only the conversation counter-party can accept a proposal")
	}
	if proposal.Status == model.ProposalStatusExpired {
		return nil, model.NewExpired("proposal has expired")
	}
	if proposal.Status != model.ProposalStatusProposed {
		return nil, model.NewInvalidState("proposal has already been resolved")
	}

	now := s.now()
	if proposal.IsExpiredAt(now) {
		if _, err := s.proposals.MarkExpired(ctx, proposalID); err != nil {
			s.logger.Error("Failed to expire proposal", zap.Error(err),
				zap.String("proposal_id", proposalID.String()))
		}
		return nil, model.NewExpired("proposal expired at its start time")
	}

	conv, err := s.conversations.GetByID(ctx, proposal.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, model.NewNotFound("conversation not found")
	}

	sessionID := uuid.New()

	// Claiming the proposal first makes concurrent accepts race on a single
	// conditional update; the loser matches nothing.
	claimed, err := s.proposals.MarkAccepted(ctx, proposalID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("mark proposal accepted: %w", err)
	}
	if !claimed {
		return nil, model.NewInvalidState("proposal has already been resolved")
	}

	session := &model.Session{
		ID:              sessionID,
		StudentID:       proposal.StudentID,
		TutorID:         proposal.TutorID,
		Subject:         proposal.Subject,
		StartTime:       proposal.StartTime,
		EndTime:         proposal.EndTime,
		DurationMinutes: proposal.DurationMinutes(),
		PricePerHour:    proposal.PricePerHour,
		TotalPrice:      proposal.TotalPrice,
		Status:          model.SessionStatusScheduled,
		ProposalID:      &proposal.ID,
		ConversationID:  proposal.ConversationID,
		TrialRequestID:  conv.TrialRequestID,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.recordActivity(ctx, model.ActivityEvent{
		Type:        model.ActivitySessionScheduled,
		ActorID:     studentID,
		EntityID:    sessionID,
		Description: fmt.Sprintf("Session %q scheduled for %s", session.Subject, session.StartTime.Format(time.RFC3339)),
		OccurredAt:  now,
	})

	s.logger.Info("Proposal accepted",
		zap.String("proposal_id", proposalID.String()),
		zap.String("session_id", sessionID.String()),
		zap.String("student_id", studentID.String()),
		zap.Bool("trial", session.IsTrial()),
	)

	return session, nil
}

// PendingByConversation lists the open proposals in a conversation for one
// of its participants.
func (s *ProposalService) PendingByConversation(ctx context.Context, conversationID, actorID uuid.UUID) ([]*model.SessionProposal, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, model.NewNotFound("conversation not found")
	}
	if !conv.HasParticipant(actorID) {
		return nil, model.NewForbidden("only a conversation participant can list its proposals")
	}

	proposals, err := s.proposals.GetPendingByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get pending proposals: %w", err)
	}

	return proposals, nil
}

// Reject declines an open proposal with a reason. No session is created.
func (s *ProposalService) Reject(ctx context.Context, proposalID, studentID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if len(reason) < MinRejectionReasonLength {
		return model.NewValidation(fmt.Sprintf("rejection reason must be at least %d characters", MinRejectionReasonLength))
	}

	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("get proposal: %w", err)
	}
	if proposal == nil {
		return model.NewNotFound("proposal not found")
	}
	if proposal.StudentID != studentID {
		return model.NewForbidden("only the conversation counter-party can reject a proposal")
	}
	if proposal.Status == model.ProposalStatusExpired {
		return model.NewExpired("proposal has expired")
	}
	if proposal.Status != model.ProposalStatusProposed {
		return model.NewInvalidState("proposal has already been resolved")
	}

	if proposal.IsExpiredAt(s.now()) {
		if _, err := s.proposals.MarkExpired(ctx, proposalID); err != nil {
			s.logger.Error("Failed to expire proposal", zap.Error(err),
				zap.String("proposal_id", proposalID.String()))
		}
		return model.NewExpired("proposal expired at its start time")
	}

	rejected, err := s.proposals.MarkRejected(ctx, proposalID, reason)
	if err != nil {
		return fmt.Errorf("mark proposal rejected: %w", err)
	}
	if !rejected {
		return model.NewInvalidState("proposal has already been resolved")
	}

	s.logger.Info("Proposal rejected",
		zap.String("proposal_id", proposalID.String()),
		zap.String("student_id", studentID.String()),
	)

	return nil
}

func (s *ProposalService) recordActivity(ctx context.Context, event model.ActivityEvent) {
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Error("Failed to record activity", zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("entity_id", event.EntityID.String()))
	}
}
