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

// MinRescheduleNotice is how far before the start a reschedule must be
// requested. A request at start-10m exactly is already too late.
const MinRescheduleNotice = 10 * time.Minute

// RescheduleService runs the two-party time-change negotiation: either
// participant may request, only the other may approve or reject.
type RescheduleService struct {
	sessions SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewRescheduleService(sessions SessionStore, logger *zap.Logger) *RescheduleService {
	return &RescheduleService{
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Request installs a pending reschedule request. The session length is
// preserved: the new end time is derived from the new start time plus the
// original duration, not supplied by the caller.
func (s *RescheduleService) Request(ctx context.Context, sessionID, actorID uuid.UUID, newStartTime time.Time, reason string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return model.NewNotFound("session not found")
	}
	if !session.IsParticipant(actorID) {
		return model.NewForbidden("only a session participant can request a reschedule")
	}
	if session.Status != model.SessionStatusScheduled && session.Status != model.SessionStatusStartingSoon {
		return model.NewInvalidState(fmt.Sprintf("cannot reschedule a session in status %q", session.Status))
	}
	if session.Reschedule.IsPending() {
		return model.NewInvalidState("a reschedule request is already pending")
	}

	now := s.now()
	if session.StartTime.Sub(now) <= MinRescheduleNotice {
		return model.NewInvalidState("cannot reschedule within 10 minutes of session start")
	}
	if !newStartTime.After(now) {
		return model.NewValidation("new start time must be in the future")
	}

	request := &model.RescheduleRequest{
		RequestedBy:  actorID,
		RequestedAt:  now,
		NewStartTime: newStartTime,
		NewEndTime:   newStartTime.Add(session.Duration()),
		Reason:       strings.TrimSpace(reason),
		Status:       model.RescheduleStatusPending,
	}

	installed, err := s.sessions.InstallReschedule(ctx, sessionID, request)
	if err != nil {
		return fmt.Errorf("install reschedule: %w", err)
	}
	if !installed {
		// Lost the conditional write: a concurrent request or a sweep moved
		// the session first.
		return model.NewInvalidState("a reschedule request is already pending")
	}

	s.logger.Info("Reschedule requested",
		zap.String("session_id", sessionID.String()),
		zap.String("requested_by", actorID.String()),
		zap.Time("new_start_time", newStartTime),
	)

	return nil
}

// Approve applies the requested times. Only the counter-party of the
// requester may approve.
func (s *RescheduleService) Approve(ctx context.Context, sessionID, actorID uuid.UUID) error {
	_, request, err := s.pendingRequest(ctx, sessionID, actorID)
	if err != nil {
		return err
	}
	if request.RequestedBy == actorID {
		return model.NewForbidden("cannot approve your own reschedule request")
	}

	approved, err := s.sessions.ApproveReschedule(ctx, sessionID, actorID, s.now())
	if err != nil {
		return fmt.Errorf("approve reschedule: %w", err)
	}
	if !approved {
		return model.NewInvalidState("no pending reschedule request")
	}

	s.logger.Info("Reschedule approved",
		zap.String("session_id", sessionID.String()),
		zap.String("approved_by", actorID.String()),
		zap.Time("start_time", request.NewStartTime),
		zap.Time("end_time", request.NewEndTime),
	)

	return nil
}

// Reject declines the requested times; the original window stays in force.
func (s *RescheduleService) Reject(ctx context.Context, sessionID, actorID uuid.UUID) error {
	_, request, err := s.pendingRequest(ctx, sessionID, actorID)
	if err != nil {
		return err
	}
	if request.RequestedBy == actorID {
		return model.NewForbidden("cannot reject your own reschedule request")
	}

	rejected, err := s.sessions.RejectReschedule(ctx, sessionID, actorID, s.now())
	if err != nil {
		return fmt.Errorf("reject reschedule: %w", err)
	}
	if !rejected {
		return model.NewInvalidState("no pending reschedule request")
	}

	s.logger.Info("Reschedule rejected",
		zap.String("session_id", sessionID.String()),
		zap.String("rejected_by", actorID.String()),
	)

	return nil
}

func (s *RescheduleService) pendingRequest(ctx context.Context, sessionID, actorID uuid.UUID) (*model.Session, *model.RescheduleRequest, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil, model.NewNotFound("session not found")
	}
	if !session.IsParticipant(actorID) {
		return nil, nil, model.NewForbidden("only a session participant can respond to a reschedule request")
	}
	if session.Status != model.SessionStatusRescheduleRequested || !session.Reschedule.IsPending() {
		return nil, nil, model.NewInvalidState("no pending reschedule request")
	}
	return session, session.Reschedule, nil
}
