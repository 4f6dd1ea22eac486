package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusScheduled           SessionStatus = "scheduled"
	SessionStatusStartingSoon        SessionStatus = "starting_soon"
	SessionStatusInProgress          SessionStatus = "in_progress"
	SessionStatusRescheduleRequested SessionStatus = "reschedule_requested"
	SessionStatusCompleted           SessionStatus = "completed"
	SessionStatusCancelled           SessionStatus = "cancelled"
	SessionStatusExpired             SessionStatus = "expired"
	SessionStatusNoShow              SessionStatus = "no_show" // reserved for attendance tracking, never produced by the sweep
)

// IsTerminal reports whether no further lifecycle transition is possible.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelled, SessionStatusExpired, SessionStatusNoShow:
		return true
	}
	return false
}

type RescheduleStatus string

const (
	RescheduleStatusPending  RescheduleStatus = "pending"
	RescheduleStatusApproved RescheduleStatus = "approved"
	RescheduleStatusRejected RescheduleStatus = "rejected"
)

// RescheduleRequest is the negotiation sub-record embedded in a session.
// A nil *RescheduleRequest on Session means no request was ever made;
// a resolved request stays around as history.
type RescheduleRequest struct {
	RequestedBy  uuid.UUID        `json:"requested_by"`
	RequestedAt  time.Time        `json:"requested_at"`
	NewStartTime time.Time        `json:"new_start_time"`
	NewEndTime   time.Time        `json:"new_end_time"`
	Reason       string           `json:"reason"`
	Status       RescheduleStatus `json:"status"`
	RespondedBy  *uuid.UUID       `json:"responded_by,omitempty"`
	RespondedAt  *time.Time       `json:"responded_at,omitempty"`
}

func (r *RescheduleRequest) IsPending() bool {
	return r != nil && r.Status == RescheduleStatusPending
}

type Session struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	TutorID   uuid.UUID `json:"tutor_id"`
	Subject   string    `json:"subject"`

	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	PricePerHour    float64   `json:"price_per_hour"`
	TotalPrice      float64   `json:"total_price"`

	Status      SessionStatus `json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	ExpiredAt   *time.Time    `json:"expired_at,omitempty"`

	PreviousStartTime *time.Time         `json:"previous_start_time,omitempty"`
	PreviousEndTime   *time.Time         `json:"previous_end_time,omitempty"`
	Reschedule        *RescheduleRequest `json:"reschedule,omitempty"`

	ProposalID     *uuid.UUID `json:"proposal_id,omitempty"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	TrialRequestID *uuid.UUID `json:"trial_request_id,omitempty"` // set when the session is a free trial

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        *uuid.UUID `json:"cancelled_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether userID is the student or the tutor on the
// session. Admins are deliberately not participants for lifecycle guards.
func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return s.StudentID == userID || s.TutorID == userID
}

// Duration returns the scheduled length of the session.
func (s *Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// OtherParticipant returns the counter-party of userID on the session.
func (s *Session) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if s.StudentID == userID {
		return s.TutorID
	}
	return s.StudentID
}

// IsTrial reports whether the session originated from a trial-matching flow.
func (s *Session) IsTrial() bool {
	return s.TrialRequestID != nil
}
