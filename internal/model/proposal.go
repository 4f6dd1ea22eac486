package model

import (
	"time"

	"github.com/google/uuid"
)

type ProposalStatus string

const (
	ProposalStatusProposed ProposalStatus = "proposed"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExpired  ProposalStatus = "expired"
)

// SessionProposal is a tutor-issued, time-boxed offer attached to a
// conversation. It expires at its own start time: a proposal that outlives
// the slot it offers is meaningless.
type SessionProposal struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	TutorID        uuid.UUID `json:"tutor_id"`
	StudentID      uuid.UUID `json:"student_id"`

	Subject      string    `json:"subject"`
	Description  string    `json:"description,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	PricePerHour float64   `json:"price_per_hour"`
	TotalPrice   float64   `json:"total_price"`

	Status          ProposalStatus `json:"status"`
	ExpiresAt       time.Time      `json:"expires_at"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	SessionID       *uuid.UUID     `json:"session_id,omitempty"` // set once accepted

	CreatedAt time.Time `json:"created_at"`
}

// IsExpiredAt reports whether the proposal can no longer be acted on at now.
func (p *SessionProposal) IsExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// DurationMinutes returns the proposed session length in minutes.
func (p *SessionProposal) DurationMinutes() int {
	return int(p.EndTime.Sub(p.StartTime) / time.Minute)
}

// PriceFor computes a session price from an hourly rate and a length in
// minutes.
func PriceFor(hourlyRate float64, minutes int) float64 {
	return hourlyRate * float64(minutes) / 60
}
