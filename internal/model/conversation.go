package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversation links a student and a tutor. When it originated from a
// trial-matching flow, TrialRequestID is set and the resulting session is a
// free trial.
type Conversation struct {
	ID             uuid.UUID  `json:"id"`
	StudentID      uuid.UUID  `json:"student_id"`
	TutorID        uuid.UUID  `json:"tutor_id"`
	TrialRequestID *uuid.UUID `json:"trial_request_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.StudentID == userID || c.TutorID == userID
}

// CounterpartyOf returns the other party of userID, or false when userID is
// not a participant at all.
func (c *Conversation) CounterpartyOf(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case c.StudentID:
		return c.TutorID, true
	case c.TutorID:
		return c.StudentID, true
	}
	return uuid.Nil, false
}
