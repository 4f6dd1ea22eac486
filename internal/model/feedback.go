package model

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackStatus string

const (
	FeedbackStatusPending   FeedbackStatus = "pending"
	FeedbackStatusSubmitted FeedbackStatus = "submitted"
)

// FeedbackWindow is how long after completion feedback stays due.
const FeedbackWindow = 72 * time.Hour

// Feedback is the pending post-session feedback record created when a
// session completes.
type Feedback struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	TutorID   uuid.UUID      `json:"tutor_id"`
	StudentID uuid.UUID      `json:"student_id"`
	Status    FeedbackStatus `json:"status"`
	DueAt     time.Time      `json:"due_at"`
	CreatedAt time.Time      `json:"created_at"`
}
