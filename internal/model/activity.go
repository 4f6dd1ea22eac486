package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivitySessionScheduled ActivityType = "SESSION_SCHEDULED"
	ActivitySessionCancelled ActivityType = "SESSION_CANCELLED"
	ActivitySessionCompleted ActivityType = "SESSION_COMPLETED"
)

// ActivityEvent is an observational audit record emitted on lifecycle
// transitions. Delivery is best-effort and never blocks the transition.
type ActivityEvent struct {
	Type        ActivityType `json:"type"`
	ActorID     uuid.UUID    `json:"actor_id"`
	EntityID    uuid.UUID    `json:"entity_id"`
	Description string       `json:"description"`
	OccurredAt  time.Time    `json:"occurred_at"`
}
