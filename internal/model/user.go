package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTutor   UserRole = "tutor"
	RoleAdmin   UserRole = "admin"
)

// PricingTier determines the hourly rate a student pays. Three fixed tiers.
type PricingTier string

const (
	TierBasic    PricingTier = "basic"
	TierStandard PricingTier = "standard"
	TierPremium  PricingTier = "premium"
)

// HourlyRate returns the per-hour price for the tier. Unknown tiers fall
// back to the basic rate.
func (t PricingTier) HourlyRate() float64 {
	switch t {
	case TierStandard:
		return 35
	case TierPremium:
		return 50
	default:
		return 20
	}
}

type User struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Role              UserRole    `json:"role"`
	Verified          bool        `json:"verified"`
	PricingTier       PricingTier `json:"pricing_tier"`
	Level             int         `json:"level"`
	CompletedSessions int         `json:"completed_sessions"`
	CreatedAt         time.Time   `json:"created_at"`
}

// IsVerifiedTutor reports whether the user may issue session proposals.
func (u *User) IsVerifiedTutor() bool {
	return u.Role == RoleTutor && u.Verified
}

// LevelForCompletedSessions maps a completed-session count to a tutor level.
func LevelForCompletedSessions(count int) int {
	switch {
	case count >= 50:
		return 3
	case count >= 10:
		return 2
	default:
		return 1
	}
}
