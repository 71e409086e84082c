package domain

import (
	"context"
	"time"
)

// BadgeLevel names one of the seven streak milestones.
type BadgeLevel string

const (
	BadgePrincipiante BadgeLevel = "PRINCIPIANTE"
	BadgeEstudiante   BadgeLevel = "ESTUDIANTE"
	BadgeDedicado     BadgeLevel = "DEDICADO"
	BadgeEnLlamas     BadgeLevel = "EN_LLAMAS"
	BadgeImparable    BadgeLevel = "IMPARABLE"
	BadgeMaestro      BadgeLevel = "MAESTRO"
	BadgeLeyenda      BadgeLevel = "LEYENDA"
)

// UserStreakBadgeModel is a badge a user earned. At most one row exists per
// (user, level); badges are permanent once earned.
type UserStreakBadgeModel struct {
	ID               int64      `json:"-"`
	UserID           string     `json:"user_id"`
	BadgeLevel       BadgeLevel `json:"badge_level"`
	StreakWhenEarned int        `json:"streak_when_earned"`
	EarnedAt         time.Time  `json:"earned_at"`
	IsActive         bool       `json:"is_active"`
}

type BadgeRepository interface {
	// Award inserts the badge row. Duplicate awards for the same
	// (user, level) must be silently ignored by the storage layer.
	Award(ctx context.Context, badge *UserStreakBadgeModel) error
	// ListByUser returns the user's badges ordered most recently earned first.
	ListByUser(ctx context.Context, userID string) ([]*UserStreakBadgeModel, error)
}
