package domain

import (
	"context"
	"time"
)

// Points transaction types recorded in the audit log.
const (
	TransactionWeeklyGoal    = "WEEKLY_GOAL"
	TransactionRecoverySpent = "RECOVERY_SPENT"
)

// UserPointsHistoryModel is one append-only audit row per points-affecting
// event. PointsEarned is signed: negative entries record spending.
type UserPointsHistoryModel struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	PointsEarned     int        `json:"points_earned"`
	TransactionType  string     `json:"transaction_type"`
	Reason           string     `json:"reason"`
	WeekStart        *time.Time `json:"week_start,omitempty"`
	LessonsCompleted *int       `json:"lessons_completed,omitempty"`
	CoursesUsed      *int       `json:"courses_used,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// StreakRecoveryHistoryModel records one recovery purchase.
type StreakRecoveryHistoryModel struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	PointsSpent        int        `json:"points_spent"`
	BadgeLevel         BadgeLevel `json:"badge_level"`
	RecoveryReason     string     `json:"recovery_reason"`
	OriginalStreakLost int        `json:"original_streak_lost"`
	WeekMissed         time.Time  `json:"week_missed"`
	CreatedAt          time.Time  `json:"created_at"`
}

type HistoryRepository interface {
	AppendPoints(ctx context.Context, entry *UserPointsHistoryModel) error
	AppendRecovery(ctx context.Context, entry *StreakRecoveryHistoryModel) error
}
