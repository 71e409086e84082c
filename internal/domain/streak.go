package domain

import (
	"context"
	"time"
)

// UserStreakModel is one user's weekly streak state. One row exists per
// (user, week); the row with the greatest WeekStartDate is the current state.
type UserStreakModel struct {
	ID                    int64      `json:"-"`
	UserID                string     `json:"user_id"`
	WeekStartDate         time.Time  `json:"week_start_date"`
	CurrentWeekLessons    int        `json:"current_week_lessons"`
	IsCurrentWeekComplete bool       `json:"is_current_week_complete"`
	CurrentStreak         int        `json:"current_streak"`
	LongestStreak         int        `json:"longest_streak"`
	WeekPoints            int        `json:"week_points"`
	TotalPoints           int        `json:"total_points"`
	LifetimePointsEarned  int        `json:"lifetime_points_earned"`
	PointsSpentOnRecovery int        `json:"points_spent_on_recovery"`
	RecoveryCount         int        `json:"recovery_count"`
	LastRecoveryUsed      *time.Time `json:"last_recovery_used,omitempty"`
	LastLessonCompletedAt *time.Time `json:"last_lesson_completed_at,omitempty"`
}

// StreakStats is the consolidated read view served to clients.
type StreakStats struct {
	CurrentWeekLessons int                     `json:"current_week_lessons"`
	WeekProgress       string                  `json:"week_progress"`
	CurrentStreak      int                     `json:"current_streak"`
	LongestStreak      int                     `json:"longest_streak"`
	TotalPoints        int                     `json:"total_points"`
	GoalMet            bool                    `json:"goal_met"`
	Badges             []*UserStreakBadgeModel `json:"badges"`
	CurrentBadge       *UserStreakBadgeModel   `json:"current_badge,omitempty"`
	RecoveryCost       int                     `json:"recovery_cost"`
	CanRecover         bool                    `json:"can_recover"`
}

// RecoveryResult reports a successful streak recovery.
type RecoveryResult struct {
	Success     bool `json:"success"`
	PointsSpent int  `json:"points_spent"`
}

type StreakRepository interface {
	// GetWeek returns the row for (user, weekStart), or nil if absent.
	GetWeek(ctx context.Context, userID string, weekStart time.Time) (*UserStreakModel, error)
	// LatestBefore returns the most recent stored row strictly before
	// weekStart, or nil. Weeks with no row at all are skipped over.
	LatestBefore(ctx context.Context, userID string, weekStart time.Time) (*UserStreakModel, error)
	// Save upserts the row keyed by (user, week).
	Save(ctx context.Context, row *UserStreakModel) error
	// InsertIfAbsent creates the row only when no row exists for its week.
	InsertIfAbsent(ctx context.Context, row *UserStreakModel) error
	// MaxLongestStreak returns the historical maximum across all weeks.
	MaxLongestStreak(ctx context.Context, userID string) (int, error)
}

// StreakStore bundles the engine repositories and provides the transaction
// envelope: Atomic runs fn against tx-bound repositories and commits only
// if fn returns nil.
type StreakStore interface {
	Completions() CompletionRepository
	Streaks() StreakRepository
	Badges() BadgeRepository
	History() HistoryRepository
	Atomic(ctx context.Context, fn func(StreakStore) error) error
}

type StreakUseCase interface {
	RecordLessonCompletion(ctx context.Context, event *CompletionEvent) (*CompletionResult, error)
	GetUserStreakStats(ctx context.Context, userID string) (*StreakStats, error)
	EnsureWeekInitialized(ctx context.Context, userID string) (*UserStreakModel, error)
	ComputeCurrentWeekView(ctx context.Context, userID string) (*StreakStats, error)
	UseStreakRecovery(ctx context.Context, userID, reason string) (*RecoveryResult, error)
	CalculateWeeklyPoints(lessons, courses, streak int) int
}
