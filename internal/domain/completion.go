package domain

import (
	"context"
	"time"
)

// WeeklyLessonCompletionModel is the ledger row counting lessons a user
// finished in one course during one canonical week. Rows are only ever
// created or incremented.
type WeeklyLessonCompletionModel struct {
	ID            int64      `json:"-"`
	UserID        string     `json:"user_id"`
	WeekStart     time.Time  `json:"week_start"`
	CourseID      string     `json:"course_id"`
	LessonsInWeek int        `json:"lessons_in_week"`
	LastLessonAt  *time.Time `json:"last_lesson_at"`
}

// WeekAggregate is the typed roll-up of a user's ledger rows for one week.
type WeekAggregate struct {
	TotalLessons    int
	DistinctCourses int
}

// CompletionEvent is the inbound "lesson completed" notification.
// LessonNumber and LessonTitle are audit context only and never enter
// any computation.
type CompletionEvent struct {
	UserID       string
	CourseID     string
	LessonNumber int
	LessonTitle  string
}

// CompletionResult is returned to the caller after the pipeline ran.
type CompletionResult struct {
	TotalLessonsThisWeek int    `json:"total_lessons_this_week"`
	CoursesUsedThisWeek  int    `json:"courses_used_this_week"`
	CurrentStreak        int    `json:"current_streak"`
	WeekProgress         string `json:"week_progress"`
	GoalMet              bool   `json:"goal_met"`
}

type CompletionRepository interface {
	// IncrementCompletion bumps the (user, week, course) counter by one,
	// creating the row at 1 if absent. The increment must be atomic at the
	// storage layer.
	IncrementCompletion(ctx context.Context, userID, courseID string, weekStart, at time.Time) error
	AggregateWeek(ctx context.Context, userID string, weekStart time.Time) (*WeekAggregate, error)
}
