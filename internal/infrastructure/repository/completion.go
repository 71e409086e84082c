package repository

import (
	"context"
	"time"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
)

type CompletionRepository struct {
	Conn driver.ITransactionalDB `dep:""`
}

var _ domain.CompletionRepository = &CompletionRepository{}

func NewCompletionRepository(Conn driver.ITransactionalDB) *CompletionRepository {
	return &CompletionRepository{
		Conn: Conn,
	}
}

// IncrementCompletion bumps the ledger counter for (user, week, course).
// The upsert keeps the increment atomic at the storage layer, so concurrent
// completions of the same triple never lose updates.
func (repo *CompletionRepository) IncrementCompletion(ctx context.Context, userID, courseID string, weekStart, at time.Time) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO weekly_lesson_completions (user_id, week_start, course_id, lessons_in_week, last_lesson_at)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (user_id, week_start, course_id)
DO UPDATE SET lessons_in_week = weekly_lesson_completions.lessons_in_week + 1, last_lesson_at = $4
	`, userID, weekStart, courseID, at)
	return err
}

// AggregateWeek sums the user's ledger rows for one week into a typed result.
func (repo *CompletionRepository) AggregateWeek(ctx context.Context, userID string, weekStart time.Time) (*domain.WeekAggregate, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT
    COALESCE(SUM(lessons_in_week), 0) total_lessons,
    COUNT(DISTINCT course_id) distinct_courses
FROM
    weekly_lesson_completions
WHERE
    user_id = $1 AND week_start = $2
	`, userID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agg := new(domain.WeekAggregate)
	if rows.Next() {
		if err := rows.Scan(&agg.TotalLessons, &agg.DistinctCourses); err != nil {
			return nil, err
		}
	}
	return agg, nil
}
