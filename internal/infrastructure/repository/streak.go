package repository

import (
	"context"
	"time"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
)

type StreakRepository struct {
	Conn driver.ITransactionalDB `dep:""`
}

var _ domain.StreakRepository = &StreakRepository{}

func NewStreakRepository(Conn driver.ITransactionalDB) *StreakRepository {
	return &StreakRepository{
		Conn: Conn,
	}
}

const streakColumns = `
    id, user_id, week_start_date, current_week_lessons, is_current_week_complete,
    current_streak, longest_streak, week_points, total_points, lifetime_points_earned,
    points_spent_on_recovery, recovery_count, last_recovery_used, last_lesson_completed_at
`

func scanStreakRow(rows driver.ISQLRows) (*domain.UserStreakModel, error) {
	row := new(domain.UserStreakModel)
	err := rows.Scan(
		&row.ID, &row.UserID, &row.WeekStartDate, &row.CurrentWeekLessons, &row.IsCurrentWeekComplete,
		&row.CurrentStreak, &row.LongestStreak, &row.WeekPoints, &row.TotalPoints, &row.LifetimePointsEarned,
		&row.PointsSpentOnRecovery, &row.RecoveryCount, &row.LastRecoveryUsed, &row.LastLessonCompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (repo *StreakRepository) GetWeek(ctx context.Context, userID string, weekStart time.Time) (*domain.UserStreakModel, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT `+streakColumns+`
FROM
    user_streaks
WHERE
    user_id = $1 AND week_start_date = $2
	`, userID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanStreakRow(rows)
	}
	return nil, nil
}

func (repo *StreakRepository) LatestBefore(ctx context.Context, userID string, weekStart time.Time) (*domain.UserStreakModel, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT `+streakColumns+`
FROM
    user_streaks
WHERE
    user_id = $1 AND week_start_date < $2
ORDER BY week_start_date DESC
LIMIT 1
	`, userID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		return scanStreakRow(rows)
	}
	return nil, nil
}

// Save upserts the weekly row keyed by (user, week).
func (repo *StreakRepository) Save(ctx context.Context, row *domain.UserStreakModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO user_streaks (user_id, week_start_date, current_week_lessons, is_current_week_complete,
    current_streak, longest_streak, week_points, total_points, lifetime_points_earned,
    points_spent_on_recovery, recovery_count, last_recovery_used, last_lesson_completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (user_id, week_start_date)
DO UPDATE SET
    current_week_lessons = $3, is_current_week_complete = $4,
    current_streak = $5, longest_streak = $6, week_points = $7,
    total_points = $8, lifetime_points_earned = $9,
    points_spent_on_recovery = $10, recovery_count = $11,
    last_recovery_used = $12, last_lesson_completed_at = $13
	`, row.UserID, row.WeekStartDate, row.CurrentWeekLessons, row.IsCurrentWeekComplete,
		row.CurrentStreak, row.LongestStreak, row.WeekPoints, row.TotalPoints, row.LifetimePointsEarned,
		row.PointsSpentOnRecovery, row.RecoveryCount, row.LastRecoveryUsed, row.LastLessonCompletedAt)
	return err
}

// InsertIfAbsent creates the weekly row only when it does not exist yet,
// leaving concurrent writers' rows untouched.
func (repo *StreakRepository) InsertIfAbsent(ctx context.Context, row *domain.UserStreakModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO user_streaks (user_id, week_start_date, current_week_lessons, is_current_week_complete,
    current_streak, longest_streak, week_points, total_points, lifetime_points_earned,
    points_spent_on_recovery, recovery_count, last_recovery_used, last_lesson_completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (user_id, week_start_date) DO NOTHING
	`, row.UserID, row.WeekStartDate, row.CurrentWeekLessons, row.IsCurrentWeekComplete,
		row.CurrentStreak, row.LongestStreak, row.WeekPoints, row.TotalPoints, row.LifetimePointsEarned,
		row.PointsSpentOnRecovery, row.RecoveryCount, row.LastRecoveryUsed, row.LastLessonCompletedAt)
	return err
}

func (repo *StreakRepository) MaxLongestStreak(ctx context.Context, userID string) (int, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT COALESCE(MAX(longest_streak), 0)
FROM
    user_streaks
WHERE
    user_id = $1
	`, userID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var longest int
	if rows.Next() {
		if err := rows.Scan(&longest); err != nil {
			return 0, err
		}
	}
	return longest, nil
}
