package repository

import (
	"context"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
)

type HistoryRepository struct {
	Conn driver.ITransactionalDB `dep:""`
}

var _ domain.HistoryRepository = &HistoryRepository{}

func NewHistoryRepository(Conn driver.ITransactionalDB) *HistoryRepository {
	return &HistoryRepository{
		Conn: Conn,
	}
}

// AppendPoints writes one audit row. Rows are never updated or deleted.
func (repo *HistoryRepository) AppendPoints(ctx context.Context, entry *domain.UserPointsHistoryModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO user_points_history (id, user_id, points_earned, transaction_type, reason,
    week_start, lessons_completed, courses_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.UserID, entry.PointsEarned, entry.TransactionType, entry.Reason,
		entry.WeekStart, entry.LessonsCompleted, entry.CoursesUsed, entry.CreatedAt)
	return err
}

func (repo *HistoryRepository) AppendRecovery(ctx context.Context, entry *domain.StreakRecoveryHistoryModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO streak_recovery_history (id, user_id, points_spent, badge_level, recovery_reason,
    original_streak_lost, week_missed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.UserID, entry.PointsSpent, string(entry.BadgeLevel), entry.RecoveryReason,
		entry.OriginalStreakLost, entry.WeekMissed, entry.CreatedAt)
	return err
}
