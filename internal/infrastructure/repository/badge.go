package repository

import (
	"context"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
)

type BadgeRepository struct {
	Conn driver.ITransactionalDB `dep:""`
}

var _ domain.BadgeRepository = &BadgeRepository{}

func NewBadgeRepository(Conn driver.ITransactionalDB) *BadgeRepository {
	return &BadgeRepository{
		Conn: Conn,
	}
}

// Award inserts the badge row. The unique key on (user_id, badge_level)
// makes repeated awards a no-op, never a duplicate.
func (repo *BadgeRepository) Award(ctx context.Context, badge *domain.UserStreakBadgeModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO user_streak_badges (user_id, badge_level, streak_when_earned, earned_at, is_active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, badge_level) DO NOTHING
	`, badge.UserID, string(badge.BadgeLevel), badge.StreakWhenEarned, badge.EarnedAt, badge.IsActive)
	return err
}

func (repo *BadgeRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserStreakBadgeModel, error) {
	conn := repo.Conn
	rows, err := conn.QueryContext(ctx, `
SELECT
    id, user_id, badge_level, streak_when_earned, earned_at, is_active
FROM
    user_streak_badges
WHERE
    user_id = $1
ORDER BY earned_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.UserStreakBadgeModel
	for rows.Next() {
		badge := new(domain.UserStreakBadgeModel)
		var level string
		err := rows.Scan(&badge.ID, &badge.UserID, &level, &badge.StreakWhenEarned, &badge.EarnedAt, &badge.IsActive)
		if err != nil {
			return nil, err
		}
		badge.BadgeLevel = domain.BadgeLevel(level)
		result = append(result, badge)
	}
	return result, nil
}
