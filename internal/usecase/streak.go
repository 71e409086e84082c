package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/aulaflow/streaks-backend/internal/domain"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/uuid"
	"go.elastic.co/apm"
)

// StreakUseCase drives the weekly streak engine: the completion pipeline,
// the lazily materialized week rows, points and badge awards, and the
// recovery purchase flow.
type StreakUseCase struct {
	Store         domain.StreakStore
	Config        domain.StreakConfig
	UUIDGenerator uuid.Generator

	now func() time.Time
}

var _ domain.StreakUseCase = &StreakUseCase{}

// NewStreakUseCase ...
func NewStreakUseCase(
	Store domain.StreakStore,
	Config domain.StreakConfig,
	UUIDGenerator uuid.Generator,
) *StreakUseCase {
	return &StreakUseCase{
		Store:         Store,
		Config:        Config,
		UUIDGenerator: UUIDGenerator,
		now:           time.Now,
	}
}

// RecordLessonCompletion runs the whole completion pipeline in one
// transaction: ledger increment, week aggregation, streak derivation,
// points recomputation, audit trail and badge awards. Re-running it for
// the same week only ever credits the difference in points, so replays
// and late events are safe.
func (su *StreakUseCase) RecordLessonCompletion(ctx context.Context, event *domain.CompletionEvent) (*domain.CompletionResult, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCase.RecordLessonCompletion", "service")
	defer apmSpan.End()

	if event == nil || event.UserID == "" {
		return nil, domain.ErrUserRequired
	}
	if event.CourseID == "" {
		return nil, domain.ErrCourseRequired
	}

	now := su.now()
	weekStart := domain.WeekStart(now)

	var result *domain.CompletionResult
	err := su.Store.Atomic(ctx, func(s domain.StreakStore) error {
		if err := s.Completions().IncrementCompletion(ctx, event.UserID, event.CourseID, weekStart, now); err != nil {
			return err
		}
		agg, err := s.Completions().AggregateWeek(ctx, event.UserID, weekStart)
		if err != nil {
			return err
		}

		prev, err := s.Streaks().LatestBefore(ctx, event.UserID, weekStart)
		if err != nil {
			return err
		}
		row, err := s.Streaks().GetWeek(ctx, event.UserID, weekStart)
		if err != nil {
			return err
		}
		if row == nil {
			row = carryForwardWeek(event.UserID, weekStart, prev)
		}

		streak, longest := su.Config.NextStreak(agg.TotalLessons, prev)
		if row.LongestStreak > longest {
			longest = row.LongestStreak
		}
		points := su.Config.WeeklyPoints(agg.TotalLessons, agg.DistinctCourses, streak)

		// the row remembers what this week already paid out; only the
		// difference is credited
		delta := points - row.WeekPoints
		if delta < 0 {
			delta = 0
		}

		row.CurrentWeekLessons = agg.TotalLessons
		row.IsCurrentWeekComplete = agg.TotalLessons >= su.Config.WeeklyGoal
		row.CurrentStreak = streak
		row.LongestStreak = longest
		row.WeekPoints = points
		row.TotalPoints += delta
		row.LifetimePointsEarned += delta
		row.LastLessonCompletedAt = &now
		if err := s.Streaks().Save(ctx, row); err != nil {
			return err
		}

		if delta > 0 {
			id, err := su.UUIDGenerator.Generate()
			if err != nil {
				return err
			}
			lessons, courses := agg.TotalLessons, agg.DistinctCourses
			entry := &domain.UserPointsHistoryModel{
				ID:               id,
				UserID:           event.UserID,
				PointsEarned:     delta,
				TransactionType:  domain.TransactionWeeklyGoal,
				Reason:           fmt.Sprintf("weekly goal: %d lessons across %d courses", lessons, courses),
				WeekStart:        &weekStart,
				LessonsCompleted: &lessons,
				CoursesUsed:      &courses,
				CreatedAt:        now,
			}
			if err := s.History().AppendPoints(ctx, entry); err != nil {
				return err
			}
		}

		for _, tier := range su.Config.EligibleTiers(streak) {
			badge := &domain.UserStreakBadgeModel{
				UserID:           event.UserID,
				BadgeLevel:       tier.Level,
				StreakWhenEarned: streak,
				EarnedAt:         now,
				IsActive:         true,
			}
			if err := s.Badges().Award(ctx, badge); err != nil {
				return err
			}
		}

		result = &domain.CompletionResult{
			TotalLessonsThisWeek: agg.TotalLessons,
			CoursesUsedThisWeek:  agg.DistinctCourses,
			CurrentStreak:        streak,
			WeekProgress:         su.weekProgress(agg.TotalLessons),
			GoalMet:              row.IsCurrentWeekComplete,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EnsureWeekInitialized materializes the current week's row if it does not
// exist yet, carrying streak and points balances forward from the most
// recent stored week. Losing the insert race to a concurrent writer is
// fine, the stored row wins.
func (su *StreakUseCase) EnsureWeekInitialized(ctx context.Context, userID string) (*domain.UserStreakModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCase.EnsureWeekInitialized", "service")
	defer apmSpan.End()

	if userID == "" {
		return nil, domain.ErrUserRequired
	}

	weekStart := domain.WeekStart(su.now())
	streaks := su.Store.Streaks()
	row, err := streaks.GetWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	prev, err := streaks.LatestBefore(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	row = carryForwardWeek(userID, weekStart, prev)
	if err := streaks.InsertIfAbsent(ctx, row); err != nil {
		return nil, err
	}
	return streaks.GetWeek(ctx, userID, weekStart)
}

// ComputeCurrentWeekView is the read-only counterpart of
// GetUserStreakStats: it projects the current week's stats without ever
// writing, synthesizing a carried-forward view when no row exists yet.
func (su *StreakUseCase) ComputeCurrentWeekView(ctx context.Context, userID string) (*domain.StreakStats, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCase.ComputeCurrentWeekView", "service")
	defer apmSpan.End()

	if userID == "" {
		return nil, domain.ErrUserRequired
	}

	weekStart := domain.WeekStart(su.now())
	streaks := su.Store.Streaks()
	row, err := streaks.GetWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if row == nil {
		prev, err := streaks.LatestBefore(ctx, userID, weekStart)
		if err != nil {
			return nil, err
		}
		row = carryForwardWeek(userID, weekStart, prev)
	}
	return su.buildStats(ctx, row)
}

// GetUserStreakStats returns the consolidated stats view, materializing the
// current week's row first.
func (su *StreakUseCase) GetUserStreakStats(ctx context.Context, userID string) (*domain.StreakStats, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCase.GetUserStreakStats", "service")
	defer apmSpan.End()

	row, err := su.EnsureWeekInitialized(ctx, userID)
	if err != nil {
		return nil, err
	}
	return su.buildStats(ctx, row)
}

// UseStreakRecovery spends points to revive a broken streak at length 1.
// Every precondition failure is reported as a *domain.RecoveryError and
// leaves all state untouched.
func (su *StreakUseCase) UseStreakRecovery(ctx context.Context, userID, reason string) (*domain.RecoveryResult, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StreakUseCase.UseStreakRecovery", "service")
	defer apmSpan.End()

	if userID == "" {
		return nil, domain.ErrUserRequired
	}
	if reason == "" {
		reason = "streak recovery"
	}

	now := su.now()
	weekStart := domain.WeekStart(now)

	var result *domain.RecoveryResult
	err := su.Store.Atomic(ctx, func(s domain.StreakStore) error {
		row, err := s.Streaks().GetWeek(ctx, userID, weekStart)
		if err != nil {
			return err
		}
		if row == nil {
			prev, err := s.Streaks().LatestBefore(ctx, userID, weekStart)
			if err != nil {
				return err
			}
			row = carryForwardWeek(userID, weekStart, prev)
		}

		if row.CurrentStreak != 0 {
			return domain.NewRecoveryError("current streak is not broken")
		}
		badges, err := s.Badges().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		tier, ok := su.Config.HighestTier(badges)
		if !ok {
			return domain.NewRecoveryError("no badge earned yet")
		}
		if row.TotalPoints < tier.RecoveryCost {
			return domain.NewRecoveryError(fmt.Sprintf("insufficient points: need %d, have %d", tier.RecoveryCost, row.TotalPoints))
		}

		originalStreak := row.LongestStreak
		row.TotalPoints -= tier.RecoveryCost
		row.PointsSpentOnRecovery += tier.RecoveryCost
		row.RecoveryCount++
		row.LastRecoveryUsed = &now
		row.CurrentStreak = 1
		if err := s.Streaks().Save(ctx, row); err != nil {
			return err
		}

		pointsID, err := su.UUIDGenerator.Generate()
		if err != nil {
			return err
		}
		if err := s.History().AppendPoints(ctx, &domain.UserPointsHistoryModel{
			ID:              pointsID,
			UserID:          userID,
			PointsEarned:    -tier.RecoveryCost,
			TransactionType: domain.TransactionRecoverySpent,
			Reason:          reason,
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		recoveryID, err := su.UUIDGenerator.Generate()
		if err != nil {
			return err
		}
		if err := s.History().AppendRecovery(ctx, &domain.StreakRecoveryHistoryModel{
			ID:                 recoveryID,
			UserID:             userID,
			PointsSpent:        tier.RecoveryCost,
			BadgeLevel:         tier.Level,
			RecoveryReason:     reason,
			OriginalStreakLost: originalStreak,
			WeekMissed:         weekStart.AddDate(0, 0, -7),
			CreatedAt:          now,
		}); err != nil {
			return err
		}

		result = &domain.RecoveryResult{Success: true, PointsSpent: tier.RecoveryCost}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CalculateWeeklyPoints exposes the pure points formula for previews.
func (su *StreakUseCase) CalculateWeeklyPoints(lessons, courses, streak int) int {
	return su.Config.WeeklyPoints(lessons, courses, streak)
}

func (su *StreakUseCase) buildStats(ctx context.Context, row *domain.UserStreakModel) (*domain.StreakStats, error) {
	badges, err := su.Store.Badges().ListByUser(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	maxLongest, err := su.Store.Streaks().MaxLongestStreak(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	if row.LongestStreak > maxLongest {
		maxLongest = row.LongestStreak
	}

	stats := &domain.StreakStats{
		CurrentWeekLessons: row.CurrentWeekLessons,
		WeekProgress:       su.weekProgress(row.CurrentWeekLessons),
		CurrentStreak:      row.CurrentStreak,
		LongestStreak:      maxLongest,
		TotalPoints:        row.TotalPoints,
		GoalMet:            row.CurrentWeekLessons >= su.Config.WeeklyGoal,
		Badges:             badges,
	}

	// recovery is priced off the most recently earned badge; a user with
	// no badges sees the entry price but can never buy
	tier := su.Config.LowestTier()
	if len(badges) > 0 {
		stats.CurrentBadge = badges[0]
		if t, ok := su.Config.TierByLevel(badges[0].BadgeLevel); ok {
			tier = t
		}
	}
	stats.RecoveryCost = tier.RecoveryCost
	stats.CanRecover = row.CurrentStreak == 0 && len(badges) > 0 && row.TotalPoints >= tier.RecoveryCost

	return stats, nil
}

func (su *StreakUseCase) weekProgress(lessons int) string {
	return fmt.Sprintf("%d/%d", lessons, su.Config.WeeklyGoal)
}

// carryForwardWeek builds the fresh row for a new week, inheriting balances
// and streak state from the most recent stored week (nil for first-timers).
func carryForwardWeek(userID string, weekStart time.Time, prev *domain.UserStreakModel) *domain.UserStreakModel {
	row := &domain.UserStreakModel{
		UserID:        userID,
		WeekStartDate: weekStart,
	}
	if prev != nil {
		row.CurrentStreak = prev.CurrentStreak
		row.LongestStreak = prev.LongestStreak
		row.TotalPoints = prev.TotalPoints
		row.LifetimePointsEarned = prev.LifetimePointsEarned
		row.PointsSpentOnRecovery = prev.PointsSpentOnRecovery
		row.RecoveryCount = prev.RecoveryCount
		row.LastRecoveryUsed = prev.LastRecoveryUsed
	}
	return row
}
