package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/aulaflow/streaks-backend/internal/domain"
)

type staticIDGenerator struct {
	n int
}

func (g *staticIDGenerator) Generate() (string, error) {
	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

// memStore is an in-memory StreakStore. Atomic snapshots the whole store
// and restores it when fn fails, matching the all-or-nothing contract.
type memStore struct {
	completions map[string]*domain.WeeklyLessonCompletionModel
	streaks     []*domain.UserStreakModel
	badges      []*domain.UserStreakBadgeModel
	points      []*domain.UserPointsHistoryModel
	recoveries  []*domain.StreakRecoveryHistoryModel
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{completions: make(map[string]*domain.WeeklyLessonCompletionModel)}
}

func (s *memStore) Completions() domain.CompletionRepository { return s }
func (s *memStore) Streaks() domain.StreakRepository         { return s }
func (s *memStore) Badges() domain.BadgeRepository           { return s }
func (s *memStore) History() domain.HistoryRepository        { return s }

func (s *memStore) Atomic(ctx context.Context, fn func(domain.StreakStore) error) error {
	snap := s.clone()
	if err := fn(s); err != nil {
		*s = *snap
		return err
	}
	return nil
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = s.nextID
	for k, v := range s.completions {
		cp := *v
		c.completions[k] = &cp
	}
	for _, v := range s.streaks {
		cp := *v
		c.streaks = append(c.streaks, &cp)
	}
	for _, v := range s.badges {
		cp := *v
		c.badges = append(c.badges, &cp)
	}
	for _, v := range s.points {
		cp := *v
		c.points = append(c.points, &cp)
	}
	for _, v := range s.recoveries {
		cp := *v
		c.recoveries = append(c.recoveries, &cp)
	}
	return c
}

func completionKey(userID string, weekStart time.Time, courseID string) string {
	return userID + "|" + weekStart.Format("2006-01-02") + "|" + courseID
}

func (s *memStore) IncrementCompletion(ctx context.Context, userID, courseID string, weekStart, at time.Time) error {
	key := completionKey(userID, weekStart, courseID)
	if row, ok := s.completions[key]; ok {
		row.LessonsInWeek++
		row.LastLessonAt = &at
		return nil
	}
	s.nextID++
	s.completions[key] = &domain.WeeklyLessonCompletionModel{
		ID:            s.nextID,
		UserID:        userID,
		WeekStart:     weekStart,
		CourseID:      courseID,
		LessonsInWeek: 1,
		LastLessonAt:  &at,
	}
	return nil
}

func (s *memStore) AggregateWeek(ctx context.Context, userID string, weekStart time.Time) (*domain.WeekAggregate, error) {
	agg := &domain.WeekAggregate{}
	for _, row := range s.completions {
		if row.UserID == userID && row.WeekStart.Equal(weekStart) {
			agg.TotalLessons += row.LessonsInWeek
			agg.DistinctCourses++
		}
	}
	return agg, nil
}

func (s *memStore) GetWeek(ctx context.Context, userID string, weekStart time.Time) (*domain.UserStreakModel, error) {
	for _, row := range s.streaks {
		if row.UserID == userID && row.WeekStartDate.Equal(weekStart) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) LatestBefore(ctx context.Context, userID string, weekStart time.Time) (*domain.UserStreakModel, error) {
	var latest *domain.UserStreakModel
	for _, row := range s.streaks {
		if row.UserID != userID || !row.WeekStartDate.Before(weekStart) {
			continue
		}
		if latest == nil || row.WeekStartDate.After(latest.WeekStartDate) {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, row *domain.UserStreakModel) error {
	for i, existing := range s.streaks {
		if existing.UserID == row.UserID && existing.WeekStartDate.Equal(row.WeekStartDate) {
			cp := *row
			cp.ID = existing.ID
			s.streaks[i] = &cp
			return nil
		}
	}
	s.nextID++
	cp := *row
	cp.ID = s.nextID
	s.streaks = append(s.streaks, &cp)
	return nil
}

func (s *memStore) InsertIfAbsent(ctx context.Context, row *domain.UserStreakModel) error {
	for _, existing := range s.streaks {
		if existing.UserID == row.UserID && existing.WeekStartDate.Equal(row.WeekStartDate) {
			return nil
		}
	}
	s.nextID++
	cp := *row
	cp.ID = s.nextID
	s.streaks = append(s.streaks, &cp)
	return nil
}

func (s *memStore) MaxLongestStreak(ctx context.Context, userID string) (int, error) {
	max := 0
	for _, row := range s.streaks {
		if row.UserID == userID && row.LongestStreak > max {
			max = row.LongestStreak
		}
	}
	return max, nil
}

func (s *memStore) Award(ctx context.Context, badge *domain.UserStreakBadgeModel) error {
	for _, existing := range s.badges {
		if existing.UserID == badge.UserID && existing.BadgeLevel == badge.BadgeLevel {
			return nil
		}
	}
	s.nextID++
	cp := *badge
	cp.ID = s.nextID
	s.badges = append(s.badges, &cp)
	return nil
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]*domain.UserStreakBadgeModel, error) {
	var out []*domain.UserStreakBadgeModel
	for _, badge := range s.badges {
		if badge.UserID == userID {
			cp := *badge
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].EarnedAt.After(out[j].EarnedAt)
	})
	return out, nil
}

func (s *memStore) AppendPoints(ctx context.Context, entry *domain.UserPointsHistoryModel) error {
	cp := *entry
	s.points = append(s.points, &cp)
	return nil
}

func (s *memStore) AppendRecovery(ctx context.Context, entry *domain.StreakRecoveryHistoryModel) error {
	cp := *entry
	s.recoveries = append(s.recoveries, &cp)
	return nil
}

func newTestUseCase(store *memStore, at time.Time) *StreakUseCase {
	su := NewStreakUseCase(store, domain.DefaultStreakConfig(), &staticIDGenerator{})
	su.now = func() time.Time { return at }
	return su
}

// wednesday of an arbitrary reference week
var testNow = time.Date(2021, 3, 17, 15, 0, 0, 0, time.UTC)

func complete(t *testing.T, su *StreakUseCase, user, course string) *domain.CompletionResult {
	t.Helper()
	res, err := su.RecordLessonCompletion(context.Background(), &domain.CompletionEvent{
		UserID:   user,
		CourseID: course,
	})
	if err != nil {
		t.Fatalf("RecordLessonCompletion: %v", err)
	}
	return res
}

func TestRecordLessonCompletion_Validation(t *testing.T) {
	su := newTestUseCase(newMemStore(), testNow)
	if _, err := su.RecordLessonCompletion(context.Background(), &domain.CompletionEvent{CourseID: "go-101"}); err != domain.ErrUserRequired {
		t.Errorf("want ErrUserRequired, got %v", err)
	}
	if _, err := su.RecordLessonCompletion(context.Background(), &domain.CompletionEvent{UserID: "u1"}); err != domain.ErrCourseRequired {
		t.Errorf("want ErrCourseRequired, got %v", err)
	}
}

func TestRecordLessonCompletion_BelowGoal(t *testing.T) {
	store := newMemStore()
	su := newTestUseCase(store, testNow)

	var res *domain.CompletionResult
	for i := 0; i < 4; i++ {
		res = complete(t, su, "u1", "go-101")
	}
	if res.TotalLessonsThisWeek != 4 {
		t.Errorf("want 4 lessons, got %d", res.TotalLessonsThisWeek)
	}
	if res.GoalMet {
		t.Error("goal should not be met at 4 lessons")
	}
	if res.CurrentStreak != 0 {
		t.Errorf("want streak 0, got %d", res.CurrentStreak)
	}
	if res.WeekProgress != "4/5" {
		t.Errorf("want progress 4/5, got %q", res.WeekProgress)
	}
	if len(store.points) != 0 {
		t.Errorf("no points should be credited below the goal, got %d entries", len(store.points))
	}
	if len(store.badges) != 0 {
		t.Errorf("no badges below the goal, got %d", len(store.badges))
	}
}

func TestRecordLessonCompletion_GoalMet(t *testing.T) {
	store := newMemStore()
	su := newTestUseCase(store, testNow)

	var res *domain.CompletionResult
	for i := 0; i < 5; i++ {
		res = complete(t, su, "u1", "go-101")
	}
	if !res.GoalMet {
		t.Fatal("goal should be met at 5 lessons")
	}
	if res.CurrentStreak != 1 {
		t.Errorf("want streak 1, got %d", res.CurrentStreak)
	}

	row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow))
	if row.WeekPoints != 5 || row.TotalPoints != 5 {
		t.Errorf("want 5/5 points, got week=%d total=%d", row.WeekPoints, row.TotalPoints)
	}
	if len(store.points) != 1 || store.points[0].PointsEarned != 5 {
		t.Fatalf("want one +5 history entry, got %+v", store.points)
	}
	if store.points[0].TransactionType != domain.TransactionWeeklyGoal {
		t.Errorf("want WEEKLY_GOAL entry, got %q", store.points[0].TransactionType)
	}
	if len(store.badges) != 1 || store.badges[0].BadgeLevel != domain.BadgePrincipiante {
		t.Fatalf("want PRINCIPIANTE badge, got %+v", store.badges)
	}
}

func TestRecordLessonCompletion_IdempotentRecomputation(t *testing.T) {
	store := newMemStore()
	su := newTestUseCase(store, testNow)

	for i := 0; i < 6; i++ {
		complete(t, su, "u1", "go-101")
	}

	// 6 lessons pay 10, but 5 were already credited at lesson five:
	// only the 5-point difference lands
	row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow))
	if row.WeekPoints != 10 {
		t.Errorf("want week points 10, got %d", row.WeekPoints)
	}
	if row.TotalPoints != 10 {
		t.Errorf("want total points 10, got %d", row.TotalPoints)
	}
	if row.LifetimePointsEarned != 10 {
		t.Errorf("want lifetime points 10, got %d", row.LifetimePointsEarned)
	}
	if len(store.points) != 2 {
		t.Fatalf("want two history entries, got %d", len(store.points))
	}
	if store.points[1].PointsEarned != 5 {
		t.Errorf("second entry should credit the 5-point difference, got %d", store.points[1].PointsEarned)
	}
}

func TestRecordLessonCompletion_DiversityBonus(t *testing.T) {
	store := newMemStore()
	su := newTestUseCase(store, testNow)

	complete(t, su, "u1", "go-101")
	complete(t, su, "u1", "sql-201")
	complete(t, su, "u1", "css-301")
	complete(t, su, "u1", "go-101")
	res := complete(t, su, "u1", "go-101")

	if res.CoursesUsedThisWeek != 3 {
		t.Fatalf("want 3 courses, got %d", res.CoursesUsedThisWeek)
	}
	row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow))
	if row.WeekPoints != 7 { // 5 base + 2 diversity
		t.Errorf("want 7 points, got %d", row.WeekPoints)
	}
}

func TestRecordLessonCompletion_StreakExtendsAcrossWeeks(t *testing.T) {
	store := newMemStore()
	week1 := newTestUseCase(store, testNow)
	for i := 0; i < 5; i++ {
		complete(t, week1, "u1", "go-101")
	}

	week2 := newTestUseCase(store, testNow.AddDate(0, 0, 7))
	var res *domain.CompletionResult
	for i := 0; i < 5; i++ {
		res = complete(t, week2, "u1", "go-101")
	}
	if res.CurrentStreak != 2 {
		t.Fatalf("want streak 2, got %d", res.CurrentStreak)
	}

	row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow.AddDate(0, 0, 7)))
	if row.LongestStreak != 2 {
		t.Errorf("want longest 2, got %d", row.LongestStreak)
	}
	// week two pays 5 base + 3 streak bonus, on top of week one's 5
	if row.TotalPoints != 13 {
		t.Errorf("want total 13, got %d", row.TotalPoints)
	}

	levels := map[domain.BadgeLevel]bool{}
	for _, badge := range store.badges {
		levels[badge.BadgeLevel] = true
	}
	if !levels[domain.BadgePrincipiante] || !levels[domain.BadgeEstudiante] {
		t.Errorf("want PRINCIPIANTE and ESTUDIANTE, got %+v", levels)
	}
}

func TestRecordLessonCompletion_GapWeeksDoNotBreak(t *testing.T) {
	store := newMemStore()
	week1 := newTestUseCase(store, testNow)
	for i := 0; i < 5; i++ {
		complete(t, week1, "u1", "go-101")
	}

	// three silent weeks later, the chain continues off the last stored row
	later := newTestUseCase(store, testNow.AddDate(0, 0, 28))
	var res *domain.CompletionResult
	for i := 0; i < 5; i++ {
		res = complete(t, later, "u1", "go-101")
	}
	if res.CurrentStreak != 2 {
		t.Errorf("want streak 2, got %d", res.CurrentStreak)
	}
}

func TestRecordLessonCompletion_StoredIncompleteWeekResets(t *testing.T) {
	store := newMemStore()
	week1 := newTestUseCase(store, testNow)
	for i := 0; i < 5; i++ {
		complete(t, week1, "u1", "go-101")
	}

	// week two stays below the goal, leaving a stored incomplete row
	week2 := newTestUseCase(store, testNow.AddDate(0, 0, 7))
	complete(t, week2, "u1", "go-101")

	week3 := newTestUseCase(store, testNow.AddDate(0, 0, 14))
	var res *domain.CompletionResult
	for i := 0; i < 5; i++ {
		res = complete(t, week3, "u1", "go-101")
	}
	if res.CurrentStreak != 1 {
		t.Errorf("want streak restarted at 1, got %d", res.CurrentStreak)
	}

	row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow.AddDate(0, 0, 14)))
	if row.LongestStreak != 1 {
		t.Errorf("longest should survive at 1, got %d", row.LongestStreak)
	}
}

func TestEnsureWeekInitialized_CarriesForward(t *testing.T) {
	store := newMemStore()
	week1 := newTestUseCase(store, testNow)
	for i := 0; i < 5; i++ {
		complete(t, week1, "u1", "go-101")
	}

	week2 := newTestUseCase(store, testNow.AddDate(0, 0, 7))
	row, err := week2.EnsureWeekInitialized(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EnsureWeekInitialized: %v", err)
	}
	if !row.WeekStartDate.Equal(domain.WeekStart(testNow.AddDate(0, 0, 7))) {
		t.Errorf("wrong week start %v", row.WeekStartDate)
	}
	if row.CurrentWeekLessons != 0 {
		t.Errorf("fresh week should have 0 lessons, got %d", row.CurrentWeekLessons)
	}
	if row.CurrentStreak != 1 || row.TotalPoints != 5 {
		t.Errorf("carried state wrong: streak=%d points=%d", row.CurrentStreak, row.TotalPoints)
	}

	// second call is a no-op and returns the same row
	again, err := week2.EnsureWeekInitialized(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EnsureWeekInitialized: %v", err)
	}
	if again.ID != row.ID {
		t.Errorf("want same row, got ids %d and %d", row.ID, again.ID)
	}
	if len(store.streaks) != 2 {
		t.Errorf("want 2 stored weeks, got %d", len(store.streaks))
	}
}

func TestComputeCurrentWeekView_DoesNotWrite(t *testing.T) {
	store := newMemStore()
	week1 := newTestUseCase(store, testNow)
	for i := 0; i < 5; i++ {
		complete(t, week1, "u1", "go-101")
	}

	week2 := newTestUseCase(store, testNow.AddDate(0, 0, 7))
	stats, err := week2.ComputeCurrentWeekView(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ComputeCurrentWeekView: %v", err)
	}
	if stats.CurrentStreak != 1 || stats.TotalPoints != 5 {
		t.Errorf("carried view wrong: %+v", stats)
	}
	if stats.GoalMet {
		t.Error("new week should not have the goal met")
	}
	if len(store.streaks) != 1 {
		t.Errorf("read must not materialize rows, got %d", len(store.streaks))
	}
}

func TestGetUserStreakStats(t *testing.T) {
	store := newMemStore()
	su := newTestUseCase(store, testNow)
	for i := 0; i < 5; i++ {
		complete(t, su, "u1", "go-101")
	}

	stats, err := su.GetUserStreakStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserStreakStats: %v", err)
	}
	if stats.CurrentWeekLessons != 5 || !stats.GoalMet {
		t.Errorf("stats wrong: %+v", stats)
	}
	if stats.CurrentBadge == nil || stats.CurrentBadge.BadgeLevel != domain.BadgePrincipiante {
		t.Errorf("want PRINCIPIANTE current badge, got %+v", stats.CurrentBadge)
	}
	if stats.RecoveryCost != 10 {
		t.Errorf("want recovery cost 10, got %d", stats.RecoveryCost)
	}
	if stats.CanRecover {
		t.Error("active streak must not be recoverable")
	}
}

func TestUseStreakRecovery_Preconditions(t *testing.T) {
	t.Run("streak not broken", func(t *testing.T) {
		store := newMemStore()
		su := newTestUseCase(store, testNow)
		for i := 0; i < 5; i++ {
			complete(t, su, "u1", "go-101")
		}
		_, err := su.UseStreakRecovery(context.Background(), "u1", "")
		var re *domain.RecoveryError
		if !errors.As(err, &re) {
			t.Fatalf("want RecoveryError, got %v", err)
		}
	})

	t.Run("no badges", func(t *testing.T) {
		su := newTestUseCase(newMemStore(), testNow)
		_, err := su.UseStreakRecovery(context.Background(), "u1", "")
		var re *domain.RecoveryError
		if !errors.As(err, &re) {
			t.Fatalf("want RecoveryError, got %v", err)
		}
	})

	t.Run("insufficient points", func(t *testing.T) {
		store := newMemStore()
		store.streaks = append(store.streaks, &domain.UserStreakModel{
			ID:            1,
			UserID:        "u1",
			WeekStartDate: domain.WeekStart(testNow),
			TotalPoints:   5,
		})
		store.badges = append(store.badges, &domain.UserStreakBadgeModel{
			ID: 2, UserID: "u1", BadgeLevel: domain.BadgePrincipiante, EarnedAt: testNow,
		})
		su := newTestUseCase(store, testNow)
		_, err := su.UseStreakRecovery(context.Background(), "u1", "")
		var re *domain.RecoveryError
		if !errors.As(err, &re) {
			t.Fatalf("want RecoveryError, got %v", err)
		}
		// rejected recovery leaves the balance alone
		row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow))
		if row.TotalPoints != 5 || row.RecoveryCount != 0 {
			t.Errorf("state changed on rejection: %+v", row)
		}
	})
}

func TestUseStreakRecovery_Success(t *testing.T) {
	store := newMemStore()
	store.streaks = append(store.streaks, &domain.UserStreakModel{
		ID:            1,
		UserID:        "u1",
		WeekStartDate: domain.WeekStart(testNow),
		CurrentStreak: 0,
		LongestStreak: 4,
		TotalPoints:   40,
	})
	store.badges = append(store.badges,
		&domain.UserStreakBadgeModel{ID: 2, UserID: "u1", BadgeLevel: domain.BadgePrincipiante, EarnedAt: testNow.AddDate(0, 0, -28)},
		&domain.UserStreakBadgeModel{ID: 3, UserID: "u1", BadgeLevel: domain.BadgeDedicado, EarnedAt: testNow.AddDate(0, 0, -7)},
	)
	su := newTestUseCase(store, testNow)

	res, err := su.UseStreakRecovery(context.Background(), "u1", "missed a week while travelling")
	if err != nil {
		t.Fatalf("UseStreakRecovery: %v", err)
	}
	if !res.Success || res.PointsSpent != 25 {
		t.Fatalf("want 25 points spent, got %+v", res)
	}

	row, _ := store.GetWeek(context.Background(), "u1", domain.WeekStart(testNow))
	if row.CurrentStreak != 1 {
		t.Errorf("want streak revived at 1, got %d", row.CurrentStreak)
	}
	if row.TotalPoints != 15 {
		t.Errorf("want balance 15, got %d", row.TotalPoints)
	}
	if row.PointsSpentOnRecovery != 25 || row.RecoveryCount != 1 {
		t.Errorf("recovery counters wrong: %+v", row)
	}
	if row.LastRecoveryUsed == nil {
		t.Error("LastRecoveryUsed not set")
	}

	if len(store.points) != 1 || store.points[0].PointsEarned != -25 {
		t.Fatalf("want one -25 entry, got %+v", store.points)
	}
	if store.points[0].TransactionType != domain.TransactionRecoverySpent {
		t.Errorf("want RECOVERY_SPENT, got %q", store.points[0].TransactionType)
	}
	if len(store.recoveries) != 1 {
		t.Fatalf("want one recovery record, got %d", len(store.recoveries))
	}
	rec := store.recoveries[0]
	if rec.BadgeLevel != domain.BadgeDedicado || rec.OriginalStreakLost != 4 {
		t.Errorf("recovery record wrong: %+v", rec)
	}
	if !rec.WeekMissed.Equal(domain.WeekStart(testNow).AddDate(0, 0, -7)) {
		t.Errorf("wrong missed week %v", rec.WeekMissed)
	}
}

func TestCalculateWeeklyPoints(t *testing.T) {
	su := newTestUseCase(newMemStore(), testNow)
	if got := su.CalculateWeeklyPoints(10, 3, 12); got != 52 {
		t.Errorf("want 52, got %d", got)
	}
}
