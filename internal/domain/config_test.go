package domain

import "testing"

func TestStreakConfig_WeeklyPoints(t *testing.T) {
	cfg := DefaultStreakConfig()
	tests := []struct {
		name    string
		lessons int
		courses int
		streak  int
		want    int
	}{
		{name: "below goal earns nothing", lessons: 3, courses: 1, streak: 0, want: 0},
		{name: "exactly at goal", lessons: 5, courses: 1, streak: 0, want: 5},
		{name: "six lessons upgrades the base", lessons: 6, courses: 1, streak: 0, want: 10},
		{name: "seven lessons adds overachiever bonus", lessons: 7, courses: 1, streak: 0, want: 12},
		{name: "ten lessons adds marathon bonus", lessons: 10, courses: 1, streak: 0, want: 17},
		{name: "three courses adds diversity bonus", lessons: 8, courses: 3, streak: 0, want: 14},
		{name: "streak of two adds first streak bonus", lessons: 8, courses: 3, streak: 2, want: 17},
		{name: "long streak stacks every bonus", lessons: 10, courses: 3, streak: 12, want: 52},
		{name: "zero activity", lessons: 0, courses: 0, streak: 5, want: 0},
		{name: "four lessons with a live streak still earns nothing", lessons: 4, courses: 2, streak: 8, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.WeeklyPoints(tt.lessons, tt.courses, tt.streak); got != tt.want {
				t.Errorf("WeeklyPoints(%d, %d, %d) = %d, want %d",
					tt.lessons, tt.courses, tt.streak, got, tt.want)
			}
		})
	}
}

func TestStreakConfig_NextStreak(t *testing.T) {
	cfg := DefaultStreakConfig()
	tests := []struct {
		name        string
		total       int
		prev        *UserStreakModel
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "goal met with no history starts at one",
			total:       5,
			prev:        nil,
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "goal met after complete week extends the chain",
			total:       6,
			prev:        &UserStreakModel{CurrentStreak: 3, LongestStreak: 4, IsCurrentWeekComplete: true},
			wantCurrent: 4,
			wantLongest: 4,
		},
		{
			name:        "goal met after incomplete week resets to one",
			total:       5,
			prev:        &UserStreakModel{CurrentStreak: 0, LongestStreak: 7, IsCurrentWeekComplete: false},
			wantCurrent: 1,
			wantLongest: 7,
		},
		{
			name:        "goal missed zeroes the streak",
			total:       4,
			prev:        &UserStreakModel{CurrentStreak: 9, LongestStreak: 9, IsCurrentWeekComplete: true},
			wantCurrent: 0,
			wantLongest: 9,
		},
		{
			name:        "longest never decreases",
			total:       5,
			prev:        &UserStreakModel{CurrentStreak: 1, LongestStreak: 12, IsCurrentWeekComplete: true},
			wantCurrent: 2,
			wantLongest: 12,
		},
		{
			name:        "new record replaces longest",
			total:       5,
			prev:        &UserStreakModel{CurrentStreak: 12, LongestStreak: 12, IsCurrentWeekComplete: true},
			wantCurrent: 13,
			wantLongest: 13,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := cfg.NextStreak(tt.total, tt.prev)
			if current != tt.wantCurrent {
				t.Errorf("NextStreak() current = %d, want %d", current, tt.wantCurrent)
			}
			if longest != tt.wantLongest {
				t.Errorf("NextStreak() longest = %d, want %d", longest, tt.wantLongest)
			}
		})
	}
}

func TestStreakConfig_EligibleTiers(t *testing.T) {
	cfg := DefaultStreakConfig()
	tiers := cfg.EligibleTiers(12)
	want := []BadgeLevel{BadgePrincipiante, BadgeEstudiante, BadgeDedicado, BadgeEnLlamas, BadgeImparable}
	if len(tiers) != len(want) {
		t.Fatalf("EligibleTiers(12) returned %d tiers, want %d", len(tiers), len(want))
	}
	for i, level := range want {
		if tiers[i].Level != level {
			t.Errorf("EligibleTiers(12)[%d] = %s, want %s", i, tiers[i].Level, level)
		}
	}
	if got := cfg.EligibleTiers(0); got != nil {
		t.Errorf("EligibleTiers(0) = %v, want none", got)
	}
}

func TestStreakConfig_HighestTier(t *testing.T) {
	cfg := DefaultStreakConfig()
	if _, ok := cfg.HighestTier(nil); ok {
		t.Error("HighestTier(nil) reported a tier for a user without badges")
	}
	badges := []*UserStreakBadgeModel{
		{BadgeLevel: BadgeEnLlamas},
		{BadgeLevel: BadgePrincipiante},
		{BadgeLevel: BadgeDedicado},
	}
	tier, ok := cfg.HighestTier(badges)
	if !ok || tier.Level != BadgeEnLlamas {
		t.Errorf("HighestTier() = %v ok=%v, want EN_LLAMAS", tier.Level, ok)
	}
}
