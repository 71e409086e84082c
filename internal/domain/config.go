package domain

// StreakBonus adds Points once the streak reaches MinStreak. Bonuses are
// cumulative: a long streak collects every bonus it qualifies for.
type StreakBonus struct {
	MinStreak int
	Points    int
}

// BadgeTier couples a badge level with the consecutive-week count that
// unlocks it and the recovery price charged against it.
type BadgeTier struct {
	Level         BadgeLevel
	WeeksRequired int
	RecoveryCost  int
}

// StreakConfig holds every tunable of the engine. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type StreakConfig struct {
	WeeklyGoal int

	// base points by lessons completed
	BasePoints      int // exactly at the goal
	BonusBasePoints int // at BonusBaseAt lessons and above
	BonusBaseAt     int

	// additive lesson-count bonuses
	OverachieverBonus int
	OverachieverAt    int
	MarathonBonus     int
	MarathonAt        int

	// diversity bonus for spreading lessons across courses
	DiversityBonus int
	DiversityAt    int

	StreakBonuses []StreakBonus
	Badges        []BadgeTier // ascending by WeeksRequired
}

// DefaultStreakConfig returns the production tuning.
func DefaultStreakConfig() StreakConfig {
	return StreakConfig{
		WeeklyGoal:        5,
		BasePoints:        5,
		BonusBasePoints:   10,
		BonusBaseAt:       6,
		OverachieverBonus: 2,
		OverachieverAt:    7,
		MarathonBonus:     5,
		MarathonAt:        10,
		DiversityBonus:    2,
		DiversityAt:       3,
		StreakBonuses: []StreakBonus{
			{MinStreak: 2, Points: 3},
			{MinStreak: 4, Points: 5},
			{MinStreak: 8, Points: 10},
			{MinStreak: 12, Points: 15},
		},
		Badges: []BadgeTier{
			{Level: BadgePrincipiante, WeeksRequired: 1, RecoveryCost: 10},
			{Level: BadgeEstudiante, WeeksRequired: 2, RecoveryCost: 15},
			{Level: BadgeDedicado, WeeksRequired: 4, RecoveryCost: 25},
			{Level: BadgeEnLlamas, WeeksRequired: 8, RecoveryCost: 40},
			{Level: BadgeImparable, WeeksRequired: 12, RecoveryCost: 60},
			{Level: BadgeMaestro, WeeksRequired: 24, RecoveryCost: 100},
			{Level: BadgeLeyenda, WeeksRequired: 52, RecoveryCost: 150},
		},
	}
}

// WeeklyPoints computes the points earned for one week. The result depends
// only on the arguments, never on prior weeks.
func (c StreakConfig) WeeklyPoints(lessons, courses, streak int) int {
	if lessons < c.WeeklyGoal {
		return 0
	}
	points := c.BasePoints
	if lessons >= c.BonusBaseAt {
		points = c.BonusBasePoints
	}
	if lessons >= c.OverachieverAt {
		points += c.OverachieverBonus
	}
	if lessons >= c.MarathonAt {
		points += c.MarathonBonus
	}
	if courses >= c.DiversityAt {
		points += c.DiversityBonus
	}
	for _, bonus := range c.StreakBonuses {
		if streak >= bonus.MinStreak {
			points += bonus.Points
		}
	}
	return points
}

// NextStreak derives the streak for a week from its lesson total and the
// most recent stored prior week. A prior week that was never stored does
// not count as a break; only a stored incomplete week resets the chain.
func (c StreakConfig) NextStreak(totalLessons int, prev *UserStreakModel) (current, longest int) {
	if totalLessons >= c.WeeklyGoal {
		if prev != nil && prev.IsCurrentWeekComplete {
			current = prev.CurrentStreak + 1
		} else {
			current = 1
		}
	}
	longest = current
	if prev != nil && prev.LongestStreak > longest {
		longest = prev.LongestStreak
	}
	return current, longest
}

// EligibleTiers returns the tiers unlocked at the given streak, ascending.
func (c StreakConfig) EligibleTiers(streak int) []BadgeTier {
	var tiers []BadgeTier
	for _, tier := range c.Badges {
		if streak >= tier.WeeksRequired {
			tiers = append(tiers, tier)
		}
	}
	return tiers
}

// TierByLevel looks a tier up by its badge level.
func (c StreakConfig) TierByLevel(level BadgeLevel) (BadgeTier, bool) {
	for _, tier := range c.Badges {
		if tier.Level == level {
			return tier, true
		}
	}
	return BadgeTier{}, false
}

// HighestTier returns the highest tier among the earned badges.
func (c StreakConfig) HighestTier(badges []*UserStreakBadgeModel) (BadgeTier, bool) {
	var (
		best  BadgeTier
		found bool
	)
	for _, badge := range badges {
		tier, ok := c.TierByLevel(badge.BadgeLevel)
		if !ok {
			continue
		}
		if !found || tier.WeeksRequired > best.WeeksRequired {
			best = tier
			found = true
		}
	}
	return best, found
}

// LowestTier is the default recovery pricing for users without badges.
func (c StreakConfig) LowestTier() BadgeTier {
	return c.Badges[0]
}
