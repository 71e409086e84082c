package domain

import "time"

// WeekStart returns the canonical start of the week containing t:
// Monday 00:00:00 in t's location. Applying it twice yields the same value.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 { // time.Sunday
		weekday = 7
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// WeekEnd returns the canonical end of the week containing t:
// the following Sunday at 23:59:59 in t's location.
func WeekEnd(t time.Time) time.Time {
	sunday := WeekStart(t).AddDate(0, 0, 6)
	return time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
}
