// Package period computes canonical period boundary keys for time-windowed
// quests. Keeping this pure makes rollover behavior testable independent of
// storage.
package period

import (
	"time"

	"trophyhub/internal/model"
)

// KeyFor returns the canonical period key for a quest period type at the
// given instant. Quests without a period have no key (nil). Daily quests key
// on the end of the current day, weekly quests on the end of the current
// Monday-based week, both at 23:59:59.999 in loc.
func KeyFor(periodType string, now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	switch periodType {
	case model.PeriodDaily:
		key := endOfDay(local)
		return &key
	case model.PeriodWeekly:
		key := endOfWeek(local)
		return &key
	default:
		return nil
	}
}

// endOfDay returns t's day at 23:59:59.999.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

// endOfWeek returns the Sunday of t's Monday-based week at 23:59:59.999.
func endOfWeek(t time.Time) time.Time {
	daysUntilSunday := (7 - int(t.Weekday())) % 7
	sunday := t.AddDate(0, 0, daysUntilSunday)
	return endOfDay(sunday)
}
