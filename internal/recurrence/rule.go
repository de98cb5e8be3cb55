// Package recurrence computes when a quest is next due.
package recurrence

import (
	"time"

	"github.com/dukerupert/questpet/internal/model"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// NextDue returns the next due instant after now for a quest of the given
// kind. ok is false for kinds that do not recur.
func NextDue(kind model.QuestType, days []int, now time.Time) (next time.Time, ok bool) {
	switch kind {
	case model.QuestDaily:
		return now.Add(Day), true
	case model.QuestWeekly, model.QuestSpecific:
		return now.AddDate(0, 0, DaysUntil(days, Index(now))), true
	default:
		return time.Time{}, false
	}
}

// DaysUntil returns the forward distance in days from weekday to the next
// selected weekday strictly after it, wrapping around the week. The
// result is always in [1,7]; landing on the same weekday counts as a full
// week. An empty selection means one week.
func DaysUntil(days []int, weekday int) int {
	days = Normalize(days)
	if len(days) == 0 {
		return 7
	}
	candidate := days[0]
	for _, d := range days {
		if d > weekday {
			candidate = d
			break
		}
	}
	delta := ((candidate-weekday)%7 + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return delta
}
