package quest

import (
	"time"

	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/recurrence"
)

// PeriodFor returns the grace period a quest of the given kind gets past
// its due date. Non-recurring kinds have none.
func PeriodFor(kind model.QuestType) time.Duration {
	switch kind {
	case model.QuestDaily:
		return recurrence.Day
	case model.QuestWeekly, model.QuestSpecific:
		return recurrence.Week
	default:
		return 0
	}
}

// NextStreak decides the streak once due has passed. A rollover that
// happens within one period of the due date keeps the streak going and
// bumps it; anything later resets it.
func NextStreak(due, now time.Time, period time.Duration, streak int) int {
	if streak < 0 {
		streak = 0
	}
	if !now.After(due.Add(period)) {
		return streak + 1
	}
	return 0
}
