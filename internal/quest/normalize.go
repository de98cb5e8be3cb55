package quest

import (
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/recurrence"
)

// Normalize folds a requested kind and day selection into its canonical
// form. Rules apply in order, first match wins.
func Normalize(kind model.QuestType, days []int, today int) (model.QuestType, []int) {
	days = recurrence.Normalize(days)
	switch {
	case kind == model.QuestSpecific && len(days) == 7:
		return model.QuestDaily, days
	case kind == model.QuestSpecific && len(days) == 0:
		return model.QuestNone, days
	case kind == model.QuestSpecific && len(days) == 1:
		return model.QuestWeekly, days
	case kind == model.QuestWeekly && len(days) == 0:
		return model.QuestWeekly, []int{today}
	}
	return kind, days
}

// RewardFor returns the points a completed quest of the given kind is worth.
func RewardFor(kind model.QuestType) int {
	switch kind {
	case model.QuestNone:
		return 1
	case model.QuestDaily:
		return 6
	case model.QuestSpecific:
		return 9
	case model.QuestWeekly:
		return 12
	default:
		return 0
	}
}

// RewardKind names the pet food a completion earns.
type RewardKind string

const (
	RewardNothing     RewardKind = ""
	RewardFood        RewardKind = "food"
	RewardSpecialFood RewardKind = "special"
)

func RewardKindFor(kind model.QuestType) RewardKind {
	switch kind {
	case model.QuestDaily:
		return RewardFood
	case model.QuestWeekly:
		return RewardSpecialFood
	default:
		return RewardNothing
	}
}
