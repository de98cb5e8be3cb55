// Package quest owns the quest lifecycle: creation with type
// normalization, completion, and due-date rollover with streak
// accounting.
package quest

import (
	"strings"
	"time"

	"github.com/dukerupert/questpet/internal/apperr"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/recurrence"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Draft is the raw input for a new quest.
type Draft struct {
	Description string
	UserID      int64
	Type        string
	DueDate     string   // YYYY-MM-DD, optional
	DueTime     string   // HH:MM, optional
	RepeatDays  []string // day names or indices
	EndOfDay    bool
	Repeat      bool
}

// New validates d and builds an uncompleted quest. Dates are read in loc.
func New(d Draft, now time.Time, loc *time.Location) (*model.Quest, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return nil, apperr.Invalid("description", "is required")
	}
	if d.UserID <= 0 {
		return nil, apperr.Invalid("user_id", "is required")
	}
	kind, err := model.ParseQuestType(d.Type)
	if err != nil {
		return nil, apperr.Invalid("quest_type", err.Error())
	}
	days, err := recurrence.ParseDays(d.RepeatDays)
	if err != nil {
		return nil, apperr.Invalid("repeat_days", err.Error())
	}
	due, err := dueDate(d.DueDate, d.DueTime, now, loc)
	if err != nil {
		return nil, err
	}

	kind, days = Normalize(kind, days, recurrence.Index(now))

	return &model.Quest{
		UserID:      d.UserID,
		Description: desc,
		Type:        kind,
		RepeatDays:  days,
		Repeat:      d.Repeat,
		EndOfDay:    d.EndOfDay,
		DueDate:     due,
		Status:      model.StatusUncompleted,
		Reward:      RewardFor(kind),
		StartTime:   now,
	}, nil
}

func dueDate(date, clock string, now time.Time, loc *time.Location) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		// A time without a date is ignored, same as no due date at all.
		return now.Add(recurrence.Day), nil
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, apperr.Invalid("due_date", "want YYYY-MM-DD")
	}
	if clock == "" {
		return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc), nil
	}
	tod, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, apperr.Invalid("due_time", "want HH:MM")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

// Complete marks q completed at now and reports which pet food the caller
// should hand out. Completing a quest twice changes nothing and earns
// nothing. Inactive quests are terminal here too, which is stricter than
// a check on completed alone: a retired quest cannot earn food.
func Complete(q *model.Quest, now time.Time) (model.QuestStatus, RewardKind) {
	if q.Status == model.StatusCompleted || q.Status == model.StatusInactive {
		return q.Status, RewardNothing
	}
	q.Status = model.StatusCompleted
	end := now
	q.EndTime = &end
	return q.Status, RewardKindFor(q.Type)
}

// ResetDueDate rolls q over once its due date has passed and reports
// whether q changed. Calling it again before the new due date is a no-op.
// A quest that does not repeat still takes its streak and next due date,
// then goes inactive.
func ResetDueDate(q *model.Quest, now time.Time) bool {
	if q.Status == model.StatusInactive || !now.After(q.DueDate) {
		return false
	}
	changed := false
	if next, ok := recurrence.NextDue(q.Type, q.RepeatDays, now); ok {
		q.Streak = NextStreak(q.DueDate, now, PeriodFor(q.Type), q.Streak)
		q.DueDate = next
		q.Status = model.StatusUncompleted
		q.StartTime = now
		q.EndTime = nil
		changed = true
	}
	// One-off quests that repeat stay as they are once expired.
	if !q.Repeat {
		q.Status = model.StatusInactive
		changed = true
	}
	return changed
}
