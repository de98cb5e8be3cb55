package model

import (
	"fmt"
	"strings"
	"time"
)

// QuestType is the recurrence kind of a quest.
type QuestType string

const (
	QuestNone     QuestType = "none"
	QuestDaily    QuestType = "daily"
	QuestWeekly   QuestType = "weekly"
	QuestSpecific QuestType = "specific"
)

// ParseQuestType accepts the four known kinds, case-insensitively.
// An empty string is not a valid kind.
func ParseQuestType(s string) (QuestType, error) {
	switch t := QuestType(strings.ToLower(strings.TrimSpace(s))); t {
	case QuestNone, QuestDaily, QuestWeekly, QuestSpecific:
		return t, nil
	}
	return "", fmt.Errorf("unknown quest type %q", s)
}

// Recurring reports whether the kind ever produces another due date.
func (t QuestType) Recurring() bool {
	return t == QuestDaily || t == QuestWeekly || t == QuestSpecific
}

type QuestStatus string

const (
	StatusUncompleted QuestStatus = "uncompleted"
	StatusCompleted   QuestStatus = "completed"
	StatusInactive    QuestStatus = "inactive"
)

type Quest struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"assigned_to"`
	Description string      `json:"description"`
	Type        QuestType   `json:"quest_type"`
	RepeatDays  []int       `json:"repeat_days"`
	Repeat      bool        `json:"repeat"`
	EndOfDay    bool        `json:"end_of_day"`
	DueDate     time.Time   `json:"due_date"`
	Status      QuestStatus `json:"status"`
	Streak      int         `json:"streak"`
	Reward      int         `json:"reward"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     *time.Time  `json:"end_time"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
