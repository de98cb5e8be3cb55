package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/questpet/internal/model"
)

type QuestStore struct {
	db DBTX
}

func NewQuestStore(db DBTX) *QuestStore {
	return &QuestStore{db: db}
}

func scanQuest(s scanner) (*model.Quest, error) {
	var q model.Quest
	var days string
	var endTime sql.NullTime

	err := s.Scan(
		&q.ID, &q.UserID, &q.Description, &q.Type, &days, &q.Repeat, &q.EndOfDay,
		&q.DueDate, &q.Status, &q.Streak, &q.Reward, &q.StartTime, &endTime,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.RepeatDays, err = decodeDays(days)
	if err != nil {
		return nil, fmt.Errorf("quest %d: %w", q.ID, err)
	}
	if endTime.Valid {
		q.EndTime = &endTime.Time
	}
	return &q, nil
}

const questCols = `id, user_id, description, quest_type, repeat_days, repeat, end_of_day, due_date, status, streak, reward, start_time, end_time, created_at, updated_at`

// repeat_days is stored as comma-separated weekday indices, e.g. "0,2".
func encodeDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) ([]int, error) {
	days := []int{}
	if s == "" {
		return days, nil
	}
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("decode repeat days %q: %w", s, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func (s *QuestStore) Create(q *model.Quest) (*model.Quest, error) {
	result, err := s.db.Exec(
		`INSERT INTO quests (user_id, description, quest_type, repeat_days, repeat, end_of_day, due_date, status, streak, reward, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.UserID, q.Description, string(q.Type), encodeDays(q.RepeatDays), boolToInt(q.Repeat), boolToInt(q.EndOfDay),
		q.DueDate.UTC(), string(q.Status), q.Streak, q.Reward, q.StartTime.UTC(), nullTime(q.EndTime),
	)
	if err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *QuestStore) GetByID(id int64) (*model.Quest, error) {
	q, err := scanQuest(s.db.QueryRow(`SELECT `+questCols+` FROM quests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return q, nil
}

func (s *QuestStore) ListByUser(userID int64) ([]model.Quest, error) {
	return s.list(`SELECT `+questCols+` FROM quests WHERE user_id = ? ORDER BY due_date ASC, id ASC`, userID)
}

func (s *QuestStore) ListByUserAndStatus(userID int64, status model.QuestStatus) ([]model.Quest, error) {
	return s.list(
		`SELECT `+questCols+` FROM quests WHERE user_id = ? AND status = ? ORDER BY end_time DESC, id ASC`,
		userID, string(status),
	)
}

func (s *QuestStore) list(query string, args ...any) ([]model.Quest, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []model.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

// Save writes back the fields the lifecycle mutates. UserID, type and
// reward are fixed at creation and never rewritten.
func (s *QuestStore) Save(q *model.Quest) error {
	_, err := s.db.Exec(
		`UPDATE quests SET description = ?, repeat_days = ?, due_date = ?, status = ?, streak = ?, start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		q.Description, encodeDays(q.RepeatDays), q.DueDate.UTC(), string(q.Status), q.Streak,
		q.StartTime.UTC(), nullTime(q.EndTime), q.ID,
	)
	if err != nil {
		return fmt.Errorf("save quest: %w", err)
	}
	return nil
}

func (s *QuestStore) UpdateDescription(id int64, description string) error {
	_, err := s.db.Exec(
		`UPDATE quests SET description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		description, id,
	)
	if err != nil {
		return fmt.Errorf("update quest description: %w", err)
	}
	return nil
}

func (s *QuestStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}
