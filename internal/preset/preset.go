// Package preset holds the built-in starter quests new users pick from.
package preset

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dukerupert/questpet/internal/quest"
)

//go:embed presets.toml
var catalogTOML []byte

type Quest struct {
	Description string   `toml:"description" json:"description"`
	Type        string   `toml:"quest_type" json:"quest_type"`
	RepeatDays  []string `toml:"repeat_days" json:"repeat_days"`
	EndOfDay    bool     `toml:"end_of_day" json:"end_of_day"`
}

type catalog struct {
	Quests []Quest `toml:"quest"`
}

// Catalog decodes and returns the embedded starter quests.
func Catalog() ([]Quest, error) {
	return Parse(catalogTOML)
}

func Parse(data []byte) ([]Quest, error) {
	var c catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	return c.Quests, nil
}

// Select returns the presets whose description appears in selection. The
// client sends the clicked descriptions as one joined string.
func Select(presets []Quest, selection string) []Quest {
	var picked []Quest
	for _, p := range presets {
		if strings.Contains(selection, p.Description) {
			picked = append(picked, p)
		}
	}
	return picked
}

// Draft turns a preset into a quest draft for userID. Presets always repeat.
func (p Quest) Draft(userID int64) quest.Draft {
	return quest.Draft{
		Description: p.Description,
		UserID:      userID,
		Type:        p.Type,
		RepeatDays:  p.RepeatDays,
		EndOfDay:    p.EndOfDay,
		Repeat:      true,
	}
}
