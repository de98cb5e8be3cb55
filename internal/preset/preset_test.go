package preset

import (
	"testing"
	"time"

	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/quest"
)

func TestCatalogDecodes(t *testing.T) {
	presets, err := Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(presets) < 5 {
		t.Fatalf("expected at least 5 presets, got %d", len(presets))
	}
	if presets[0].Description != "Drink 4 glasses of water" {
		t.Errorf("first preset = %q", presets[0].Description)
	}
}

func TestCatalogPresetsAreValidQuests(t *testing.T) {
	presets, err := Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, p := range presets {
		q, err := quest.New(p.Draft(1), now, time.UTC)
		if err != nil {
			t.Errorf("preset %q: %v", p.Description, err)
			continue
		}
		if !q.Repeat {
			t.Errorf("preset %q should repeat", p.Description)
		}
	}
}

func TestAllDayPresetsNormalizeToDaily(t *testing.T) {
	p := Quest{Description: "x", Type: "specific", RepeatDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}}
	q, err := quest.New(p.Draft(1), time.Now(), time.UTC)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if q.Type != model.QuestDaily {
		t.Errorf("type = %q, want daily", q.Type)
	}
}

func TestSelect(t *testing.T) {
	presets := []Quest{{Description: "Clean desk"}, {Description: "Do 10 pushups"}, {Description: "Call a friend"}}
	picked := Select(presets, `["Clean desk","Call a friend"]`)
	if len(picked) != 2 || picked[0].Description != "Clean desk" || picked[1].Description != "Call a friend" {
		t.Errorf("picked = %+v", picked)
	}
	if got := Select(presets, ""); len(got) != 0 {
		t.Errorf("empty selection picked %d", len(got))
	}
}

func TestParseRejectsBadTOML(t *testing.T) {
	if _, err := Parse([]byte("[[quest]\n")); err == nil {
		t.Error("expected decode error")
	}
}
