package pet

import (
	"fmt"
	"strings"

	"github.com/dukerupert/questpet/internal/model"
)

type FoodKind string

const (
	Food        FoodKind = "food"
	SpecialFood FoodKind = "special"
)

const (
	foodHunger        = 10
	specialFoodHunger = 20
)

// ParseFood defaults to regular food when s is empty.
func ParseFood(s string) (FoodKind, error) {
	switch f := FoodKind(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Food, nil
	case Food, SpecialFood:
		return f, nil
	}
	return "", fmt.Errorf("unknown food type %q", s)
}

// Feed gives p one portion of f if any is left. It reports whether the
// pet ate; an empty pantry is not an error.
func Feed(p *model.Pet, f FoodKind) bool {
	switch f {
	case Food:
		if p.FoodQuantity <= 0 {
			return false
		}
		p.FoodQuantity--
		p.Hunger = clampStat(p.Hunger + foodHunger)
	case SpecialFood:
		if p.SpecialFoodQuantity <= 0 {
			return false
		}
		p.SpecialFoodQuantity--
		p.Hunger = clampStat(p.Hunger + specialFoodHunger)
	default:
		return false
	}
	return true
}

func Play(p *model.Pet, amount int) int {
	p.Happiness = clampStat(p.Happiness + amount)
	return p.Happiness
}

// Stock adds quantity of f to the pantry.
func Stock(p *model.Pet, f FoodKind, quantity int) {
	switch f {
	case Food:
		p.FoodQuantity = ClampQuantity(p.FoodQuantity + quantity)
	case SpecialFood:
		p.SpecialFoodQuantity = ClampQuantity(p.SpecialFoodQuantity + quantity)
	}
}

func ClampQuantity(n int) int {
	return max(0, n)
}

// New returns a freshly adopted pet at full stats.
func New(userID int64, name, kind string) *model.Pet {
	return &model.Pet{
		UserID:    userID,
		Name:      name,
		Kind:      kind,
		Happiness: model.PetStatMax,
		Hunger:    model.PetStatMax,
	}
}
