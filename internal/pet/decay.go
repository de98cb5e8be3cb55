// Package pet models the virtual pet: time-based decay of happiness and
// hunger, feeding, and play.
package pet

import (
	"math"
	"time"

	"github.com/dukerupert/questpet/internal/model"
)

// Range maps an engagement signal onto a decay rate. Out runs high to low
// so that a larger signal decays the pet more slowly.
type Range struct {
	InMin, InMax   float64
	OutMin, OutMax float64
}

func (r Range) Map(v float64) float64 {
	return MapToRange(v, r.InMin, r.InMax, r.OutMin, r.OutMax)
}

// MapToRange clamps v to [inMin, inMax] and interpolates it linearly onto
// [outMin, outMax].
func MapToRange(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	v = max(inMin, min(inMax, v))
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// DecayModel turns elapsed hours into stat loss. Rates from the ranges
// are points per hour divided by Scale. The default Scale of 1 takes the
// rates literally; TunedScale reads them as milli-points per hour.
type DecayModel struct {
	Happiness Range
	Hunger    Range
	Scale     float64
}

const (
	DefaultScale = 1
	TunedScale   = 1000
)

func DefaultDecay() DecayModel {
	return DecayModel{
		Happiness: Range{InMin: 25, InMax: 500, OutMin: 1500, OutMax: 150},
		Hunger:    Range{InMin: 25, InMax: 500, OutMin: 3000, OutMax: 300},
		Scale:     DefaultScale,
	}
}

// Apply decays p for the time between lastUpdated and now and stamps
// UpdatedAt. A clock that runs backwards decays nothing.
func (m DecayModel) Apply(p *model.Pet, lastUpdated, now time.Time, signal int) (happiness, hunger int) {
	scale := m.Scale
	if scale <= 0 {
		scale = 1
	}
	hours := max(0, now.Sub(lastUpdated).Hours())

	happinessLoss := int(math.Floor(m.Happiness.Map(float64(signal)) * hours / scale))
	hungerLoss := int(math.Floor(m.Hunger.Map(float64(signal)) * hours / scale))

	p.Happiness = clampStat(p.Happiness - happinessLoss)
	p.Hunger = clampStat(p.Hunger - hungerLoss)
	p.UpdatedAt = now
	return p.Happiness, p.Hunger
}

// StreakSignal sums reward times streak over a user's quests.
func StreakSignal(quests []model.Quest) int {
	total := 0
	for _, q := range quests {
		total += q.Reward * max(0, q.Streak)
	}
	return total
}

// DecayStart picks the later of the account and pet timestamps as the
// start of the decay window.
func DecayStart(accountUpdated, petUpdated time.Time) time.Time {
	if accountUpdated.After(petUpdated) {
		return accountUpdated
	}
	return petUpdated
}

func clampStat(v int) int {
	return max(model.PetStatMin, min(model.PetStatMax, v))
}
