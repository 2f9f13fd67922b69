package unit

import (
	"math"
	"time"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

// SlotKind discriminates what a Slot holds.
type SlotKind int

const (
	SlotFood SlotKind = iota
	SlotDrink
	SlotAbility
)

// String returns the slot kind's lowercase name.
func (k SlotKind) String() string {
	switch k {
	case SlotFood:
		return "food"
	case SlotDrink:
		return "drink"
	case SlotAbility:
		return "ability"
	default:
		return "unknown"
	}
}

// Slot is a consumable or ability instance: a definition reference, its
// triggers and the time it was last used.
//
// Invariant: Item is set iff Kind is SlotFood or SlotDrink; Ability is set
// iff Kind is SlotAbility.
type Slot struct {
	Kind     SlotKind
	Item     *gamedata.ItemDef
	Ability  *gamedata.AbilityDef
	Level    int
	Triggers []trigger.Trigger

	lastUsed time.Duration
	used     bool
}

// HRID returns the hrid of the slotted definition.
func (s *Slot) HRID() string {
	if s.Kind == SlotAbility {
		return s.Ability.HRID
	}
	return s.Item.HRID
}

// BaseCooldown returns the definition's unhastened cooldown.
func (s *Slot) BaseCooldown() time.Duration {
	if s.Kind == SlotAbility {
		return s.Ability.Cooldown
	}
	return s.Item.Consumable.Cooldown
}

// HasteStat returns the stat that shortens this slot's cooldown.
func (s *Slot) HasteStat() stats.Stat {
	switch s.Kind {
	case SlotDrink:
		return stats.DrinkConcentration
	case SlotAbility:
		return stats.AbilityHaste
	default:
		return stats.FoodHaste
	}
}

// LastUsed returns when the slot was last used; ok is false if never.
func (s *Slot) LastUsed() (at time.Duration, ok bool) { return s.lastUsed, s.used }

// EffectiveCooldown returns base/(1+haste). Haste below -0.9 is clamped.
//
// Postcondition: result >= 0.
func EffectiveCooldown(base time.Duration, haste float64) time.Duration {
	return time.Duration(float64(base) / (1 + math.Max(haste, -0.9)))
}

// ReadyAt returns the earliest time the slot comes off cooldown for u.
func (u *Unit) ReadyAt(s *Slot) time.Duration {
	if !s.used {
		return 0
	}
	return s.lastUsed + EffectiveCooldown(s.BaseCooldown(), u.Details().Table[s.HasteStat()])
}

// ShouldTrigger decides whether s should be used at now.
//
// Postcondition: false when u is dead or stunned, when the slot is cooling
// down, when an ability's mana cost exceeds MP, or when any trigger is
// unsatisfied or fails to evaluate; otherwise true.
func (u *Unit) ShouldTrigger(s *Slot, env trigger.Env, now time.Duration, onError func(trigger.Trigger, error)) bool {
	if u.dead || u.Stunned(now) {
		return false
	}
	if u.ReadyAt(s) > now {
		return false
	}
	if s.Kind == SlotAbility && s.Ability.ManaCost > u.MP() {
		return false
	}
	return trigger.AllSatisfied(s.Triggers, env, onError)
}

// MarkUsed records that s was used at now.
func (s *Slot) MarkUsed(now time.Duration) {
	s.lastUsed = now
	s.used = true
}

func (s *Slot) reset() {
	s.lastUsed = 0
	s.used = false
}
