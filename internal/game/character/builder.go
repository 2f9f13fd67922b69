package character

import (
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

const (
	// MaxConsumableSlots caps the food and drink slot counts.
	MaxConsumableSlots = 3
	// BaseHPRegen and BaseMPRegen are every player's regen fractions per tick.
	BaseHPRegen = 0.01
	BaseMPRegen = 0.01
)

// AbilitySlotUnlocks lists the intelligence level that unlocks each ability slot.
var AbilitySlotUnlocks = []float64{1, 10, 30, 60, 90}

// Consumable is a resolved food or drink slot.
type Consumable struct {
	Def      *gamedata.ItemDef
	Triggers []trigger.Trigger
}

// Ability is a resolved ability slot.
type Ability struct {
	Def      *gamedata.AbilityDef
	Level    int
	Triggers []trigger.Trigger
}

// Loadout is a player configuration resolved against the catalog: the static
// input from which a runtime unit is created.
type Loadout struct {
	ID     string
	Name   string
	Levels stats.Levels
	// Stats is the flattened equipment table including base regen.
	Stats      stats.Table
	Style      stats.Style
	DamageType stats.DamageType

	Food      []Consumable
	Drinks    []Consumable
	Abilities []Ability
	// Buffs are the permanent house-room then achievement-tier buffs.
	Buffs []buff.Buff

	PrimarySkill stats.Skill
	FocusSkill   stats.Skill
	HasFocus     bool
	CombatLevel  float64
}

// FoodSlotCount returns min(3, 1+floor(foodSlots)).
func FoodSlotCount(t stats.Table) int { return slotCount(t[stats.FoodSlots]) }

// DrinkSlotCount returns min(3, 1+floor(drinkSlots)).
func DrinkSlotCount(t stats.Table) int { return slotCount(t[stats.DrinkSlots]) }

func slotCount(v float64) int {
	n := 1 + int(math.Floor(v))
	if n > MaxConsumableSlots {
		n = MaxConsumableSlots
	}
	if n < 1 {
		n = 1
	}
	return n
}

// AbilitySlotCount returns how many ability slots intelligence unlocks.
func AbilitySlotCount(intelligence float64) int {
	n := 0
	for _, need := range AbilitySlotUnlocks {
		if intelligence >= need {
			n++
		}
	}
	return n
}

// Build resolves cfg against catalog.
//
// Unknown or mismatched references are logged at warn level and contribute
// nothing; they never fail the build.
//
// Precondition: catalog must be non-nil.
// Postcondition: Returns a Loadout, or an error when cfg has no id.
func Build(cfg PlayerConfig, catalog *gamedata.Catalog, logger *zap.Logger) (*Loadout, error) {
	if cfg.ID == "" {
		return nil, errors.New("player id must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("player", cfg.ID), zap.String("phase", "setup"))
	warn := func(msg, ref string) {
		log.Warn(msg, zap.String("ref", ref))
	}

	l := &Loadout{ID: cfg.ID, Name: cfg.Name, Style: stats.StyleSmash, DamageType: stats.Physical}
	if l.Name == "" {
		l.Name = cfg.ID
	}

	levels, unknown := gamedata.ResolveLevels(cfg.Levels)
	for _, name := range unknown {
		warn("unknown skill ignored", name)
	}
	for s := range levels {
		if levels[s] < 1 {
			levels[s] = 1
		}
	}
	l.Levels = levels

	resolveEquipment(l, cfg.Equipment, catalog, warn)
	l.Stats.Add(stats.HPRegen, BaseHPRegen)
	l.Stats.Add(stats.MPRegen, BaseMPRegen)

	l.Food = resolveConsumables(cfg.Food, gamedata.CategoryFood, FoodSlotCount(l.Stats), catalog, warn)
	l.Drinks = resolveConsumables(cfg.Drinks, gamedata.CategoryDrink, DrinkSlotCount(l.Stats), catalog, warn)
	l.Abilities = resolveAbilities(cfg.Abilities, levels[stats.Intelligence], catalog, warn)
	l.Buffs = resolvePermanentBuffs(cfg, catalog, warn)

	l.PrimarySkill = l.Style.PrimarySkill()
	if cfg.PrimaryTraining != "" {
		if s, ok := stats.ParseSkill(cfg.PrimaryTraining); ok {
			l.PrimarySkill = s
		} else {
			warn("unknown primary training skill ignored", cfg.PrimaryTraining)
		}
	}
	l.CombatLevel = stats.CombatLevel(l.Levels)
	return l, nil
}

func resolveEquipment(l *Loadout, equipment map[string]EquippedItem, catalog *gamedata.Catalog, warn func(string, string)) {
	slots := make([]string, 0, len(equipment))
	for slot := range equipment {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	table := catalog.EnhancementTable()
	for _, slot := range slots {
		eq := equipment[slot]
		def, ok := catalog.Item(eq.Item)
		if !ok {
			warn("unknown equipment ignored", eq.Item)
			continue
		}
		if def.Equipment == nil {
			warn("item is not equipment", eq.Item)
			continue
		}
		level := eq.Enhancement
		if level < 0 || level > stats.MaxEnhancementLevel {
			warn("enhancement level clamped", eq.Item)
		}
		base, unknownBase := stats.FromMap(def.Equipment.Stats)
		bonus, unknownBonus := stats.FromMap(def.Equipment.EnhancementBonus)
		for _, name := range append(unknownBase, unknownBonus...) {
			warn("unknown equipment stat ignored", name)
		}
		mult := stats.EnhancementMultiplier(table, level)
		for i := range base {
			l.Stats[i] += base[i] + mult*bonus[i]
		}

		if gamedata.IsWeaponSlot(def.Equipment.Slot) {
			if st, ok := stats.ParseStyle(def.Equipment.Style); ok {
				l.Style = st
			}
			if dt, ok := stats.ParseDamageType(def.Equipment.DamageType); ok {
				l.DamageType = dt
			}
		}
		if def.Equipment.FocusSkill != "" {
			if sk, ok := stats.ParseSkill(def.Equipment.FocusSkill); ok {
				l.FocusSkill, l.HasFocus = sk, true
			}
		}
	}
}

func resolveConsumables(slots []ConsumableSlot, category gamedata.ItemCategory, limit int, catalog *gamedata.Catalog, warn func(string, string)) []Consumable {
	var out []Consumable
	for _, s := range slots {
		if len(out) == limit {
			warn("consumable slot not unlocked, ignored", s.Item)
			continue
		}
		def, ok := catalog.Item(s.Item)
		if !ok {
			warn("unknown consumable ignored", s.Item)
			continue
		}
		if def.Category != category || def.Consumable == nil {
			warn("consumable in wrong slot ignored", s.Item)
			continue
		}
		triggers := s.Triggers
		if triggers == nil {
			triggers = def.Consumable.DefaultTriggers
		}
		out = append(out, Consumable{Def: def, Triggers: triggers})
	}
	return out
}

func resolveAbilities(slots []AbilitySlot, intelligence float64, catalog *gamedata.Catalog, warn func(string, string)) []Ability {
	limit := AbilitySlotCount(intelligence)
	var out []Ability
	for _, s := range slots {
		if len(out) == limit {
			warn("ability slot not unlocked, ignored", s.Ability)
			continue
		}
		def, ok := catalog.Ability(s.Ability)
		if !ok {
			warn("unknown ability ignored", s.Ability)
			continue
		}
		if intelligence < def.RequiredIntelligence {
			warn("ability intelligence requirement not met, ignored", s.Ability)
			continue
		}
		level := s.Level
		if level < 1 {
			level = 1
		}
		triggers := s.Triggers
		if triggers == nil {
			triggers = def.DefaultTriggers
		}
		out = append(out, Ability{Def: def, Level: level, Triggers: triggers})
	}
	return out
}

// resolvePermanentBuffs applies house rooms in hrid order, then achievement
// tiers in catalog order.
func resolvePermanentBuffs(cfg PlayerConfig, catalog *gamedata.Catalog, warn func(string, string)) []buff.Buff {
	var out []buff.Buff
	keep := func(b buff.Buff) {
		if _, ok := stats.ParseBuffType(b.Type); !ok {
			warn("unknown buff type ignored", b.Type)
			return
		}
		b.Start, b.Duration = 0, 0
		out = append(out, b)
	}

	rooms := make([]string, 0, len(cfg.HouseRooms))
	for hrid := range cfg.HouseRooms {
		rooms = append(rooms, hrid)
	}
	sort.Strings(rooms)
	for _, hrid := range rooms {
		def, ok := catalog.HouseRoom(hrid)
		if !ok {
			warn("unknown house room ignored", hrid)
			continue
		}
		for _, b := range def.BuffsAt(cfg.HouseRooms[hrid]) {
			keep(b)
		}
	}

	unlocked := make(map[string]bool, len(cfg.Achievements))
	for _, a := range cfg.Achievements {
		unlocked[a] = true
	}
	for _, tier := range catalog.AchievementTiers() {
		if !tier.Complete(unlocked) {
			continue
		}
		for _, b := range tier.Buffs {
			if b.Source == "" {
				b.Source = tier.HRID
			}
			keep(b)
		}
	}
	return out
}
