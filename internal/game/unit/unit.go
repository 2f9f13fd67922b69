// Package unit implements the runtime state of a combatant: resource pools,
// buffs, cooldowns and consumable/ability gating.
package unit

import (
	"fmt"
	"math"
	"time"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/character"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
)

// Kind distinguishes players from monsters.
type Kind int

const (
	KindPlayer Kind = iota
	KindMonster
)

// String returns "player" or "monster".
func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "monster"
}

// MonsterTierLevelBonus is added to every monster skill level per difficulty tier.
const MonsterTierLevelBonus = 20

// Unit is one combatant in a simulation.
//
// Invariant: 0 <= HP() <= MaxHP() and 0 <= MP() <= MaxMP().
// A Unit is owned by a single simulation and is not safe for concurrent use.
type Unit struct {
	ID   string
	Kind Kind
	Name string
	// HRID is the monster definition hrid; empty for players.
	HRID string

	Levels     stats.Levels
	Base       stats.Table
	Style      stats.Style
	DamageType stats.DamageType

	// Debuff is debuffOnLevelGap, fixed once per run. Always 0 for monsters.
	Debuff       float64
	CombatLevel  float64
	PrimarySkill stats.Skill
	FocusSkill   stats.Skill
	HasFocus     bool
	// Experience is the monster's reward per kill.
	Experience float64

	Food      []*Slot
	Drinks    []*Slot
	Abilities []*Slot

	buffs          *buff.Set
	details        stats.Details
	detailsVersion uint64
	detailsValid   bool

	hp, mp    float64
	dead      bool
	stunUntil time.Duration
	// Epoch changes on every death and respawn so stale scheduled events can be dropped.
	Epoch int
}

// NewPlayer creates a player unit from a resolved loadout, with full pools and
// the loadout's permanent buffs applied.
//
// Precondition: l must be non-nil.
func NewPlayer(l *character.Loadout, debuff float64) *Unit {
	u := &Unit{
		ID:           l.ID,
		Kind:         KindPlayer,
		Name:         l.Name,
		Levels:       l.Levels,
		Base:         l.Stats,
		Style:        l.Style,
		DamageType:   l.DamageType,
		Debuff:       debuff,
		CombatLevel:  l.CombatLevel,
		PrimarySkill: l.PrimarySkill,
		FocusSkill:   l.FocusSkill,
		HasFocus:     l.HasFocus,
		buffs:        buff.NewSet(),
	}
	for _, c := range l.Food {
		u.Food = append(u.Food, &Slot{Kind: SlotFood, Item: c.Def, Triggers: c.Triggers})
	}
	for _, c := range l.Drinks {
		u.Drinks = append(u.Drinks, &Slot{Kind: SlotDrink, Item: c.Def, Triggers: c.Triggers})
	}
	for _, a := range l.Abilities {
		u.Abilities = append(u.Abilities, &Slot{Kind: SlotAbility, Ability: a.Def, Level: a.Level, Triggers: a.Triggers})
	}
	for _, b := range l.Buffs {
		u.buffs.Add(b)
	}
	u.fillPools()
	return u
}

// NewMonster creates a monster unit at difficulty tier. Abilities that do not
// resolve in catalog are skipped and returned in unknown.
//
// Precondition: def must be non-nil and tier >= 0.
func NewMonster(id string, def *gamedata.MonsterDef, tier int, catalog *gamedata.Catalog) (u *Unit, unknown []string) {
	levels, badSkills := def.SkillLevels()
	unknown = append(unknown, badSkills...)
	for s := range levels {
		levels[s] += float64(MonsterTierLevelBonus * tier)
	}
	table, badStats := stats.FromMap(def.Stats)
	unknown = append(unknown, badStats...)
	style, _ := stats.ParseStyle(def.Style)
	dt, _ := stats.ParseDamageType(def.DamageType)

	u = &Unit{
		ID:          id,
		Kind:        KindMonster,
		Name:        def.Name,
		HRID:        def.HRID,
		Levels:      levels,
		Base:        table,
		Style:       style,
		DamageType:  dt,
		CombatLevel: stats.CombatLevel(levels),
		Experience:  def.Experience + def.ExperiencePerTier*float64(tier),
		buffs:       buff.NewSet(),
	}
	for _, ma := range def.Abilities {
		ad, ok := catalog.Ability(ma.Ability)
		if !ok {
			unknown = append(unknown, ma.Ability)
			continue
		}
		level := ma.Level
		if level < 1 {
			level = 1
		}
		triggers := ma.Triggers
		if triggers == nil {
			triggers = ad.DefaultTriggers
		}
		u.Abilities = append(u.Abilities, &Slot{Kind: SlotAbility, Ability: ad, Level: level, Triggers: triggers})
	}
	u.fillPools()
	return u, unknown
}

// String identifies the unit in logs.
func (u *Unit) String() string { return fmt.Sprintf("%s(%s)", u.Kind, u.ID) }

// IsPlayer reports whether u is a player.
func (u *Unit) IsPlayer() bool { return u.Kind == KindPlayer }

// Details returns the derived combat details, recomputing them when the buff
// set has changed since the last call.
func (u *Unit) Details() stats.Details {
	if !u.detailsValid || u.detailsVersion != u.buffs.Version() {
		u.recompute()
	}
	return u.details
}

func (u *Unit) recompute() {
	table := u.Base
	levels := u.Levels
	totals := u.buffs.Totals()
	for _, typ := range buff.SortedTypes(totals) {
		target, ok := stats.ParseBuffType(typ)
		if !ok {
			continue
		}
		m := totals[typ]
		if target.IsSkill {
			levels[target.Skill] = m.Apply(levels[target.Skill])
		} else {
			table[target.Stat] = m.Apply(table[target.Stat])
		}
	}
	u.details = stats.Derive(levels, table, u.Style, u.DamageType, u.Debuff)
	u.detailsVersion = u.buffs.Version()
	u.detailsValid = true
	u.hp = math.Min(u.hp, float64(u.details.MaxHitpoints))
	u.mp = math.Min(u.mp, float64(u.details.MaxManapoints))
}

func (u *Unit) fillPools() {
	u.recompute()
	u.hp = float64(u.details.MaxHitpoints)
	u.mp = float64(u.details.MaxManapoints)
}

// Refresh expires buffs at now.
//
// Postcondition: returns true iff the active buff set changed.
func (u *Unit) Refresh(now time.Duration) bool {
	return u.buffs.Expire(now)
}

// AddBuff applies b starting at now.
func (u *Unit) AddBuff(b buff.Buff, now time.Duration) {
	b.Start = now
	u.buffs.Add(b)
}

// Buffs exposes the unit's buff set.
func (u *Unit) Buffs() *buff.Set { return u.buffs }

// UnitID implements trigger.Subject.
func (u *Unit) UnitID() string { return u.ID }

// Alive reports whether u is alive.
func (u *Unit) Alive() bool { return !u.dead }

// HP returns current hitpoints.
func (u *Unit) HP() float64 {
	u.Details()
	return u.hp
}

// MP returns current manapoints.
func (u *Unit) MP() float64 {
	u.Details()
	return u.mp
}

// MaxHP returns maximum hitpoints.
func (u *Unit) MaxHP() float64 { return float64(u.Details().MaxHitpoints) }

// MaxMP returns maximum manapoints.
func (u *Unit) MaxMP() float64 { return float64(u.Details().MaxManapoints) }

// HasBuff reports whether any buff from source is active.
func (u *Unit) HasBuff(source string) bool { return u.buffs.Has(source) }

// Stunned reports whether u cannot act at now.
func (u *Unit) Stunned(now time.Duration) bool { return now < u.stunUntil }

// StunnedUntil returns the end of the current stun.
func (u *Unit) StunnedUntil() time.Duration { return u.stunUntil }

// Stun prevents u from acting for d, reduced by tenacity. A shorter stun
// never cuts an existing one.
//
// Postcondition: returns the applied stun length.
func (u *Unit) Stun(now, d time.Duration) time.Duration {
	tenacity := math.Min(math.Max(u.Details().Table[stats.Tenacity], 0), 1)
	d = time.Duration(float64(d) * (1 - tenacity))
	if now+d > u.stunUntil {
		u.stunUntil = now + d
	}
	return d
}

// CooldownRemaining implements trigger.Subject.
func (u *Unit) CooldownRemaining(hrid string, now time.Duration) (time.Duration, bool) {
	for _, s := range u.Slots() {
		if s.HRID() == hrid {
			rem := u.ReadyAt(s) - now
			if rem < 0 {
				rem = 0
			}
			return rem, true
		}
	}
	return 0, false
}

// Slots returns food, drink then ability slots in slot order.
func (u *Unit) Slots() []*Slot {
	out := make([]*Slot, 0, len(u.Food)+len(u.Drinks)+len(u.Abilities))
	out = append(out, u.Food...)
	out = append(out, u.Drinks...)
	return append(out, u.Abilities...)
}

// Heal adds amount to HP, clamped to the maximum.
//
// Postcondition: returns the HP actually gained.
func (u *Unit) Heal(amount float64) float64 {
	if u.dead || amount <= 0 {
		return 0
	}
	gained := math.Min(amount, u.MaxHP()-u.hp)
	u.hp += gained
	return gained
}

// RestoreMana adds amount to MP, clamped to the maximum.
//
// Postcondition: returns the MP actually gained.
func (u *Unit) RestoreMana(amount float64) float64 {
	if u.dead || amount <= 0 {
		return 0
	}
	gained := math.Min(amount, u.MaxMP()-u.mp)
	u.mp += gained
	return gained
}

// SpendMana removes cost from MP.
//
// Postcondition: returns false and leaves MP untouched if cost exceeds MP.
func (u *Unit) SpendMana(cost float64) bool {
	if cost > u.mp {
		return false
	}
	u.mp -= cost
	return true
}

// TakeDamage removes amount from HP.
//
// Postcondition: returns the HP actually lost and whether u died from it.
func (u *Unit) TakeDamage(amount float64) (dealt float64, died bool) {
	if u.dead || amount <= 0 {
		return 0, false
	}
	dealt = math.Min(amount, u.hp)
	u.hp -= dealt
	if u.hp <= 0 {
		u.hp = 0
		u.dead = true
		u.Epoch++
		return dealt, true
	}
	return dealt, false
}

// Respawn brings a dead unit back with full pools, ready cooldowns, no stun
// and only its permanent buffs.
func (u *Unit) Respawn() {
	u.buffs.ClearTemporary()
	for _, s := range u.Slots() {
		s.reset()
	}
	u.dead = false
	u.stunUntil = 0
	u.Epoch++
	u.fillPools()
}
