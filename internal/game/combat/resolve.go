package combat

import (
	"math"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/dice"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
)

// Hit chance bounds.
const (
	MinHitChance = 0.05
	MaxHitChance = 0.95
)

// AutoAttack is the ability key under which auto-attacks are recorded.
const AutoAttack = "autoAttack"

// Thorns is the ability key under which reflected damage is recorded.
const Thorns = "thorns"

// HitChance returns accuracy/(accuracy+evasion) clamped to
// [MinHitChance, MaxHitChance]. Zero accuracy and evasion yield one half.
func HitChance(accuracy, evasion float64) float64 {
	if accuracy+evasion <= 0 {
		return 0.5
	}
	return math.Max(MinHitChance, math.Min(MaxHitChance, accuracy/(accuracy+evasion)))
}

// Strike describes one damaging action: an auto-attack or a damage effect.
type Strike struct {
	Style      stats.Style
	DamageType stats.DamageType
	// Flat and Ratio define the damage before multipliers as
	// Flat + Ratio*roll, where roll is the attacker's damage roll.
	Flat  float64
	Ratio float64
	// Bonus is autoAttackDamage or abilityDamage.
	Bonus float64
}

// AutoAttackStrike returns the strike for a plain auto-attack by a unit with details d.
func AutoAttackStrike(d stats.Details) Strike {
	return Strike{Style: d.Style, DamageType: d.DamageType, Ratio: 1, Bonus: d.Table[stats.AutoAttackDamage]}
}

// Outcome is the result of a strike. In expected-value mode the counters are
// fractional expectations; in stochastic mode they are 0 or 1.
type Outcome struct {
	Hits   float64
	Misses float64
	Crits  float64
	// Damage is the damage before the target's HP cap.
	Damage float64
}

// ResolveStrike resolves s from an attacker with details a against a
// defender with details d. A nil roller selects expected-value resolution.
//
// Postcondition: Hits+Misses == 1 and Damage >= 0.
func ResolveStrike(a, d stats.Details, s Strike, roller *dice.Roller) Outcome {
	p := HitChance(float64(a.Accuracy[s.Style]), float64(d.Evasion[s.Style]))
	maxDmg := float64(a.MaxDamage[s.Style])
	critRate := math.Max(0, math.Min(1, a.Table[stats.CriticalRate]))
	critMult := 1 + a.Table[stats.CriticalDamage]

	scale := (1 + a.Table[s.DamageType.AmplifyStat()]) * (1 + s.Bonus) * mitigation(a, d, s.DamageType)
	raw := func(roll float64) float64 {
		return math.Max(0, (s.Flat+s.Ratio*roll)*scale)
	}

	if roller == nil {
		avg := (1 + maxDmg) / 2
		expected := (1-critRate)*raw(avg) + critRate*raw(maxDmg)*critMult
		return Outcome{Hits: p, Misses: 1 - p, Crits: p * critRate, Damage: p * expected}
	}

	if !roller.Chance("hit", p) {
		return Outcome{Misses: 1}
	}
	if roller.Chance("crit", critRate) {
		return Outcome{Hits: 1, Crits: 1, Damage: raw(maxDmg) * critMult}
	}
	roll := maxDmg
	if maxDmg > 1 {
		roll = float64(roller.IntBetween("damage", 1, int(maxDmg)))
	}
	return Outcome{Hits: 1, Damage: raw(roll)}
}

// mitigation returns the defender-side multiplier: resistance reduced by the
// attacker's penetration, then damageTaken.
func mitigation(a, d stats.Details, dt stats.DamageType) float64 {
	r := d.Resistance[dt]
	if r > 0 {
		r *= 1 - math.Max(0, math.Min(1, a.Table[dt.PenetrationStat()]))
	}
	return stats.Mitigation(r) * math.Max(0, 1+d.Table[stats.DamageTaken])
}

// ThornsDamage returns the damage reflected onto an attacker that dealt dealt
// damage of type dt to a defender with details d.
func ThornsDamage(dealt float64, a, d stats.Details, dt stats.DamageType) float64 {
	rate := d.Table[stats.ElementalThorns]
	if dt == stats.Physical {
		rate = d.Table[stats.PhysicalThorns]
	}
	if rate <= 0 || dealt <= 0 {
		return 0
	}
	return dealt * rate * stats.Mitigation(a.Resistance[dt])
}
