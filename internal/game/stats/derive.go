package stats

import (
	"math"
	"time"
)

// DefaultAttackInterval is used when neither the weapon nor the unit defines one.
const DefaultAttackInterval = 3 * time.Second

// Details is the derived, integer-facing view of a unit's combat stats after
// levels, equipment and buffs have been applied.
type Details struct {
	// Table is the effective stat table the details were derived from.
	Table  Table
	Levels Levels

	Style      Style
	DamageType DamageType

	MaxHitpoints  int
	MaxManapoints int

	Accuracy  [NumStyles]int
	MaxDamage [NumStyles]int
	Evasion   [NumStyles]int

	// Resistance holds armor for Physical and the elemental resistances otherwise.
	Resistance [NumDamageTypes]float64

	AttackInterval time.Duration
}

// Derive computes combat details from effective levels and stats.
// debuff is the player's debuffOnLevelGap (0 for monsters); it scales the
// offensive ratings only.
//
// Precondition: debuff in [-0.9, 0].
// Postcondition: every integer-facing value is truncated toward zero.
func Derive(levels Levels, t Table, style Style, dt DamageType, debuff float64) Details {
	d := Details{
		Table:      t,
		Levels:     levels,
		Style:      style,
		DamageType: dt,
	}
	d.MaxHitpoints = trunc(10*(10+levels[Stamina]) + t[MaxHitpoints])
	d.MaxManapoints = trunc(10*(10+levels[Intelligence]) + t[MaxManapoints])

	offense := 1 + debuff
	for s := Style(0); s < NumStyles; s++ {
		accLevel, dmgLevel := offensiveLevels(levels, s)
		d.Accuracy[s] = trunc((10 + accLevel) * (1 + t[accuracyStat[s]]) * offense)
		d.MaxDamage[s] = trunc((10 + dmgLevel) * (1 + t[damageStat[s]]) * offense)
		d.Evasion[s] = trunc((10 + evasionLevel(levels, s)) * (1 + t[evasionStat[s]]))
	}

	d.Resistance[Physical] = 0.2*levels[Defense] + t[Armor]
	for dt := Water; dt < NumDamageTypes; dt++ {
		d.Resistance[dt] = 0.1*levels[Magic] + t[resistanceStat[dt]]
	}

	base := DefaultAttackInterval
	if t[AttackInterval] > 0 {
		base = time.Duration(t[AttackInterval] * float64(time.Second))
	}
	d.AttackInterval = time.Duration(float64(base) / (1 + math.Max(t[AttackSpeed], -0.9)))
	return d
}

func offensiveLevels(l Levels, s Style) (accuracy, damage float64) {
	switch s {
	case StyleRanged:
		return l[Ranged], l[Ranged]
	case StyleMagic:
		return l[Magic], l[Magic]
	default:
		return l[Attack], l[Melee]
	}
}

// evasionLevel returns the level backing evasion against style s. Magic
// evasion averages defense with ranged.
func evasionLevel(l Levels, s Style) float64 {
	if s == StyleMagic {
		return 0.75*l[Defense] + 0.25*l[Ranged]
	}
	return l[Defense]
}

// Mitigation returns the damage multiplier for a resistance value:
// 100/(100+r) for non-negative r and (100-r)/100 otherwise.
//
// Postcondition: result > 0.
func Mitigation(r float64) float64 {
	if r >= 0 {
		return 100 / (100 + r)
	}
	return (100 - r) / 100
}

func trunc(v float64) int {
	return int(math.Trunc(v))
}
