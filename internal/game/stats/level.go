package stats

import "math"

// MaxCombatSkill returns max(attack, defense, melee, ranged, magic).
func MaxCombatSkill(l Levels) float64 {
	return math.Max(l[Attack], math.Max(l[Defense], math.Max(l[Melee], math.Max(l[Ranged], l[Magic]))))
}

// CombatLevel returns 0.1*(stamina+intelligence+attack+defense+maxCombatSkill) + 0.5*maxCombatSkill.
func CombatLevel(l Levels) float64 {
	m := MaxCombatSkill(l)
	return 0.1*(l[Stamina]+l[Intelligence]+l[Attack]+l[Defense]+m) + 0.5*m
}

// LevelGapThreshold is the party-max to player combat level ratio at or below
// which no debuff applies.
const LevelGapThreshold = 1.2

// MaxLevelGapDebuff caps the magnitude of the level-gap debuff.
const MaxLevelGapDebuff = 0.9

// LevelGapDebuff returns debuffOnLevelGap for a player at combatLevel in a
// party whose strongest member is at partyMax.
//
// Precondition: combatLevel > 0.
// Postcondition: result is 0 when partyMax/combatLevel <= 1.2, otherwise
// -min(0.9, 3*(ratio-1.2)); result is never below -0.9.
func LevelGapDebuff(combatLevel, partyMax float64) float64 {
	if combatLevel <= 0 {
		return 0
	}
	ratio := partyMax / combatLevel
	if ratio <= LevelGapThreshold {
		return 0
	}
	return -math.Min(MaxLevelGapDebuff, 3*(ratio-LevelGapThreshold))
}

// PartyDebuffs computes the level-gap debuff for every member of a party from
// their combat levels, in input order.
func PartyDebuffs(levels []float64) []float64 {
	partyMax := 0.0
	for _, l := range levels {
		partyMax = math.Max(partyMax, l)
	}
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = LevelGapDebuff(l, partyMax)
	}
	return out
}
