package encounter

import (
	"math"
	"sort"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/dice"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
)

// DropRate returns the per-kill chance of a regular drop entry at tier:
// min(1, (1+0.1*tier) * (rate + ratePerTier*tier) * multiplier).
//
// Postcondition: result in [0, 1] and non-decreasing in tier for
// non-negative rates and multiplier.
func DropRate(e gamedata.DropEntry, tier int, multiplier float64) float64 {
	t := float64(tier)
	return clamp01((1 + 0.1*t) * (e.Rate + e.RatePerTier*t) * multiplier)
}

// RareDropRate returns rate * rareFindMultiplier, without tier scaling.
//
// Postcondition: result in [0, 1].
func RareDropRate(e gamedata.DropEntry, rareFindMultiplier float64) float64 {
	return clamp01(e.Rate * rareFindMultiplier)
}

// ExpectedCount returns
// deaths * rate * avgCount * (1+debuff) * (1+dropQuantity) / partySize.
//
// Precondition: partySize >= 1.
func ExpectedCount(deaths, rate, avgCount, debuff, dropQuantity float64, partySize int) float64 {
	return deaths * rate * avgCount * (1 + debuff) * (1 + dropQuantity) / float64(partySize)
}

// Bonuses are one player's drop-related stats.
type Bonuses struct {
	// DropRate is combatDropRate; the regular-table multiplier is 1+DropRate.
	DropRate float64
	// RareFind is combatRareFind; the rare-table multiplier is 1+RareFind.
	RareFind float64
	// Quantity is combatDropQuantity.
	Quantity float64
	// Debuff is the player's debuffOnLevelGap.
	Debuff float64
}

// ExpectedDrops computes one player's expected item counts from monster death
// counts. Monsters missing from catalog contribute nothing.
func ExpectedDrops(deaths map[string]int, tier int, b Bonuses, partySize int, catalog *gamedata.Catalog) map[string]float64 {
	out := make(map[string]float64)
	for _, hrid := range sortedKeys(deaths) {
		n := deaths[hrid]
		def, ok := catalog.Monster(hrid)
		if !ok || n <= 0 {
			continue
		}
		for _, e := range def.Drops {
			if e.MinTier > tier {
				continue
			}
			out[e.Item] += ExpectedCount(float64(n), DropRate(e, tier, 1+b.DropRate), e.AverageCount(), b.Debuff, b.Quantity, partySize)
		}
		for _, e := range def.RareDrops {
			if e.MinTier > tier {
				continue
			}
			out[e.Item] += ExpectedCount(float64(n), RareDropRate(e, 1+b.RareFind), e.AverageCount(), b.Debuff, b.Quantity, partySize)
		}
	}
	return out
}

// RollDrops is the stochastic counterpart of ExpectedDrops: every kill rolls
// each entry's chance and a whole item count. The party and bonus scaling is
// applied to the rolled totals.
func RollDrops(deaths map[string]int, tier int, b Bonuses, partySize int, catalog *gamedata.Catalog, roller *dice.Roller) map[string]float64 {
	out := make(map[string]float64)
	scale := (1 + b.Debuff) * (1 + b.Quantity) / float64(partySize)
	roll := func(e gamedata.DropEntry, rate float64) {
		if roller.Chance("drop "+e.Item, rate) {
			n := roller.IntBetween("count "+e.Item, int(math.Ceil(e.Min)), int(math.Floor(e.Max)))
			out[e.Item] += float64(n) * scale
		}
	}
	for _, hrid := range sortedKeys(deaths) {
		def, ok := catalog.Monster(hrid)
		if !ok {
			continue
		}
		for i := 0; i < deaths[hrid]; i++ {
			for _, e := range def.Drops {
				if e.MinTier <= tier {
					roll(e, DropRate(e, tier, 1+b.DropRate))
				}
			}
			for _, e := range def.RareDrops {
				if e.MinTier <= tier {
					roll(e, RareDropRate(e, 1+b.RareFind))
				}
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
