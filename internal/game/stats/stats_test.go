package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
)

func levels(stamina, intelligence, attack, melee, defense, ranged, magic float64) stats.Levels {
	var l stats.Levels
	l[stats.Stamina] = stamina
	l[stats.Intelligence] = intelligence
	l[stats.Attack] = attack
	l[stats.Melee] = melee
	l[stats.Defense] = defense
	l[stats.Ranged] = ranged
	l[stats.Magic] = magic
	return l
}

func TestParseStat_RoundTripsEveryName(t *testing.T) {
	for s := stats.Stat(0); s < stats.NumStats; s++ {
		got, ok := stats.ParseStat(s.String())
		require.True(t, ok, "stat %d", s)
		assert.Equal(t, s, got)
	}
	_, ok := stats.ParseStat("nonsense")
	assert.False(t, ok)
}

func TestFromMap_UnknownNamesContributeZero(t *testing.T) {
	table, unknown := stats.FromMap(map[string]float64{
		"stabAccuracy": 0.1,
		"zzz":          5,
		"aaa":          3,
	})
	assert.InDelta(t, 0.1, table.Get(stats.StabAccuracy), 1e-12)
	assert.Equal(t, []string{"aaa", "zzz"}, unknown)
}

func TestDerive_Pools(t *testing.T) {
	var table stats.Table
	table.Add(stats.MaxHitpoints, 50)
	table.Add(stats.MaxManapoints, 25)
	d := stats.Derive(levels(20, 10, 1, 1, 1, 1, 1), table, stats.StyleSmash, stats.Physical, 0)
	assert.Equal(t, 10*(10+20)+50, d.MaxHitpoints)
	assert.Equal(t, 10*(10+10)+25, d.MaxManapoints)
}

func TestDerive_RatingsTruncate(t *testing.T) {
	var table stats.Table
	table.Add(stats.SmashAccuracy, 0.15)
	table.Add(stats.SmashDamage, 0.33)
	d := stats.Derive(levels(1, 1, 5, 7, 3, 1, 1), table, stats.StyleSmash, stats.Physical, 0)
	assert.Equal(t, 17, d.Accuracy[stats.StyleSmash])  // 15 * 1.15 = 17.25
	assert.Equal(t, 22, d.MaxDamage[stats.StyleSmash]) // 17 * 1.33 = 22.61
	assert.Equal(t, 13, d.Evasion[stats.StyleSmash])
}

func TestDerive_DebuffScalesOffenseOnly(t *testing.T) {
	var table stats.Table
	base := stats.Derive(levels(1, 1, 90, 90, 90, 1, 1), table, stats.StyleStab, stats.Physical, 0)
	debuffed := stats.Derive(levels(1, 1, 90, 90, 90, 1, 1), table, stats.StyleStab, stats.Physical, -0.5)
	assert.Equal(t, base.Accuracy[stats.StyleStab]/2, debuffed.Accuracy[stats.StyleStab])
	assert.Equal(t, base.MaxDamage[stats.StyleStab]/2, debuffed.MaxDamage[stats.StyleStab])
	assert.Equal(t, base.Evasion[stats.StyleStab], debuffed.Evasion[stats.StyleStab])
}

func TestDerive_AttackInterval(t *testing.T) {
	var table stats.Table
	d := stats.Derive(stats.Levels{}, table, stats.StyleSmash, stats.Physical, 0)
	assert.Equal(t, stats.DefaultAttackInterval, d.AttackInterval)

	table.Add(stats.AttackInterval, 4)
	table.Add(stats.AttackSpeed, 1)
	d = stats.Derive(stats.Levels{}, table, stats.StyleSmash, stats.Physical, 0)
	assert.Equal(t, 2*time.Second, d.AttackInterval)
}

func TestMitigation(t *testing.T) {
	assert.InDelta(t, 1.0, stats.Mitigation(0), 1e-12)
	assert.InDelta(t, 0.5, stats.Mitigation(100), 1e-12)
	assert.InDelta(t, 1.5, stats.Mitigation(-50), 1e-12)
}

func TestCombatLevel(t *testing.T) {
	l := levels(10, 10, 10, 50, 10, 1, 1)
	// max=50: 0.1*(10+10+10+10+50) + 25 = 34
	assert.InDelta(t, 34.0, stats.CombatLevel(l), 1e-9)
}

func TestLevelGapDebuff_Scenarios(t *testing.T) {
	assert.InDelta(t, -0.2571, stats.LevelGapDebuff(70, 90), 1e-4)
	assert.Equal(t, -0.9, stats.LevelGapDebuff(30, 150))
	assert.Equal(t, 0.0, stats.LevelGapDebuff(100, 120))
	assert.Equal(t, 0.0, stats.LevelGapDebuff(90, 90))
}

func TestLevelGapDebuff_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.Float64Range(1, 200).Draw(rt, "level")
		partyMax := rapid.Float64Range(level, 400).Draw(rt, "party_max")
		d := stats.LevelGapDebuff(level, partyMax)
		assert.GreaterOrEqual(rt, d, -0.9)
		assert.LessOrEqual(rt, d, 0.0)
		if partyMax/level <= 1.2 {
			assert.Equal(rt, 0.0, d)
		}
	})
}

func TestPartyDebuffs(t *testing.T) {
	got := stats.PartyDebuffs([]float64{90, 70})
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, -0.2571, got[1], 1e-4)
}

func TestEnhancementMultiplier_Clamps(t *testing.T) {
	table := stats.DefaultEnhancementMultipliers
	assert.Equal(t, 0.0, stats.EnhancementMultiplier(table, -3))
	assert.Equal(t, table[20], stats.EnhancementMultiplier(table, 25))
	assert.Equal(t, 2.0, stats.EnhancementMultiplier(table, 1))
	assert.Equal(t, 0.0, stats.EnhancementMultiplier(nil, 5))
}

func TestStyle_TrainingSkills_AlwaysFive(t *testing.T) {
	for s := stats.Style(0); s < stats.NumStyles; s++ {
		assert.Len(t, s.TrainingSkills(), 5, "style %s", s)
	}
	assert.Contains(t, stats.StyleSmash.TrainingSkills(), stats.Melee)
	assert.Contains(t, stats.StyleRanged.TrainingSkills(), stats.Ranged)
	assert.Contains(t, stats.StyleMagic.TrainingSkills(), stats.Magic)
}

func TestSkill_TextRoundTrip(t *testing.T) {
	for s := stats.Skill(0); s < stats.NumSkills; s++ {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got stats.Skill
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	var bad stats.Skill
	assert.Error(t, bad.UnmarshalText([]byte("cooking")))
}

func TestParseBuffType(t *testing.T) {
	got, ok := stats.ParseBuffType("attackSpeed")
	require.True(t, ok)
	assert.False(t, got.IsSkill)
	assert.Equal(t, stats.AttackSpeed, got.Stat)

	got, ok = stats.ParseBuffType("meleeLevel")
	require.True(t, ok)
	assert.True(t, got.IsSkill)
	assert.Equal(t, stats.Melee, got.Skill)

	_, ok = stats.ParseBuffType("cookingLevel")
	assert.False(t, ok)
}
