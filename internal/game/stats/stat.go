// Package stats implements the combat stat model: the flattened stat table,
// skill levels, derived combat details, combat level and the level-gap debuff.
package stats

import (
	"fmt"
	"sort"
)

// Stat identifies one entry of the flattened combat-stat table.
type Stat int

const (
	StabAccuracy Stat = iota
	SlashAccuracy
	SmashAccuracy
	RangedAccuracy
	MagicAccuracy

	StabDamage
	SlashDamage
	SmashDamage
	RangedDamage
	MagicDamage

	StabEvasion
	SlashEvasion
	SmashEvasion
	RangedEvasion
	MagicEvasion

	PhysicalAmplify
	WaterAmplify
	NatureAmplify
	FireAmplify
	HealingAmplify

	Armor
	WaterResistance
	NatureResistance
	FireResistance

	ArmorPenetration
	WaterPenetration
	NaturePenetration
	FirePenetration

	PhysicalThorns
	ElementalThorns

	MaxHitpoints
	MaxManapoints
	HPRegen
	MPRegen

	AttackInterval
	AttackSpeed
	CastSpeed
	AbilityHaste
	FoodHaste
	DrinkConcentration

	CriticalRate
	CriticalDamage
	LifeSteal
	ManaLeech

	CombatExperience
	CombatDropRate
	CombatRareFind
	CombatDropQuantity

	StaminaExperience
	IntelligenceExperience
	AttackExperience
	MeleeExperience
	DefenseExperience
	RangedExperience
	MagicExperience

	Threat
	Tenacity
	AutoAttackDamage
	AbilityDamage
	DamageTaken

	FoodSlots
	DrinkSlots

	// NumStats is the number of stats in a Table.
	NumStats
)

var statNames = [NumStats]string{
	StabAccuracy:           "stabAccuracy",
	SlashAccuracy:          "slashAccuracy",
	SmashAccuracy:          "smashAccuracy",
	RangedAccuracy:         "rangedAccuracy",
	MagicAccuracy:          "magicAccuracy",
	StabDamage:             "stabDamage",
	SlashDamage:            "slashDamage",
	SmashDamage:            "smashDamage",
	RangedDamage:           "rangedDamage",
	MagicDamage:            "magicDamage",
	StabEvasion:            "stabEvasion",
	SlashEvasion:           "slashEvasion",
	SmashEvasion:           "smashEvasion",
	RangedEvasion:          "rangedEvasion",
	MagicEvasion:           "magicEvasion",
	PhysicalAmplify:        "physicalAmplify",
	WaterAmplify:           "waterAmplify",
	NatureAmplify:          "natureAmplify",
	FireAmplify:            "fireAmplify",
	HealingAmplify:         "healingAmplify",
	Armor:                  "armor",
	WaterResistance:        "waterResistance",
	NatureResistance:       "natureResistance",
	FireResistance:         "fireResistance",
	ArmorPenetration:       "armorPenetration",
	WaterPenetration:       "waterPenetration",
	NaturePenetration:      "naturePenetration",
	FirePenetration:        "firePenetration",
	PhysicalThorns:         "physicalThorns",
	ElementalThorns:        "elementalThorns",
	MaxHitpoints:           "maxHitpoints",
	MaxManapoints:          "maxManapoints",
	HPRegen:                "hpRegen",
	MPRegen:                "mpRegen",
	AttackInterval:         "attackInterval",
	AttackSpeed:            "attackSpeed",
	CastSpeed:              "castSpeed",
	AbilityHaste:           "abilityHaste",
	FoodHaste:              "foodHaste",
	DrinkConcentration:     "drinkConcentration",
	CriticalRate:           "criticalRate",
	CriticalDamage:         "criticalDamage",
	LifeSteal:              "lifeSteal",
	ManaLeech:              "manaLeech",
	CombatExperience:       "combatExperience",
	CombatDropRate:         "combatDropRate",
	CombatRareFind:         "combatRareFind",
	CombatDropQuantity:     "combatDropQuantity",
	StaminaExperience:      "staminaExperience",
	IntelligenceExperience: "intelligenceExperience",
	AttackExperience:       "attackExperience",
	MeleeExperience:        "meleeExperience",
	DefenseExperience:      "defenseExperience",
	RangedExperience:       "rangedExperience",
	MagicExperience:        "magicExperience",
	Threat:                 "threat",
	Tenacity:               "tenacity",
	AutoAttackDamage:       "autoAttackDamage",
	AbilityDamage:          "abilityDamage",
	DamageTaken:            "damageTaken",
	FoodSlots:              "foodSlots",
	DrinkSlots:             "drinkSlots",
}

var statByName = func() map[string]Stat {
	m := make(map[string]Stat, NumStats)
	for i, n := range statNames {
		m[n] = Stat(i)
	}
	return m
}()

// String returns the stat's wire name, e.g. "stabAccuracy".
func (s Stat) String() string {
	if s < 0 || s >= NumStats {
		return fmt.Sprintf("stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat resolves a stat name.
//
// Postcondition: ok is false iff name is not a known stat.
func ParseStat(name string) (Stat, bool) {
	s, ok := statByName[name]
	return s, ok
}

// Table is the flattened combat-stat table. The zero value is all zeroes.
type Table [NumStats]float64

// Get returns the value of s.
func (t *Table) Get(s Stat) float64 { return t[s] }

// Add increments s by v.
func (t *Table) Add(s Stat, v float64) { t[s] += v }

// Merge adds every entry of o into t.
func (t *Table) Merge(o *Table) {
	for i := range t {
		t[i] += o[i]
	}
}

// FromMap converts a name-keyed map into a Table. Names that do not resolve
// contribute nothing and are returned, sorted, in unknown.
func FromMap(m map[string]float64) (Table, []string) {
	var t Table
	var unknown []string
	for name, v := range m {
		s, ok := ParseStat(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		t[s] += v
	}
	sort.Strings(unknown)
	return t, unknown
}
