package stats

import (
	"fmt"
	"strings"
)

// Skill is one of the seven combat skills.
type Skill int

const (
	Stamina Skill = iota
	Intelligence
	Attack
	Melee
	Defense
	Ranged
	Magic

	// NumSkills is the number of combat skills.
	NumSkills
)

var skillNames = [NumSkills]string{
	Stamina:      "stamina",
	Intelligence: "intelligence",
	Attack:       "attack",
	Melee:        "melee",
	Defense:      "defense",
	Ranged:       "ranged",
	Magic:        "magic",
}

// experienceStat maps each skill to its per-skill experience bonus stat.
var experienceStat = [NumSkills]Stat{
	Stamina:      StaminaExperience,
	Intelligence: IntelligenceExperience,
	Attack:       AttackExperience,
	Melee:        MeleeExperience,
	Defense:      DefenseExperience,
	Ranged:       RangedExperience,
	Magic:        MagicExperience,
}

// String returns the skill's lowercase name.
func (s Skill) String() string {
	if s < 0 || s >= NumSkills {
		return fmt.Sprintf("skill(%d)", int(s))
	}
	return skillNames[s]
}

// ExperienceStat returns the stat holding this skill's experience bonus.
func (s Skill) ExperienceStat() Stat { return experienceStat[s] }

// ParseSkill resolves a lowercase skill name.
func ParseSkill(name string) (Skill, bool) {
	for i, n := range skillNames {
		if n == name {
			return Skill(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler so skills can key YAML and JSON maps.
func (s Skill) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Skill) UnmarshalText(b []byte) error {
	v, ok := ParseSkill(string(b))
	if !ok {
		return fmt.Errorf("unknown skill %q", string(b))
	}
	*s = v
	return nil
}

// Levels holds one level per combat skill.
type Levels [NumSkills]float64

// Get returns the level of s.
func (l Levels) Get(s Skill) float64 { return l[s] }

// Style is the combat style of an attack.
type Style int

const (
	StyleSmash Style = iota
	StyleStab
	StyleSlash
	StyleRanged
	StyleMagic

	// NumStyles is the number of combat styles.
	NumStyles
)

var styleNames = [NumStyles]string{
	StyleSmash:  "smash",
	StyleStab:   "stab",
	StyleSlash:  "slash",
	StyleRanged: "ranged",
	StyleMagic:  "magic",
}

// String returns the style's lowercase name.
func (s Style) String() string {
	if s < 0 || s >= NumStyles {
		return fmt.Sprintf("style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle resolves a lowercase style name.
func ParseStyle(name string) (Style, bool) {
	for i, n := range styleNames {
		if n == name {
			return Style(i), true
		}
	}
	return 0, false
}

// IsMelee reports whether s is one of the three melee styles.
func (s Style) IsMelee() bool {
	return s == StyleSmash || s == StyleStab || s == StyleSlash
}

// TrainingSkills returns the skills that share the 70% experience portion for
// this style when no focus skill is equipped.
//
// Postcondition: len(result) == 5.
func (s Style) TrainingSkills() []Skill {
	switch s {
	case StyleRanged:
		return []Skill{Attack, Defense, Intelligence, Ranged, Stamina}
	case StyleMagic:
		return []Skill{Attack, Defense, Intelligence, Magic, Stamina}
	default:
		return []Skill{Attack, Defense, Intelligence, Melee, Stamina}
	}
}

// PrimarySkill returns the skill that receives the 30% primary-training share
// when the player has not configured one explicitly.
func (s Style) PrimarySkill() Skill {
	switch s {
	case StyleRanged:
		return Ranged
	case StyleMagic:
		return Magic
	default:
		return Melee
	}
}

// DamageType is the element of a hit.
type DamageType int

const (
	Physical DamageType = iota
	Water
	Nature
	Fire

	// NumDamageTypes is the number of damage types.
	NumDamageTypes
)

var damageTypeNames = [NumDamageTypes]string{
	Physical: "physical",
	Water:    "water",
	Nature:   "nature",
	Fire:     "fire",
}

// String returns the damage type's lowercase name.
func (d DamageType) String() string {
	if d < 0 || d >= NumDamageTypes {
		return fmt.Sprintf("damage_type(%d)", int(d))
	}
	return damageTypeNames[d]
}

// ParseDamageType resolves a lowercase damage type name.
func ParseDamageType(name string) (DamageType, bool) {
	for i, n := range damageTypeNames {
		if n == name {
			return DamageType(i), true
		}
	}
	return 0, false
}

var (
	accuracyStat = [NumStyles]Stat{StyleSmash: SmashAccuracy, StyleStab: StabAccuracy, StyleSlash: SlashAccuracy, StyleRanged: RangedAccuracy, StyleMagic: MagicAccuracy}
	damageStat   = [NumStyles]Stat{StyleSmash: SmashDamage, StyleStab: StabDamage, StyleSlash: SlashDamage, StyleRanged: RangedDamage, StyleMagic: MagicDamage}
	evasionStat  = [NumStyles]Stat{StyleSmash: SmashEvasion, StyleStab: StabEvasion, StyleSlash: SlashEvasion, StyleRanged: RangedEvasion, StyleMagic: MagicEvasion}

	amplifyStat     = [NumDamageTypes]Stat{Physical: PhysicalAmplify, Water: WaterAmplify, Nature: NatureAmplify, Fire: FireAmplify}
	resistanceStat  = [NumDamageTypes]Stat{Physical: Armor, Water: WaterResistance, Nature: NatureResistance, Fire: FireResistance}
	penetrationStat = [NumDamageTypes]Stat{Physical: ArmorPenetration, Water: WaterPenetration, Nature: NaturePenetration, Fire: FirePenetration}
)

// AmplifyStat returns the amplify stat for d.
func (d DamageType) AmplifyStat() Stat { return amplifyStat[d] }

// PenetrationStat returns the penetration stat for d.
func (d DamageType) PenetrationStat() Stat { return penetrationStat[d] }

// BuffTarget is what a buff Type resolves to: either a stat or a skill level.
type BuffTarget struct {
	Stat    Stat
	Skill   Skill
	IsSkill bool
}

// levelSuffix marks buff types that raise a skill level, e.g. "attackLevel".
const levelSuffix = "Level"

// ParseBuffType resolves a buff Type such as "attackSpeed" or "meleeLevel".
//
// Postcondition: ok is false iff name is neither a stat nor "<skill>Level".
func ParseBuffType(name string) (BuffTarget, bool) {
	if s, ok := ParseStat(name); ok {
		return BuffTarget{Stat: s}, true
	}
	if strings.HasSuffix(name, levelSuffix) {
		if sk, ok := ParseSkill(strings.TrimSuffix(name, levelSuffix)); ok {
			return BuffTarget{Skill: sk, IsSkill: true}, true
		}
	}
	return BuffTarget{}, false
}
