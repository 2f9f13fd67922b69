package gamedata

import (
	"errors"
	"fmt"
	"time"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

// TargetRule selects who an ability effect lands on.
type TargetRule string

const (
	TargetEnemy        TargetRule = "enemy"
	TargetAllEnemies   TargetRule = "all_enemies"
	TargetSelf         TargetRule = "self"
	TargetLowestHPAlly TargetRule = "lowest_hp_ally"
	TargetAllAllies    TargetRule = "all_allies"
)

// EffectKind is the kind of an ability effect.
type EffectKind string

const (
	EffectDamage EffectKind = "damage"
	EffectHeal   EffectKind = "heal"
	EffectBuff   EffectKind = "buff"
	EffectStun   EffectKind = "stun"
)

// AbilityEffect is one effect of an ability. Amounts grow linearly with the
// ability level: value = base + perLevel*(level-1).
type AbilityEffect struct {
	Kind   EffectKind `yaml:"kind"`
	Target TargetRule `yaml:"target"`
	// DamageType overrides the caster's damage type for damage effects.
	DamageType string `yaml:"damage_type,omitempty"`
	// Flat and Ratio: damage = Flat + Ratio*autoAttackDamage;
	// heal = (Flat + Ratio*maxMagicDamage) * (1+healingAmplify).
	Flat          float64       `yaml:"flat"`
	Ratio         float64       `yaml:"ratio"`
	FlatPerLevel  float64       `yaml:"flat_per_level"`
	RatioPerLevel float64       `yaml:"ratio_per_level"`
	Buffs         []buff.Buff   `yaml:"buffs"`
	StunChance    float64       `yaml:"stun_chance"`
	StunDuration  time.Duration `yaml:"stun_duration"`
}

// Scaled returns the effect's flat and ratio values at level.
//
// Postcondition: level <= 1 returns the base values.
func (e AbilityEffect) Scaled(level int) (flat, ratio float64) {
	n := float64(level - 1)
	if n < 0 {
		n = 0
	}
	return e.Flat + e.FlatPerLevel*n, e.Ratio + e.RatioPerLevel*n
}

// AbilityDef is the static definition of an active skill.
type AbilityDef struct {
	HRID     string        `yaml:"hrid"`
	Name     string        `yaml:"name"`
	ManaCost float64       `yaml:"mana_cost"`
	Cooldown time.Duration `yaml:"cooldown"`
	// RequiredIntelligence gates use by the caster's intelligence level.
	RequiredIntelligence float64           `yaml:"required_intelligence"`
	Effects              []AbilityEffect   `yaml:"effects"`
	DefaultTriggers      []trigger.Trigger `yaml:"default_triggers"`
}

// HasDamage reports whether any effect deals damage. Such abilities replace
// the caster's auto-attack for the window in which they are used.
func (d *AbilityDef) HasDamage() bool {
	for _, e := range d.Effects {
		if e.Kind == EffectDamage {
			return true
		}
	}
	return false
}

// Validate checks that the AbilityDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (d *AbilityDef) Validate() error {
	var errs []error
	if d.HRID == "" {
		errs = append(errs, errors.New("hrid must not be empty"))
	}
	if d.ManaCost < 0 {
		errs = append(errs, errors.New("mana_cost must be >= 0"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown must be >= 0"))
	}
	if len(d.Effects) == 0 {
		errs = append(errs, errors.New("at least one effect is required"))
	}
	for i, e := range d.Effects {
		switch e.Kind {
		case EffectDamage, EffectHeal, EffectBuff, EffectStun:
		default:
			errs = append(errs, fmt.Errorf("effects[%d].kind %q is not a known effect", i, e.Kind))
		}
		switch e.Target {
		case TargetEnemy, TargetAllEnemies, TargetSelf, TargetLowestHPAlly, TargetAllAllies:
		default:
			errs = append(errs, fmt.Errorf("effects[%d].target %q is not a known target rule", i, e.Target))
		}
		if e.StunChance < 0 || e.StunChance > 1 {
			errs = append(errs, fmt.Errorf("effects[%d].stun_chance must be in [0, 1]", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("ability %q validation failed: %w", d.HRID, errors.Join(errs...))
	}
	return nil
}
