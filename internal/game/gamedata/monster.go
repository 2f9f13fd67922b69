package gamedata

import (
	"errors"
	"fmt"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

// DropEntry is one row of a monster's regular or rare drop table.
type DropEntry struct {
	Item string  `yaml:"item"`
	Rate float64 `yaml:"rate"`
	// RatePerTier is added to Rate once per difficulty tier. Ignored for rare drops.
	RatePerTier float64 `yaml:"rate_per_tier"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	// MinTier gates the entry to encounters at or above this difficulty tier.
	MinTier int `yaml:"min_tier"`
}

// AverageCount returns (Min+Max)/2.
func (e DropEntry) AverageCount() float64 { return (e.Min + e.Max) / 2 }

func (e DropEntry) validate(table string, i int) []error {
	var errs []error
	if e.Item == "" {
		errs = append(errs, fmt.Errorf("%s[%d].item must not be empty", table, i))
	}
	if e.Rate < 0 || e.Rate > 1 {
		errs = append(errs, fmt.Errorf("%s[%d].rate must be in [0, 1], got %g", table, i, e.Rate))
	}
	if e.Min < 0 || e.Min > e.Max {
		errs = append(errs, fmt.Errorf("%s[%d] requires 0 <= min <= max, got %g..%g", table, i, e.Min, e.Max))
	}
	if e.MinTier < 0 {
		errs = append(errs, fmt.Errorf("%s[%d].min_tier must be >= 0", table, i))
	}
	return errs
}

// MonsterAbility is an ability slot on a monster.
type MonsterAbility struct {
	Ability  string            `yaml:"ability"`
	Level    int               `yaml:"level"`
	Triggers []trigger.Trigger `yaml:"triggers"`
}

// MonsterDef is the static definition of a monster.
type MonsterDef struct {
	HRID       string             `yaml:"hrid"`
	Name       string             `yaml:"name"`
	Levels     map[string]float64 `yaml:"levels"`
	Stats      map[string]float64 `yaml:"stats"`
	Style      string             `yaml:"style"`
	DamageType string             `yaml:"damage_type"`
	Experience float64            `yaml:"experience"`
	// ExperiencePerTier is added to Experience once per difficulty tier.
	ExperiencePerTier float64          `yaml:"experience_per_tier"`
	Abilities         []MonsterAbility `yaml:"abilities"`
	Drops             []DropEntry      `yaml:"drops"`
	RareDrops         []DropEntry      `yaml:"rare_drops"`
}

// SkillLevels resolves Levels into stats.Levels. Unknown skill names are
// returned, sorted, in unknown.
func (d *MonsterDef) SkillLevels() (stats.Levels, []string) {
	return ResolveLevels(d.Levels)
}

// ResolveLevels converts a skill-name keyed map into stats.Levels. Names that
// do not resolve contribute nothing and are returned in unknown.
func ResolveLevels(m map[string]float64) (stats.Levels, []string) {
	var l stats.Levels
	var unknown []string
	for name, v := range m {
		s, ok := stats.ParseSkill(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		l[s] = v
	}
	sortStrings(unknown)
	return l, unknown
}

// Validate checks that the MonsterDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (d *MonsterDef) Validate() error {
	var errs []error
	if d.HRID == "" {
		errs = append(errs, errors.New("hrid must not be empty"))
	}
	if _, ok := stats.ParseStyle(d.Style); !ok {
		errs = append(errs, fmt.Errorf("style %q is not a known style", d.Style))
	}
	if _, ok := stats.ParseDamageType(d.DamageType); !ok {
		errs = append(errs, fmt.Errorf("damage_type %q is not a known damage type", d.DamageType))
	}
	if d.Experience < 0 {
		errs = append(errs, errors.New("experience must be >= 0"))
	}
	for i, e := range d.Drops {
		errs = append(errs, e.validate("drops", i)...)
	}
	for i, e := range d.RareDrops {
		errs = append(errs, e.validate("rare_drops", i)...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("monster %q validation failed: %w", d.HRID, errors.Join(errs...))
	}
	return nil
}
