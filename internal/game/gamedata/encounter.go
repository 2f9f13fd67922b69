package gamedata

import (
	"errors"
	"fmt"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
)

// EncounterKind selects how an encounter spawns monsters.
type EncounterKind string

const (
	// EncounterZone spawns weighted groups of monsters from a pool.
	EncounterZone EncounterKind = "zone"
	// EncounterDungeon spawns a fixed sequence of waves.
	EncounterDungeon EncounterKind = "dungeon"
)

// SpawnEntry is one weighted monster in a zone's spawn pool.
type SpawnEntry struct {
	Monster string  `yaml:"monster"`
	Weight  float64 `yaml:"weight"`
}

// BossSpawn replaces every Every-th zone spawn with a fixed group.
type BossSpawn struct {
	Every    int      `yaml:"every"`
	Monsters []string `yaml:"monsters"`
}

// Wave is one stage of a dungeon.
type Wave struct {
	Monsters []string `yaml:"monsters"`
}

// EncounterDef is the static definition of a zone or dungeon. A monster hrid
// may also be used directly as a target; it is treated as a single-monster
// zone.
type EncounterDef struct {
	HRID string        `yaml:"hrid"`
	Name string        `yaml:"name"`
	Kind EncounterKind `yaml:"kind"`
	// GroupSize is the number of monsters in each zone spawn.
	GroupSize int          `yaml:"group_size"`
	Spawns    []SpawnEntry `yaml:"spawns"`
	Boss      *BossSpawn   `yaml:"boss,omitempty"`
	Waves     []Wave       `yaml:"waves"`
	// PlayerBuffs and MonsterBuffs are permanent for the whole run.
	PlayerBuffs  []buff.Buff `yaml:"player_buffs"`
	MonsterBuffs []buff.Buff `yaml:"monster_buffs"`
}

// MonsterRefs returns every monster hrid the encounter can spawn, in
// declaration order, without duplicates.
func (d *EncounterDef) MonsterRefs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(h string) {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, s := range d.Spawns {
		add(s.Monster)
	}
	if d.Boss != nil {
		for _, m := range d.Boss.Monsters {
			add(m)
		}
	}
	for _, w := range d.Waves {
		for _, m := range w.Monsters {
			add(m)
		}
	}
	return out
}

// Validate checks that the EncounterDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (d *EncounterDef) Validate() error {
	var errs []error
	if d.HRID == "" {
		errs = append(errs, errors.New("hrid must not be empty"))
	}
	switch d.Kind {
	case EncounterZone:
		if len(d.Spawns) == 0 {
			errs = append(errs, errors.New("zone requires at least one spawn"))
		}
		if d.GroupSize < 1 {
			errs = append(errs, fmt.Errorf("group_size must be >= 1, got %d", d.GroupSize))
		}
		for i, s := range d.Spawns {
			if s.Monster == "" || s.Weight <= 0 {
				errs = append(errs, fmt.Errorf("spawns[%d] requires a monster and a positive weight", i))
			}
		}
		if d.Boss != nil && (d.Boss.Every < 1 || len(d.Boss.Monsters) == 0) {
			errs = append(errs, errors.New("boss requires every >= 1 and at least one monster"))
		}
	case EncounterDungeon:
		if len(d.Waves) == 0 {
			errs = append(errs, errors.New("dungeon requires at least one wave"))
		}
		for i, w := range d.Waves {
			if len(w.Monsters) == 0 {
				errs = append(errs, fmt.Errorf("waves[%d] must not be empty", i))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("kind must be zone or dungeon, got %q", d.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("encounter %q validation failed: %w", d.HRID, errors.Join(errs...))
	}
	return nil
}
