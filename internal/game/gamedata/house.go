package gamedata

import (
	"errors"
	"fmt"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
)

// LevelBuff is a house-room bonus that scales with the room's level.
type LevelBuff struct {
	Type          string  `yaml:"type"`
	FlatPerLevel  float64 `yaml:"flat_per_level"`
	RatioPerLevel float64 `yaml:"ratio_per_level"`
}

// HouseRoomDef is the static definition of a house room.
type HouseRoomDef struct {
	HRID  string      `yaml:"hrid"`
	Name  string      `yaml:"name"`
	Buffs []LevelBuff `yaml:"buffs"`
}

// BuffsAt returns the permanent buffs granted by the room at level.
//
// Postcondition: empty for level <= 0.
func (d *HouseRoomDef) BuffsAt(level int) []buff.Buff {
	if level <= 0 {
		return nil
	}
	out := make([]buff.Buff, 0, len(d.Buffs))
	for _, lb := range d.Buffs {
		out = append(out, buff.Buff{
			Source: d.HRID,
			Type:   lb.Type,
			Flat:   lb.FlatPerLevel * float64(level),
			Ratio:  lb.RatioPerLevel * float64(level),
		})
	}
	return out
}

// Validate checks that the HouseRoomDef satisfies its invariants.
func (d *HouseRoomDef) Validate() error {
	if d.HRID == "" {
		return errors.New("house room: hrid must not be empty")
	}
	for i, b := range d.Buffs {
		if b.Type == "" {
			return fmt.Errorf("house room %q: buffs[%d].type must not be empty", d.HRID, i)
		}
	}
	return nil
}

// AchievementTierDef grants permanent buffs once every listed achievement is
// unlocked.
type AchievementTierDef struct {
	HRID         string      `yaml:"hrid"`
	Name         string      `yaml:"name"`
	Achievements []string    `yaml:"achievements"`
	Buffs        []buff.Buff `yaml:"buffs"`
}

// Complete reports whether every achievement of the tier is in unlocked.
func (d *AchievementTierDef) Complete(unlocked map[string]bool) bool {
	for _, a := range d.Achievements {
		if !unlocked[a] {
			return false
		}
	}
	return len(d.Achievements) > 0
}

// Validate checks that the AchievementTierDef satisfies its invariants.
func (d *AchievementTierDef) Validate() error {
	if d.HRID == "" {
		return errors.New("achievement tier: hrid must not be empty")
	}
	if len(d.Achievements) == 0 {
		return fmt.Errorf("achievement tier %q: at least one achievement is required", d.HRID)
	}
	return nil
}
