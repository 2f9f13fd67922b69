// Package character defines the player configuration consumed by the
// simulator and its resolution into a static Loadout.
package character

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

// EquippedItem is one occupied equipment slot.
type EquippedItem struct {
	Item        string `yaml:"item"`
	Enhancement int    `yaml:"enhancement"`
}

// ConsumableSlot configures one food or drink slot.
//
// A nil Triggers uses the item's default triggers; an explicit empty list
// means "use whenever off cooldown".
type ConsumableSlot struct {
	Item     string            `yaml:"item"`
	Triggers []trigger.Trigger `yaml:"triggers"`
}

// AbilitySlot configures one ability slot. Triggers follow the same rule as
// ConsumableSlot.
type AbilitySlot struct {
	Ability  string            `yaml:"ability"`
	Level    int               `yaml:"level"`
	Triggers []trigger.Trigger `yaml:"triggers"`
}

// PlayerConfig is everything the editing layer supplies for one player.
type PlayerConfig struct {
	ID     string             `yaml:"id"`
	Name   string             `yaml:"name"`
	Levels map[string]float64 `yaml:"levels"`
	// Equipment maps slot name to the item worn there.
	Equipment map[string]EquippedItem `yaml:"equipment"`
	Food      []ConsumableSlot        `yaml:"food"`
	Drinks    []ConsumableSlot        `yaml:"drinks"`
	Abilities []AbilitySlot           `yaml:"abilities"`
	// HouseRooms maps house room hrid to its level.
	HouseRooms   map[string]int `yaml:"house_rooms"`
	Achievements []string       `yaml:"achievements"`
	// PrimaryTraining names the skill receiving the 30% experience share.
	// Empty selects the equipped weapon's style skill.
	PrimaryTraining string `yaml:"primary_training"`
}

// Party is the on-disk party file.
type Party struct {
	Players []PlayerConfig `yaml:"players"`
}

// LoadParty reads a party file.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns the configured players in file order, or an error.
func LoadParty(path string) ([]PlayerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading party file %q: %w", path, err)
	}
	var p Party
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing party file %q: %w", path, err)
	}
	return p.Players, nil
}
