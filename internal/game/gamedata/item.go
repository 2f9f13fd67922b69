package gamedata

import (
	"errors"
	"fmt"
	"time"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
)

// ItemCategory classifies an ItemDef.
type ItemCategory string

const (
	CategoryEquipment ItemCategory = "equipment"
	CategoryFood      ItemCategory = "food"
	CategoryDrink     ItemCategory = "drink"
	CategoryLoot      ItemCategory = "loot"
)

// Equipment slot names.
const (
	SlotMainHand = "main_hand"
	SlotTwoHand  = "two_hand"
	SlotOffHand  = "off_hand"
	SlotPouch    = "pouch"
	SlotCharm    = "charm"
)

var validSlots = map[string]bool{
	SlotMainHand: true, SlotTwoHand: true, SlotOffHand: true,
	"head": true, "body": true, "legs": true, "feet": true, "hands": true,
	"neck": true, "earrings": true, "ring": true, "back": true, "trinket": true,
	SlotPouch: true, SlotCharm: true,
}

// IsWeaponSlot reports whether slot determines the wearer's combat style.
func IsWeaponSlot(slot string) bool {
	return slot == SlotMainHand || slot == SlotTwoHand
}

// ItemDef is the static definition of an item, loaded from YAML.
type ItemDef struct {
	HRID     string       `yaml:"hrid"`
	Name     string       `yaml:"name"`
	Category ItemCategory `yaml:"category"`
	// SellPrice is the fallback market value when no price is supplied.
	SellPrice  float64        `yaml:"sell_price"`
	Equipment  *EquipmentDef  `yaml:"equipment,omitempty"`
	Consumable *ConsumableDef `yaml:"consumable,omitempty"`
}

// EquipmentDef holds the combat contribution of a wearable item.
type EquipmentDef struct {
	Slot       string `yaml:"slot"`
	Style      string `yaml:"style,omitempty"`
	DamageType string `yaml:"damage_type,omitempty"`
	// FocusSkill, when set, receives the 70% experience share instead of the
	// style's training skills.
	FocusSkill       string             `yaml:"focus_skill,omitempty"`
	Stats            map[string]float64 `yaml:"stats"`
	EnhancementBonus map[string]float64 `yaml:"enhancement_bonus"`
}

// ConsumableDef describes a food or drink.
type ConsumableDef struct {
	Cooldown         time.Duration     `yaml:"cooldown"`
	HitpointRestore  float64           `yaml:"hitpoint_restore"`
	ManapointRestore float64           `yaml:"manapoint_restore"`
	Buffs            []buff.Buff       `yaml:"buffs"`
	DefaultTriggers  []trigger.Trigger `yaml:"default_triggers"`
}

// HasteStat returns the stat that shortens this category's cooldown.
//
// Precondition: c is CategoryFood or CategoryDrink.
func (c ItemCategory) HasteStat() stats.Stat {
	if c == CategoryDrink {
		return stats.DrinkConcentration
	}
	return stats.FoodHaste
}

// IsConsumable reports whether c is food or drink.
func (c ItemCategory) IsConsumable() bool {
	return c == CategoryFood || c == CategoryDrink
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.HRID == "" {
		errs = append(errs, errors.New("hrid must not be empty"))
	}
	if d.SellPrice < 0 {
		errs = append(errs, errors.New("sell_price must be >= 0"))
	}
	switch d.Category {
	case CategoryEquipment:
		if d.Equipment == nil {
			errs = append(errs, errors.New("equipment block is required for category equipment"))
		} else {
			errs = append(errs, d.Equipment.validate()...)
		}
	case CategoryFood, CategoryDrink:
		if d.Consumable == nil {
			errs = append(errs, fmt.Errorf("consumable block is required for category %s", d.Category))
		} else if d.Consumable.Cooldown <= 0 {
			errs = append(errs, errors.New("consumable.cooldown must be > 0"))
		}
	case CategoryLoot:
	default:
		errs = append(errs, fmt.Errorf("category must be one of equipment, food, drink, loot; got %q", d.Category))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %w", d.HRID, errors.Join(errs...))
	}
	return nil
}

func (e *EquipmentDef) validate() []error {
	var errs []error
	if !validSlots[e.Slot] {
		errs = append(errs, fmt.Errorf("equipment.slot %q is not a known slot", e.Slot))
	}
	if e.Style != "" {
		if _, ok := stats.ParseStyle(e.Style); !ok {
			errs = append(errs, fmt.Errorf("equipment.style %q is not a known style", e.Style))
		}
	}
	if e.DamageType != "" {
		if _, ok := stats.ParseDamageType(e.DamageType); !ok {
			errs = append(errs, fmt.Errorf("equipment.damage_type %q is not a known damage type", e.DamageType))
		}
	}
	if e.FocusSkill != "" {
		if _, ok := stats.ParseSkill(e.FocusSkill); !ok {
			errs = append(errs, fmt.Errorf("equipment.focus_skill %q is not a known skill", e.FocusSkill))
		}
	}
	return errs
}
