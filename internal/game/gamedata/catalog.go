// Package gamedata holds the static game definitions (items, abilities,
// monsters, encounters, house rooms, achievement tiers) that simulations read.
// A Catalog is built once by the caller and shared read-only by every run.
package gamedata

import (
	"fmt"
	"sort"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
)

// Catalog holds all loaded definitions indexed by hrid.
//
// Invariant: a Catalog is not mutated after loading; concurrent reads are safe.
type Catalog struct {
	items        map[string]*ItemDef
	abilities    map[string]*AbilityDef
	monsters     map[string]*MonsterDef
	encounters   map[string]*EncounterDef
	houseRooms   map[string]*HouseRoomDef
	achievements []*AchievementTierDef

	enhancement []float64
}

// NewCatalog returns an empty Catalog using the default enhancement table.
//
// Postcondition: all internal maps are initialised.
func NewCatalog() *Catalog {
	return &Catalog{
		items:       make(map[string]*ItemDef),
		abilities:   make(map[string]*AbilityDef),
		monsters:    make(map[string]*MonsterDef),
		encounters:  make(map[string]*EncounterDef),
		houseRooms:  make(map[string]*HouseRoomDef),
		enhancement: stats.DefaultEnhancementMultipliers,
	}
}

// RegisterItem adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: Item(d.HRID) returns (d, true); returns error if d.HRID already registered.
func (c *Catalog) RegisterItem(d *ItemDef) error {
	if _, exists := c.items[d.HRID]; exists {
		return fmt.Errorf("gamedata: item %q already registered", d.HRID)
	}
	c.items[d.HRID] = d
	return nil
}

// RegisterAbility adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: returns error if d.HRID already registered.
func (c *Catalog) RegisterAbility(d *AbilityDef) error {
	if _, exists := c.abilities[d.HRID]; exists {
		return fmt.Errorf("gamedata: ability %q already registered", d.HRID)
	}
	c.abilities[d.HRID] = d
	return nil
}

// RegisterMonster adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: returns error if d.HRID already registered.
func (c *Catalog) RegisterMonster(d *MonsterDef) error {
	if _, exists := c.monsters[d.HRID]; exists {
		return fmt.Errorf("gamedata: monster %q already registered", d.HRID)
	}
	c.monsters[d.HRID] = d
	return nil
}

// RegisterEncounter adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: returns error if d.HRID already registered.
func (c *Catalog) RegisterEncounter(d *EncounterDef) error {
	if _, exists := c.encounters[d.HRID]; exists {
		return fmt.Errorf("gamedata: encounter %q already registered", d.HRID)
	}
	c.encounters[d.HRID] = d
	return nil
}

// RegisterHouseRoom adds d to the catalog.
//
// Precondition: d must not be nil.
// Postcondition: returns error if d.HRID already registered.
func (c *Catalog) RegisterHouseRoom(d *HouseRoomDef) error {
	if _, exists := c.houseRooms[d.HRID]; exists {
		return fmt.Errorf("gamedata: house room %q already registered", d.HRID)
	}
	c.houseRooms[d.HRID] = d
	return nil
}

// RegisterAchievementTier appends d; tiers keep registration order.
//
// Precondition: d must not be nil.
// Postcondition: returns error if d.HRID already registered.
func (c *Catalog) RegisterAchievementTier(d *AchievementTierDef) error {
	for _, t := range c.achievements {
		if t.HRID == d.HRID {
			return fmt.Errorf("gamedata: achievement tier %q already registered", d.HRID)
		}
	}
	c.achievements = append(c.achievements, d)
	return nil
}

// SetEnhancementTable replaces the enhancement multiplier table.
//
// Precondition: len(table) > 0.
func (c *Catalog) SetEnhancementTable(table []float64) {
	c.enhancement = table
}

// Item returns the ItemDef for hrid and whether it was found.
func (c *Catalog) Item(hrid string) (*ItemDef, bool) {
	d, ok := c.items[hrid]
	return d, ok
}

// Ability returns the AbilityDef for hrid and whether it was found.
func (c *Catalog) Ability(hrid string) (*AbilityDef, bool) {
	d, ok := c.abilities[hrid]
	return d, ok
}

// Monster returns the MonsterDef for hrid and whether it was found.
func (c *Catalog) Monster(hrid string) (*MonsterDef, bool) {
	d, ok := c.monsters[hrid]
	return d, ok
}

// Encounter returns the EncounterDef for hrid and whether it was found.
func (c *Catalog) Encounter(hrid string) (*EncounterDef, bool) {
	d, ok := c.encounters[hrid]
	return d, ok
}

// HouseRoom returns the HouseRoomDef for hrid and whether it was found.
func (c *Catalog) HouseRoom(hrid string) (*HouseRoomDef, bool) {
	d, ok := c.houseRooms[hrid]
	return d, ok
}

// AchievementTiers returns the tiers in catalog order.
func (c *Catalog) AchievementTiers() []*AchievementTierDef {
	out := make([]*AchievementTierDef, len(c.achievements))
	copy(out, c.achievements)
	return out
}

// EnhancementTable returns the enhancement multiplier table.
func (c *Catalog) EnhancementTable() []float64 { return c.enhancement }

// EncounterIDs returns every encounter hrid, sorted.
func (c *Catalog) EncounterIDs() []string {
	out := make([]string, 0, len(c.encounters))
	for k := range c.encounters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Counts summarises the catalog for logging.
func (c *Catalog) Counts() map[string]int {
	return map[string]int{
		"items":             len(c.items),
		"abilities":         len(c.abilities),
		"monsters":          len(c.monsters),
		"encounters":        len(c.encounters),
		"house_rooms":       len(c.houseRooms),
		"achievement_tiers": len(c.achievements),
	}
}

// CheckReferences verifies that every monster and ability referenced by an
// encounter or monster exists.
//
// Postcondition: returns nil iff every reference resolves.
func (c *Catalog) CheckReferences() error {
	var missing []string
	for _, id := range c.EncounterIDs() {
		for _, m := range c.encounters[id].MonsterRefs() {
			if _, ok := c.monsters[m]; !ok {
				missing = append(missing, fmt.Sprintf("encounter %s -> monster %s", id, m))
			}
		}
	}
	for id, m := range c.monsters {
		for _, a := range m.Abilities {
			if _, ok := c.abilities[a.Ability]; !ok {
				missing = append(missing, fmt.Sprintf("monster %s -> ability %s", id, a.Ability))
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("gamedata: unresolved references: %v", missing)
	}
	return nil
}

func sortStrings(s []string) { sort.Strings(s) }
