// Package encounter defines the encounter configuration, the spawn plan that
// sequences monster groups, and drop computation.
package encounter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
)

// Sources of the global toggle buffs.
const (
	SourceCommunityExperience   = "/community_buffs/experience"
	SourceCommunityDropQuantity = "/community_buffs/drop_quantity"
	SourcePass                  = "/buffs/pass"
	// PassExperience is the combatExperience granted by the pass toggle.
	PassExperience = 0.1
)

// Config is the encounter half of a simulation request.
type Config struct {
	// Target is an encounter hrid or a monster hrid.
	Target string  `yaml:"target"`
	Tier   int     `yaml:"tier"`
	Hours  float64 `yaml:"hours"`
	// CommunityExperience and CommunityDropQuantity are flat bonuses added to
	// every player's combatExperience and combatDropQuantity.
	CommunityExperience   float64 `yaml:"community_experience"`
	CommunityDropQuantity float64 `yaml:"community_drop_quantity"`
	Pass                  bool    `yaml:"pass"`
	// Prices holds market values used only to value drops and consumables.
	Prices map[string]float64 `yaml:"prices"`
}

// Duration returns the requested simulated duration.
func (c Config) Duration() time.Duration {
	return time.Duration(c.Hours * float64(time.Hour))
}

// Validate checks the request.
//
// Postcondition: returns nil or a *simerr.Error tagged with the setup phase.
func (c Config) Validate() error {
	if c.Target == "" {
		return simerr.New(simerr.CodeUnknownTarget, simerr.PhaseSetup, "", "target must not be empty")
	}
	if c.Tier < 0 {
		return simerr.New(simerr.CodeInvalidTier, simerr.PhaseSetup, c.Target, fmt.Sprintf("tier must be >= 0, got %d", c.Tier))
	}
	if c.Hours <= 0 || c.Duration() <= 0 {
		return simerr.New(simerr.CodeInvalidDuration, simerr.PhaseSetup, c.Target, fmt.Sprintf("hours must be > 0, got %g", c.Hours))
	}
	return nil
}

// PlayerBuffs returns the permanent buffs the global toggles grant to every player.
func (c Config) PlayerBuffs() []buff.Buff {
	var out []buff.Buff
	if c.CommunityExperience != 0 {
		out = append(out, buff.Buff{Source: SourceCommunityExperience, Type: "combatExperience", Flat: c.CommunityExperience})
	}
	if c.CommunityDropQuantity != 0 {
		out = append(out, buff.Buff{Source: SourceCommunityDropQuantity, Type: "combatDropQuantity", Flat: c.CommunityDropQuantity})
	}
	if c.Pass {
		out = append(out, buff.Buff{Source: SourcePass, Type: "combatExperience", Flat: PassExperience})
	}
	return out
}

// Price returns the configured market price of hrid, falling back to the
// item's sell price, or 0 when neither is known.
func (c Config) Price(hrid string, catalog *gamedata.Catalog) float64 {
	if p, ok := c.Prices[hrid]; ok {
		return p
	}
	if d, ok := catalog.Item(hrid); ok {
		return d.SellPrice
	}
	return 0
}

// LoadConfig reads an encounter file.
//
// Precondition: path names a readable YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading encounter file %q: %w", path, err)
	}
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing encounter file %q: %w", path, err)
	}
	return c, nil
}
