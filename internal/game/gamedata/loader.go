package gamedata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Subdirectories of a content directory. Each *.yaml or *.yml file inside
// holds a YAML sequence of definitions.
const (
	ItemsDir        = "items"
	AbilitiesDir    = "abilities"
	MonstersDir     = "monsters"
	EncountersDir   = "encounters"
	HouseRoomsDir   = "house_rooms"
	AchievementsDir = "achievement_tiers"
	// EnhancementFile optionally overrides the enhancement multiplier table.
	EnhancementFile = "enhancement.yaml"
)

type enhancementDoc struct {
	Multipliers []float64 `yaml:"multipliers"`
}

// LoadDirectory reads a content directory into a Catalog.
//
// Precondition: dir must be a readable directory. Missing subdirectories are
// treated as empty.
// Postcondition: Returns a validated Catalog whose cross references resolve,
// or an error naming the first file that failed.
func LoadDirectory(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("gamedata: reading content dir %q: %w", dir, err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("gamedata: %q is not a directory", dir)
	}

	c := NewCatalog()
	if err := loadInto(filepath.Join(dir, ItemsDir), c.RegisterItem); err != nil {
		return nil, err
	}
	if err := loadInto(filepath.Join(dir, AbilitiesDir), c.RegisterAbility); err != nil {
		return nil, err
	}
	if err := loadInto(filepath.Join(dir, MonstersDir), c.RegisterMonster); err != nil {
		return nil, err
	}
	if err := loadInto(filepath.Join(dir, EncountersDir), c.RegisterEncounter); err != nil {
		return nil, err
	}
	if err := loadInto(filepath.Join(dir, HouseRoomsDir), c.RegisterHouseRoom); err != nil {
		return nil, err
	}
	if err := loadInto(filepath.Join(dir, AchievementsDir), c.RegisterAchievementTier); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, EnhancementFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var doc enhancementDoc
		if err := decodeStrict(data, &doc); err != nil {
			return nil, fmt.Errorf("gamedata: parsing %q: %w", path, err)
		}
		if len(doc.Multipliers) == 0 {
			return nil, fmt.Errorf("gamedata: %q defines no multipliers", path)
		}
		c.SetEnhancementTable(doc.Multipliers)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("gamedata: reading %q: %w", path, err)
	}

	if err := c.CheckReferences(); err != nil {
		return nil, err
	}
	counts := c.Counts()
	logger.Info("game data loaded",
		zap.String("dir", dir),
		zap.Int("items", counts["items"]),
		zap.Int("abilities", counts["abilities"]),
		zap.Int("monsters", counts["monsters"]),
		zap.Int("encounters", counts["encounters"]),
		zap.Int("house_rooms", counts["house_rooms"]),
		zap.Int("achievement_tiers", counts["achievement_tiers"]),
	)
	return c, nil
}

type validator interface {
	Validate() error
}

// loadInto decodes every definition file in dir and hands each validated
// definition to register.
func loadInto[T any, PT interface {
	*T
	validator
}](dir string, register func(PT) error) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("gamedata: reading dir %q: %w", dir, err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("gamedata: reading %q: %w", path, err)
		}
		var defs []T
		if err := decodeStrict(data, &defs); err != nil {
			return fmt.Errorf("gamedata: parsing %q: %w", path, err)
		}
		for i := range defs {
			d := PT(&defs[i])
			if err := d.Validate(); err != nil {
				return fmt.Errorf("gamedata: invalid definition in %q: %w", path, err)
			}
			if err := register(d); err != nil {
				return fmt.Errorf("gamedata: %q: %w", path, err)
			}
		}
	}
	return nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
