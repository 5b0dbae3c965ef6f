// Package catalog loads the static building-effects configuration. Each
// building level contributes additive deltas to a planet's six derived
// attributes; aggregation elsewhere is a plain fold over these records.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Effects is the additive contribution of a single building level to a
// planet's derived attributes.
type Effects struct {
	Capacity              int64   `yaml:"capacity"`
	Supply                int64   `yaml:"supply"`
	MiningRate            int64   `yaml:"mining_rate"`
	ProductionRate        int64   `yaml:"production_rate"`
	DefenseBonus          float64 `yaml:"defense_bonus"`
	ConstructionTimeBonus float64 `yaml:"construction_time_bonus"`
}

// Add returns the element-wise sum of two effect records.
func (e Effects) Add(other Effects) Effects {
	return Effects{
		Capacity:              e.Capacity + other.Capacity,
		Supply:                e.Supply + other.Supply,
		MiningRate:            e.MiningRate + other.MiningRate,
		ProductionRate:        e.ProductionRate + other.ProductionRate,
		DefenseBonus:          e.DefenseBonus + other.DefenseBonus,
		ConstructionTimeBonus: e.ConstructionTimeBonus + other.ConstructionTimeBonus,
	}
}

// Building describes one building type and its per-level effects.
type Building struct {
	ID     int64           `yaml:"id"`
	Name   string          `yaml:"name"`
	Levels map[int]Effects `yaml:"levels"`
}

// Catalog is the loaded building-effects table, keyed by building id.
type Catalog struct {
	buildings map[int64]Building
}

type buildingsFile struct {
	Buildings []Building `yaml:"buildings"`
}

// Load reads the building catalog from a yaml file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read building catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw yaml.
func Parse(data []byte) (*Catalog, error) {
	var file buildingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse building catalog: %w", err)
	}

	buildings := make(map[int64]Building, len(file.Buildings))
	for _, b := range file.Buildings {
		if b.ID <= 0 {
			return nil, fmt.Errorf("building %q has invalid id %d", b.Name, b.ID)
		}
		if _, exists := buildings[b.ID]; exists {
			return nil, fmt.Errorf("duplicate building id %d", b.ID)
		}
		if len(b.Levels) == 0 {
			return nil, fmt.Errorf("building %q has no levels", b.Name)
		}
		buildings[b.ID] = b
	}

	return &Catalog{buildings: buildings}, nil
}

// Effects returns the attribute deltas for a building at a given level.
func (c *Catalog) Effects(buildingID int64, level int) (Effects, bool) {
	building, ok := c.buildings[buildingID]
	if !ok {
		return Effects{}, false
	}
	effects, ok := building.Levels[level]
	return effects, ok
}

// Building returns the full definition for a building id.
func (c *Catalog) Building(buildingID int64) (Building, bool) {
	building, ok := c.buildings[buildingID]
	return building, ok
}

// Len returns the number of building types in the catalog.
func (c *Catalog) Len() int {
	return len(c.buildings)
}
