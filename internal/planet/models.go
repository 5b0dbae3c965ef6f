package planet

import (
	"time"
)

// Size is the planet size class.
type Size int

const (
	SizeSmall Size = iota
	SizeMedium
	SizeLarge
)

// baseResourceCount is the grid resource count of a small planet; each
// size class above small adds one.
const baseResourceCount = 3

// Planet is a map location that can be owned, built on and fought over.
// The six derived attributes are a pure aggregation of the buildings on
// the planet's grids: they are null while the planet is unowned and are
// only ever written by the state aggregator.
type Planet struct {
	ID         int64   `json:"id"`
	ResourceID int64   `json:"resource_id"`
	UserID     *int64  `json:"user_id"`
	Name       string  `json:"name"`
	CustomName *string `json:"custom_name"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Size       Size    `json:"size"`

	Capacity              *int64   `json:"capacity"`
	Supply                *int64   `json:"supply"`
	MiningRate            *int64   `json:"mining_rate"`
	ProductionRate        *int64   `json:"production_rate"`
	DefenseBonus          *float64 `json:"defense_bonus"`
	ConstructionTimeBonus *float64 `json:"construction_time_bonus"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName prefers the owner's custom name over the generated one.
func (p *Planet) DisplayName() string {
	if p.CustomName != nil && *p.CustomName != "" {
		return *p.CustomName
	}
	return p.Name
}

// ResourceCount is the number of resource grids on the planet.
func (p *Planet) ResourceCount() int {
	return baseResourceCount + int(p.Size)
}

// DerivedAttributes is the aggregation result written back to a planet.
// Nil fields persist as NULL, which is the unowned-planet state.
type DerivedAttributes struct {
	Capacity              *int64
	Supply                *int64
	MiningRate            *int64
	ProductionRate        *int64
	DefenseBonus          *float64
	ConstructionTimeBonus *float64
}

// Grid is a buildable slot on a planet. BuildingID and Level are null
// while the slot is empty.
type Grid struct {
	ID         int64  `json:"id"`
	PlanetID   int64  `json:"planet_id"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	BuildingID *int64 `json:"building_id"`
	Level      *int   `json:"level"`
}

// GridBuilding is the projection the aggregator folds over: one row per
// non-empty grid.
type GridBuilding struct {
	BuildingID int64
	Level      int
}

// Stock is a per-planet, per-resource continuously accruing quantity.
// Quantity is a baseline; the effective value at any instant is resolved
// through the accrual engine using the planet's mining rate.
type Stock struct {
	ID                  int64     `json:"id"`
	PlanetID            int64     `json:"planet_id"`
	ResourceID          int64     `json:"resource_id"`
	Quantity            int64     `json:"quantity"`
	LastQuantityChanged time.Time `json:"last_quantity_changed"`
}

// Population is a per-planet, per-unit trained count, gated by the
// planet's supply.
type Population struct {
	ID                  int64     `json:"id"`
	PlanetID            int64     `json:"planet_id"`
	UnitID              int64     `json:"unit_id"`
	Quantity            int64     `json:"quantity"`
	LastQuantityChanged time.Time `json:"last_quantity_changed"`
}

// Construction is an in-flight building placement on a grid.
type Construction struct {
	ID         int64     `json:"id"`
	GridID     int64     `json:"grid_id"`
	BuildingID int64     `json:"building_id"`
	Level      int       `json:"level"`
	EndedAt    time.Time `json:"ended_at"`
}

// Upgrade is an in-flight level increase of a constructed building.
type Upgrade struct {
	ID      int64     `json:"id"`
	GridID  int64     `json:"grid_id"`
	Level   int       `json:"level"`
	EndedAt time.Time `json:"ended_at"`
}

// Training is an in-flight unit production on a grid.
type Training struct {
	ID       int64     `json:"id"`
	GridID   int64     `json:"grid_id"`
	UnitID   int64     `json:"unit_id"`
	Quantity int64     `json:"quantity"`
	EndedAt  time.Time `json:"ended_at"`
}

// Mission is a time-scoped objective attached to a planet.
type Mission struct {
	ID       int64     `json:"id"`
	PlanetID int64     `json:"planet_id"`
	EndedAt  time.Time `json:"ended_at"`
}
