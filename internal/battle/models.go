package battle

import (
	"time"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/movement"
)

// Winner identifies which side prevailed. Attacker is the documented
// default when no winner is supplied, covering arrivals at undefended
// planets.
type Winner int

const (
	WinnerAttacker Winner = iota
	WinnerDefender
)

func (w Winner) String() string {
	if w == WinnerDefender {
		return "defender"
	}
	return "attacker"
}

// Side tags a line item with the force it belonged to.
type Side int

const (
	SideAttacker Side = iota
	SideDefender
)

// Log is the immutable record of a resolved confrontation. Start and end
// names are captured at resolution time so later renames never corrupt
// history. DefenderID is nil when the target planet was unowned.
type Log struct {
	ID         int64         `json:"id"`
	AttackerID int64         `json:"attacker_id"`
	DefenderID *int64        `json:"defender_id"`
	StartID    int64         `json:"start_id"`
	EndID      int64         `json:"end_id"`
	StartName  string        `json:"start_name"`
	EndName    string        `json:"end_name"`
	Type       movement.Type `json:"type"`
	Winner     Winner        `json:"winner"`
	CreatedAt  time.Time     `json:"created_at"`

	Units     []UnitLine     `json:"units"`
	Buildings []BuildingLine `json:"buildings"`
	Resources []ResourceLine `json:"resources"`
}

// UnitLine records a unit type's pre-battle quantity and losses for one
// side.
type UnitLine struct {
	UnitID   int64 `json:"unit_id"`
	Side     Side  `json:"side"`
	Quantity int64 `json:"quantity"`
	Losses   int64 `json:"losses"`
}

// BuildingLine records a defending building's pre-battle level and losses.
type BuildingLine struct {
	BuildingID int64 `json:"building_id"`
	Level      int   `json:"level"`
	Losses     int64 `json:"losses"`
}

// ResourceLine records a plundered resource's pre-battle quantity and
// losses.
type ResourceLine struct {
	ResourceID int64 `json:"resource_id"`
	Quantity   int64 `json:"quantity"`
	Losses     int64 `json:"losses"`
}

// Report carries the externally computed outcome of a confrontation into
// the resolver. The combat arithmetic itself lives with the caller; the
// resolver only records it.
type Report struct {
	Winner    *Winner
	Units     []UnitLine
	Buildings []BuildingLine
	Resources []ResourceLine
}
