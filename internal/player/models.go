package player

import (
	"time"
)

// Player is a game participant. Energy accrues continuously at the
// aggregate production rate of the player's planets; ProductionRate and
// Energy are derived values maintained by the state aggregator.
type Player struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Energy            int64     `json:"energy"`
	ProductionRate    int64     `json:"production_rate"`
	LastEnergyChanged time.Time `json:"last_energy_changed"`
	CapitalID         *int64    `json:"capital_id"`
	CurrentID         *int64    `json:"current_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
