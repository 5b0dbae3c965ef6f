// Package state recomputes derived attributes. A planet's capacity,
// supply, rates and bonuses are always a pure aggregation of the buildings
// on its grids; a player's production rate and energy are always derived
// from their owned planets. Nothing outside this package writes those
// fields.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/accrual"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/catalog"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
)

// TxRunner runs a function inside a committed-or-rolled-back transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *database.Tx) error) error
}

// PlanetStore is the slice of the planet repository the aggregator needs.
type PlanetStore interface {
	GetPlanetForUpdate(ctx context.Context, tx *database.Tx, planetID int64) (*planet.Planet, error)
	ListGridBuildings(ctx context.Context, tx *database.Tx, planetID int64) ([]planet.GridBuilding, error)
	EnsureStock(ctx context.Context, tx *database.Tx, planetID, resourceID int64, now time.Time) error
	UpdateDerivedAttributes(ctx context.Context, tx *database.Tx, planetID int64, attrs planet.DerivedAttributes) error
}

// PlayerStore is the slice of the player repository the aggregator needs.
type PlayerStore interface {
	EnergyForUpdate(ctx context.Context, tx *database.Tx, playerID int64) (energy, productionRate int64, lastChanged time.Time, err error)
	SumPlanetProductionRate(ctx context.Context, tx *database.Tx, playerID int64) (int64, error)
	UpdateEnergy(ctx context.Context, tx *database.Tx, playerID int64, energy, productionRate int64, now time.Time) error
}

type Aggregator struct {
	db      TxRunner
	planets PlanetStore
	players PlayerStore
	catalog *catalog.Catalog
	clock   clock.Clock
	logger  *slog.Logger
}

func NewAggregator(db TxRunner, planets PlanetStore, players PlayerStore, cat *catalog.Catalog, clk clock.Clock, logger *slog.Logger) *Aggregator {
	logger.Debug("Initializing state aggregator")

	return &Aggregator{
		db:      db,
		planets: planets,
		players: players,
		catalog: cat,
		clock:   clk,
		logger:  logger,
	}
}

// SyncPlanet recomputes a planet's derived attributes in its own
// transaction.
func (a *Aggregator) SyncPlanet(ctx context.Context, planetID int64) error {
	return a.db.WithinTx(ctx, func(tx *database.Tx) error {
		return a.SyncPlanetInTx(ctx, tx, planetID)
	})
}

// SyncPlanetInTx recomputes a planet's derived attributes inside an
// existing transaction. The planet row lock serializes concurrent syncs.
//
// Idempotent: with no building change between calls, both produce the same
// stored values. The stock ensure step only initializes a missing row; it
// never re-baselines an accruing one.
func (a *Aggregator) SyncPlanetInTx(ctx context.Context, tx *database.Tx, planetID int64) error {
	logger := a.logger.With("component", "state_aggregator", "operation", "sync_planet", "planet_id", planetID)

	p, err := a.planets.GetPlanetForUpdate(ctx, tx, planetID)
	if err != nil {
		return fmt.Errorf("failed to load planet: %w", err)
	}

	if p.UserID == nil {
		// Unowned planets have no buildings-derived state.
		logger.Debug("Planet unowned, clearing derived attributes")
		return a.planets.UpdateDerivedAttributes(ctx, tx, planetID, planet.DerivedAttributes{})
	}

	if err := a.planets.EnsureStock(ctx, tx, p.ID, p.ResourceID, a.clock.Now()); err != nil {
		return fmt.Errorf("failed to ensure stock: %w", err)
	}

	buildings, err := a.planets.ListGridBuildings(ctx, tx, planetID)
	if err != nil {
		return fmt.Errorf("failed to list buildings: %w", err)
	}

	var total catalog.Effects
	for _, gb := range buildings {
		effects, ok := a.catalog.Effects(gb.BuildingID, gb.Level)
		if !ok {
			logger.Warn("Building missing from catalog, skipping",
				"building_id", gb.BuildingID, "level", gb.Level)
			continue
		}
		total = total.Add(effects)
	}

	attrs := planet.DerivedAttributes{
		Capacity:              &total.Capacity,
		Supply:                &total.Supply,
		MiningRate:            &total.MiningRate,
		ProductionRate:        &total.ProductionRate,
		DefenseBonus:          &total.DefenseBonus,
		ConstructionTimeBonus: &total.ConstructionTimeBonus,
	}

	if err := a.planets.UpdateDerivedAttributes(ctx, tx, planetID, attrs); err != nil {
		return fmt.Errorf("failed to persist derived attributes: %w", err)
	}

	logger.Debug("Planet synchronized",
		"buildings", len(buildings),
		"capacity", total.Capacity,
		"supply", total.Supply,
		"mining_rate", total.MiningRate,
		"production_rate", total.ProductionRate,
	)
	return nil
}

// SyncUser recomputes a player's aggregate production rate and energy
// baseline in its own transaction.
func (a *Aggregator) SyncUser(ctx context.Context, playerID int64) error {
	return a.db.WithinTx(ctx, func(tx *database.Tx) error {
		return a.SyncUserInTx(ctx, tx, playerID)
	})
}

// SyncUserInTx recomputes a player's production rate inside an existing
// transaction. Energy is resolved at the old rate before the new rate is
// stored, so the baseline is never stale when the rate changes.
func (a *Aggregator) SyncUserInTx(ctx context.Context, tx *database.Tx, playerID int64) error {
	logger := a.logger.With("component", "state_aggregator", "operation", "sync_user", "player_id", playerID)

	energy, oldRate, lastChanged, err := a.players.EnergyForUpdate(ctx, tx, playerID)
	if err != nil {
		return fmt.Errorf("failed to load player energy: %w", err)
	}

	now := a.clock.Now()
	currentEnergy := accrual.Quantity(energy, accrual.PerHour(oldRate), lastChanged, now, nil)

	newRate, err := a.players.SumPlanetProductionRate(ctx, tx, playerID)
	if err != nil {
		return fmt.Errorf("failed to sum production rate: %w", err)
	}

	if err := a.players.UpdateEnergy(ctx, tx, playerID, currentEnergy, newRate, now); err != nil {
		return fmt.Errorf("failed to persist player energy: %w", err)
	}

	logger.Debug("Player synchronized", "energy", currentEnergy, "production_rate", newRate)
	return nil
}
