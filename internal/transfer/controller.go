// Package transfer orchestrates what happens when a planet changes hands.
// The cascade is an explicit command invoked by whoever decides ownership
// (combat resolution, abandonment, starter assignment), not an implicit
// hook: either the whole cascade and the ownership write commit together,
// or none of it does.
package transfer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/notify"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
)

// TxRunner runs a function inside a committed-or-rolled-back transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *database.Tx) error) error
}

// PlanetStore is the slice of the planet repository the cascade needs.
type PlanetStore interface {
	GetPlanetForUpdate(ctx context.Context, tx *database.Tx, planetID int64) (*planet.Planet, error)
	ClearCustomAndDerived(ctx context.Context, tx *database.Tx, planetID int64) error
	ResetGrids(ctx context.Context, tx *database.Tx, planetID int64) error
	DeleteConstructions(ctx context.Context, tx *database.Tx, planetID int64) error
	DeleteUpgrades(ctx context.Context, tx *database.Tx, planetID int64) error
	DeleteTrainings(ctx context.Context, tx *database.Tx, planetID int64) error
	DeleteMissions(ctx context.Context, tx *database.Tx, planetID int64) error
	SetOwner(ctx context.Context, tx *database.Tx, planetID int64, userID *int64) error
}

// MovementStore purges a user's in-flight movements on a planet.
type MovementStore interface {
	DeleteByPlanetAndOwner(ctx context.Context, tx *database.Tx, planetID, userID int64) error
}

// PlayerStore is the slice of the player repository the cascade needs.
type PlayerStore interface {
	CurrentAndCapital(ctx context.Context, tx *database.Tx, playerID int64) (currentID, capitalID *int64, err error)
	SetCurrentPlanet(ctx context.Context, tx *database.Tx, playerID int64, planetID *int64) error
}

// Syncer recomputes derived state after ownership changes.
type Syncer interface {
	SyncUserInTx(ctx context.Context, tx *database.Tx, playerID int64) error
	SyncPlanet(ctx context.Context, planetID int64) error
	SyncUser(ctx context.Context, playerID int64) error
}

type Controller struct {
	db        TxRunner
	planets   PlanetStore
	movements MovementStore
	players   PlayerStore
	state     Syncer
	notifier  notify.Notifier
	logger    *slog.Logger
}

func NewController(db TxRunner, planets PlanetStore, movements MovementStore, players PlayerStore, state Syncer, notifier notify.Notifier, logger *slog.Logger) *Controller {
	logger.Debug("Initializing ownership transfer controller")

	return &Controller{
		db:        db,
		planets:   planets,
		movements: movements,
		players:   players,
		state:     state,
		notifier:  notifier,
		logger:    logger,
	}
}

// Transfer changes a planet's owner. A nil newOwnerID abandons the planet.
//
// The previous owner's footprint on the planet is removed in the same
// transaction as the ownership write: custom name and derived attributes
// nulled, their movements purged, all in-flight constructions, upgrades,
// trainings and missions deleted, every grid emptied, and their
// current-planet pointer redirected to their capital if it pointed here.
// The new owner's derived state is synchronized after commit.
func (c *Controller) Transfer(ctx context.Context, planetID int64, newOwnerID *int64) error {
	logger := c.logger.With(
		"component", "transfer_controller",
		"operation", "transfer",
		"planet_id", planetID,
	)
	if newOwnerID != nil {
		logger = logger.With("new_owner_id", *newOwnerID)
	}

	var previousOwner *int64
	changed := false

	err := c.db.WithinTx(ctx, func(tx *database.Tx) error {
		p, err := c.planets.GetPlanetForUpdate(ctx, tx, planetID)
		if err != nil {
			return fmt.Errorf("failed to load planet: %w", err)
		}

		if sameOwner(p.UserID, newOwnerID) {
			logger.Debug("Ownership unchanged, nothing to do")
			return nil
		}
		changed = true

		if p.UserID != nil {
			prev := *p.UserID
			previousOwner = &prev

			if err := c.cascadePreviousOwner(ctx, tx, planetID, prev); err != nil {
				return err
			}
		}

		if err := c.planets.SetOwner(ctx, tx, planetID, newOwnerID); err != nil {
			return fmt.Errorf("failed to write new owner: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error("Ownership transfer failed", "error", err)
		return err
	}

	if !changed {
		return nil
	}

	if previousOwner != nil {
		logger.Info("Ownership transferred", "previous_owner_id", *previousOwner)
	}

	// Ownership is committed at this point. A failed post-commit sync must
	// not fail the transfer: the next SyncPlanet/SyncUser for this planet
	// or owner repairs the derived state.
	if newOwnerID != nil {
		if err := c.state.SyncPlanet(ctx, planetID); err != nil {
			logger.Error("Failed to sync planet for new owner", "error", err)
		}
		if err := c.state.SyncUser(ctx, *newOwnerID); err != nil {
			logger.Error("Failed to sync new owner", "error", err)
		}
	}

	c.notifier.PlanetUpdated(ctx, planetID)
	return nil
}

func (c *Controller) cascadePreviousOwner(ctx context.Context, tx *database.Tx, planetID, previousOwner int64) error {
	if err := c.planets.ClearCustomAndDerived(ctx, tx, planetID); err != nil {
		return fmt.Errorf("failed to clear planet state: %w", err)
	}

	if err := c.movements.DeleteByPlanetAndOwner(ctx, tx, planetID, previousOwner); err != nil {
		return fmt.Errorf("failed to purge movements: %w", err)
	}

	if err := c.planets.DeleteConstructions(ctx, tx, planetID); err != nil {
		return fmt.Errorf("failed to purge constructions: %w", err)
	}
	if err := c.planets.DeleteUpgrades(ctx, tx, planetID); err != nil {
		return fmt.Errorf("failed to purge upgrades: %w", err)
	}
	if err := c.planets.DeleteTrainings(ctx, tx, planetID); err != nil {
		return fmt.Errorf("failed to purge trainings: %w", err)
	}
	if err := c.planets.DeleteMissions(ctx, tx, planetID); err != nil {
		return fmt.Errorf("failed to purge missions: %w", err)
	}

	if err := c.planets.ResetGrids(ctx, tx, planetID); err != nil {
		return fmt.Errorf("failed to reset grids: %w", err)
	}

	currentID, capitalID, err := c.players.CurrentAndCapital(ctx, tx, previousOwner)
	if err != nil {
		return fmt.Errorf("failed to load previous owner: %w", err)
	}
	if currentID != nil && *currentID == planetID {
		if err := c.players.SetCurrentPlanet(ctx, tx, previousOwner, capitalID); err != nil {
			return fmt.Errorf("failed to redirect current planet: %w", err)
		}
	}

	if err := c.state.SyncUserInTx(ctx, tx, previousOwner); err != nil {
		return fmt.Errorf("failed to sync previous owner: %w", err)
	}
	return nil
}

func sameOwner(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
