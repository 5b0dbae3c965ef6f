package player

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/accrual"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/notify"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/state"
)

type Service struct {
	db       *database.DB
	repo     *Repository
	planets  *planet.Repository
	state    *state.Aggregator
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

func NewService(
	db *database.DB,
	repo *Repository,
	planets *planet.Repository,
	aggregator *state.Aggregator,
	notifier notify.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	logger.Debug("Initializing player service")

	return &Service{
		db:       db,
		repo:     repo,
		planets:  planets,
		state:    aggregator,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// Provision creates a player and claims an unowned starter planet as their
// capital, all in one transaction. Starter planets are neutral, so no
// ownership cascade is needed; the claim is a direct SetOwner.
func (s *Service) Provision(ctx context.Context, username, email string) (*Player, *planet.Planet, error) {
	logger := s.logger.With(
		"component", "player_service",
		"operation", "provision",
		"username", username,
	)

	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, nil, errors.Validationf("username must be between 3 and 32 characters")
	}

	var (
		created *Player
		starter *planet.Planet
	)
	err := s.db.WithinTx(ctx, func(tx *database.Tx) error {
		p, err := s.repo.CreatePlayer(ctx, username, email, tx)
		if err != nil {
			return err
		}

		sp, err := s.planets.FindStarter(ctx, tx)
		if err != nil {
			return err
		}

		if err := s.planets.SetOwner(ctx, tx, sp.ID, &p.ID); err != nil {
			return err
		}
		if err := s.repo.SetCapitalPlanet(ctx, tx, p.ID, sp.ID); err != nil {
			return err
		}

		created, starter = p, sp
		return nil
	})
	if err != nil {
		logger.Error("Failed to provision player", "error", err)
		return nil, nil, err
	}

	if err := s.state.SyncPlanet(ctx, starter.ID); err != nil {
		logger.Error("Failed to sync starter planet", "planet_id", starter.ID, "error", err)
	}
	if err := s.state.SyncUser(ctx, created.ID); err != nil {
		logger.Error("Failed to sync new player", "player_id", created.ID, "error", err)
	}

	s.notifier.PlanetUpdated(ctx, starter.ID)

	logger.Info("Player provisioned", "player_id", created.ID, "capital_id", starter.ID)
	return created, starter, nil
}

// Energy returns the player's effective energy at the current instant,
// without writing anything back.
func (s *Service) Energy(ctx context.Context, playerID int64) (int64, error) {
	p, err := s.repo.GetPlayer(ctx, playerID, nil)
	if err != nil {
		return 0, err
	}

	rate := accrual.PerHour(p.ProductionRate)
	return accrual.Quantity(p.Energy, rate, p.LastEnergyChanged, s.clock.Now(), nil), nil
}

// SpendEnergy deducts an amount from the player's effective energy under
// the row lock, rebasing the stored value in the same transaction.
func (s *Service) SpendEnergy(ctx context.Context, playerID, amount int64) error {
	if amount < 0 {
		return errors.Validationf("amount must not be negative")
	}

	logger := s.logger.With(
		"component", "player_service",
		"operation", "spend_energy",
		"player_id", playerID,
	)

	return s.db.WithinTx(ctx, func(tx *database.Tx) error {
		stored, rateStored, lastChanged, err := s.repo.EnergyForUpdate(ctx, tx, playerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		effective := accrual.Quantity(stored, accrual.PerHour(rateStored), lastChanged, now, nil)
		if effective < amount {
			return errors.Validationf("insufficient energy: have %d, need %d", effective, amount)
		}

		if err := s.repo.UpdateEnergy(ctx, tx, playerID, effective-amount, rateStored, now); err != nil {
			return fmt.Errorf("failed to update energy: %w", err)
		}

		logger.Debug("Energy spent", "amount", amount, "remaining", effective-amount)
		return nil
	})
}

// RenamePlanet sets a custom name on one of the player's planets. The
// custom name survives until the planet changes owner.
func (s *Service) RenamePlanet(ctx context.Context, playerID, planetID int64, name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 20 {
		return errors.Validationf("planet name must be between 3 and 20 characters")
	}

	logger := s.logger.With(
		"component", "player_service",
		"operation", "rename_planet",
		"player_id", playerID,
		"planet_id", planetID,
	)

	err := s.db.WithinTx(ctx, func(tx *database.Tx) error {
		p, err := s.planets.GetPlanetForUpdate(ctx, tx, planetID)
		if err != nil {
			return err
		}
		if p.UserID == nil || *p.UserID != playerID {
			return errors.Validationf("planet %d does not belong to player %d", planetID, playerID)
		}
		return s.planets.SetCustomName(ctx, planetID, &name, tx)
	})
	if err != nil {
		logger.Error("Failed to rename planet", "error", err)
		return err
	}

	s.notifier.PlanetUpdated(ctx, planetID)
	return nil
}
