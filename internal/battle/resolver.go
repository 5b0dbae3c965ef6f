package battle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/movement"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/notify"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
)

// TxRunner runs a function inside a committed-or-rolled-back transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *database.Tx) error) error
}

// MovementStore claims and removes arriving movements.
type MovementStore interface {
	GetMovementForUpdate(ctx context.Context, tx *database.Tx, movementID int64) (*movement.Movement, error)
	DeleteMovement(ctx context.Context, tx *database.Tx, movementID int64) error
}

// PlanetStore reads the endpoints of a movement.
type PlanetStore interface {
	GetPlanet(ctx context.Context, planetID int64, tx *database.Tx) (*planet.Planet, error)
}

// LogStore persists battle logs.
type LogStore interface {
	CreateLog(ctx context.Context, tx *database.Tx, log *Log) error
}

// Aftermath applies a battle's recorded losses to the defending planet's
// stock and populations. Both operations clamp at zero: recorded losses
// may exceed what is effectively present by resolution time, and that must
// never fail the resolution.
type Aftermath interface {
	DrainStock(ctx context.Context, tx *database.Tx, p *planet.Planet, amount int64) (int64, error)
	IncrementPopulation(ctx context.Context, tx *database.Tx, p *planet.Planet, unitID, delta int64) error
}

// Resolver turns a completed movement into an immutable battle log and
// fans out notifications. It records battles; it never decides ownership.
// On an occupy win the caller follows up with the ownership transfer.
type Resolver struct {
	db        TxRunner
	movements MovementStore
	planets   PlanetStore
	logs      LogStore
	aftermath Aftermath
	notifier  notify.Notifier
	logger    *slog.Logger
}

func NewResolver(db TxRunner, movements MovementStore, planets PlanetStore, logs LogStore, aftermath Aftermath, notifier notify.Notifier, logger *slog.Logger) *Resolver {
	logger.Debug("Initializing battle resolver")

	return &Resolver{
		db:        db,
		movements: movements,
		planets:   planets,
		logs:      logs,
		aftermath: aftermath,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateFrom resolves a movement arrival into a battle log.
//
// The log snapshots the origin planet's owner as attacker, the destination
// owner as defender (nil for unowned targets), both planets' current
// display names, the movement type and the winner (attacker when the
// report leaves it unset). The movement is deleted in the same
// transaction, so an arrival event delivered twice finds no movement and
// returns a nil log with no error.
func (r *Resolver) CreateFrom(ctx context.Context, movementID int64, report Report) (*Log, error) {
	logger := r.logger.With(
		"component", "battle_resolver",
		"operation", "create_from",
		"movement_id", movementID,
	)

	var log *Log

	err := r.db.WithinTx(ctx, func(tx *database.Tx) error {
		mv, err := r.movements.GetMovementForUpdate(ctx, tx, movementID)
		if err != nil {
			return err
		}

		start, err := r.planets.GetPlanet(ctx, mv.StartID, tx)
		if err != nil {
			return fmt.Errorf("failed to load origin planet: %w", err)
		}
		end, err := r.planets.GetPlanet(ctx, mv.EndID, tx)
		if err != nil {
			return fmt.Errorf("failed to load destination planet: %w", err)
		}

		if start.UserID == nil {
			return errors.Validationf("movement %d origin planet %d has no owner", movementID, start.ID)
		}

		winner := WinnerAttacker
		if report.Winner != nil {
			winner = *report.Winner
		}

		log = &Log{
			AttackerID: *start.UserID,
			DefenderID: end.UserID,
			StartID:    mv.StartID,
			EndID:      mv.EndID,
			StartName:  start.DisplayName(),
			EndName:    end.DisplayName(),
			Type:       mv.Type,
			Winner:     winner,
			Units:      report.Units,
			Buildings:  report.Buildings,
			Resources:  report.Resources,
		}

		if err := r.logs.CreateLog(ctx, tx, log); err != nil {
			return err
		}

		if err := r.applyLosses(ctx, tx, end, report); err != nil {
			return err
		}

		return r.movements.DeleteMovement(ctx, tx, movementID)
	})
	if err != nil {
		if errors.IsNotFound(err) {
			// Already resolved by a concurrent arrival; at-least-once
			// delivery makes this a success.
			logger.Debug("Movement already resolved, skipping")
			return nil, nil
		}
		logger.Error("Battle resolution failed", "error", err)
		return nil, err
	}

	r.notifyParticipants(ctx, log)

	logger.Info("Battle log created",
		"battle_log_id", log.ID,
		"type", log.Type.String(),
		"winner", log.Winner.String(),
	)
	return log, nil
}

// applyLosses deducts the defender's recorded unit losses and plundered
// resources inside the resolution transaction. Attacker-side unit losses
// belong to the departed fleet, which no longer exists once the movement is
// deleted, so only defender lines touch planet state. Lines for resources
// other than the planet's primary one are skipped.
func (r *Resolver) applyLosses(ctx context.Context, tx *database.Tx, end *planet.Planet, report Report) error {
	if end.UserID == nil {
		return nil
	}

	for _, line := range report.Units {
		if line.Side != SideDefender || line.Losses == 0 {
			continue
		}
		if err := r.aftermath.IncrementPopulation(ctx, tx, end, line.UnitID, -line.Losses); err != nil {
			return fmt.Errorf("failed to apply unit losses: %w", err)
		}
	}

	for _, line := range report.Resources {
		if line.ResourceID != end.ResourceID || line.Losses == 0 {
			continue
		}
		if _, err := r.aftermath.DrainStock(ctx, tx, end, line.Losses); err != nil {
			return fmt.Errorf("failed to apply resource losses: %w", err)
		}
	}

	return nil
}

// notifyParticipants applies the per-type fan-out policy. A failed scout
// run reveals itself to the defender; a successful one stays silent.
// Attacks and occupations always reach both parties when both exist.
func (r *Resolver) notifyParticipants(ctx context.Context, log *Log) {
	r.notifier.BattleLogCreated(ctx, log.ID, log.AttackerID)

	if log.DefenderID == nil {
		return
	}

	if log.Type == movement.TypeScout && log.Winner != WinnerDefender {
		return
	}

	r.notifier.BattleLogCreated(ctx, log.ID, *log.DefenderID)
}
