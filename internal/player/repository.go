package player

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing player repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

const playerColumns = `id, username, email, energy, production_rate, last_energy_changed, capital_id, current_id, created_at, updated_at`

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.Email,
		&p.Energy,
		&p.ProductionRate,
		&p.LastEnergyChanged,
		&p.CapitalID,
		&p.CurrentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreatePlayer(ctx context.Context, username, email string, tx *database.Tx) (*Player, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "player_repository",
		"operation", "create_player",
		"username", username,
	)
	logger.Debug("Creating player")

	query := `
		INSERT INTO players (username, email, energy, production_rate, last_energy_changed)
		VALUES ($1, $2, 0, 0, NOW())
		RETURNING ` + playerColumns

	p, err := scanPlayer(exec.QueryRowContext(ctx, query, username, email))
	if err != nil {
		logger.Error("Failed to create player", "error", err)
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	logger.Debug("Player created successfully", "player_id", p.ID)
	return p, nil
}

func (r *Repository) GetPlayer(ctx context.Context, playerID int64, tx *database.Tx) (*Player, error) {
	exec := r.getExecutor(tx)

	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(exec.QueryRowContext(ctx, query, playerID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("player %d not found", playerID)
	}
	if err != nil {
		r.logger.Error("Failed to get player", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// EnergyForUpdate locks the player row and returns the stored energy
// baseline with its rate and timestamp. Callers must hold a transaction.
func (r *Repository) EnergyForUpdate(ctx context.Context, tx *database.Tx, playerID int64) (int64, int64, time.Time, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT energy, production_rate, last_energy_changed
		FROM players
		WHERE id = $1
		FOR UPDATE
	`

	var energy, productionRate int64
	var lastChanged time.Time
	err := exec.QueryRowContext(ctx, query, playerID).Scan(&energy, &productionRate, &lastChanged)
	if err == sql.ErrNoRows {
		return 0, 0, time.Time{}, errors.NotFoundf("player %d not found", playerID)
	}
	if err != nil {
		r.logger.Error("Failed to lock player row", "player_id", playerID, "error", err)
		return 0, 0, time.Time{}, fmt.Errorf("failed to lock player row: %w", err)
	}
	return energy, productionRate, lastChanged, nil
}

// SumPlanetProductionRate totals the production rate across the player's
// currently owned planets.
func (r *Repository) SumPlanetProductionRate(ctx context.Context, tx *database.Tx, playerID int64) (int64, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT COALESCE(SUM(production_rate), 0)
		FROM planets
		WHERE user_id = $1
	`

	var total int64
	if err := exec.QueryRowContext(ctx, query, playerID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum planet production rate", "player_id", playerID, "error", err)
		return 0, fmt.Errorf("failed to sum planet production rate: %w", err)
	}
	return total, nil
}

// UpdateEnergy rebases the player's energy accrual baseline alongside the
// refreshed aggregate production rate.
func (r *Repository) UpdateEnergy(ctx context.Context, tx *database.Tx, playerID int64, energy, productionRate int64, now time.Time) error {
	exec := r.getExecutor(tx)

	query := `
		UPDATE players
		SET energy = $2, production_rate = $3, last_energy_changed = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := exec.ExecContext(ctx, query, playerID, energy, productionRate, now)
	if err != nil {
		r.logger.Error("Failed to update player energy", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to update player energy: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return errors.NotFoundf("player %d not found", playerID)
	}
	return nil
}

// CurrentAndCapital returns the player's current-planet and capital-planet
// pointers.
func (r *Repository) CurrentAndCapital(ctx context.Context, tx *database.Tx, playerID int64) (*int64, *int64, error) {
	exec := r.getExecutor(tx)

	query := `SELECT current_id, capital_id FROM players WHERE id = $1`

	var currentID, capitalID *int64
	err := exec.QueryRowContext(ctx, query, playerID).Scan(&currentID, &capitalID)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NotFoundf("player %d not found", playerID)
	}
	if err != nil {
		r.logger.Error("Failed to get player pointers", "player_id", playerID, "error", err)
		return nil, nil, fmt.Errorf("failed to get player pointers: %w", err)
	}
	return currentID, capitalID, nil
}

func (r *Repository) SetCurrentPlanet(ctx context.Context, tx *database.Tx, playerID int64, planetID *int64) error {
	exec := r.getExecutor(tx)

	query := `UPDATE players SET current_id = $2, updated_at = NOW() WHERE id = $1`

	if _, err := exec.ExecContext(ctx, query, playerID, planetID); err != nil {
		r.logger.Error("Failed to set current planet", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to set current planet: %w", err)
	}
	return nil
}

func (r *Repository) SetCapitalPlanet(ctx context.Context, tx *database.Tx, playerID int64, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `UPDATE players SET capital_id = $2, current_id = $2, updated_at = NOW() WHERE id = $1`

	if _, err := exec.ExecContext(ctx, query, playerID, planetID); err != nil {
		r.logger.Error("Failed to set capital planet", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to set capital planet: %w", err)
	}
	return nil
}

func (r *Repository) GetPlayerCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&count); err != nil {
		r.logger.Error("Failed to count players", "error", err)
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}
