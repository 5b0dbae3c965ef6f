package movement

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
	logger.Debug("Initializing movement repository")

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

const movementColumns = `id, start_id, end_id, user_id, type, ended_at, created_at`

func (r *Repository) CreateMovement(ctx context.Context, startID, endID, userID int64, movementType Type, endedAt time.Time, tx *database.Tx) (*Movement, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "movement_repository",
		"operation", "create_movement",
		"start_id", startID,
		"end_id", endID,
		"type", movementType.String(),
	)
	logger.Debug("Creating movement")

	query := `
		INSERT INTO movements (start_id, end_id, user_id, type, ended_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + movementColumns

	var m Movement
	err := exec.QueryRowContext(ctx, query, startID, endID, userID, movementType, endedAt).Scan(
		&m.ID, &m.StartID, &m.EndID, &m.UserID, &m.Type, &m.EndedAt, &m.CreatedAt,
	)
	if err != nil {
		logger.Error("Failed to create movement", "error", err)
		return nil, fmt.Errorf("failed to create movement: %w", err)
	}

	logger.Debug("Movement created successfully", "movement_id", m.ID)
	return &m, nil
}

// GetMovementForUpdate locks the movement row so only one resolver can
// claim an arrival.
func (r *Repository) GetMovementForUpdate(ctx context.Context, tx *database.Tx, movementID int64) (*Movement, error) {
	exec := r.getExecutor(tx)

	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1 FOR UPDATE`

	var m Movement
	err := exec.QueryRowContext(ctx, query, movementID).Scan(
		&m.ID, &m.StartID, &m.EndID, &m.UserID, &m.Type, &m.EndedAt, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("movement %d not found", movementID)
	}
	if err != nil {
		r.logger.Error("Failed to lock movement row", "movement_id", movementID, "error", err)
		return nil, fmt.Errorf("failed to lock movement row: %w", err)
	}
	return &m, nil
}

func (r *Repository) DeleteMovement(ctx context.Context, tx *database.Tx, movementID int64) error {
	exec := r.getExecutor(tx)

	query := `DELETE FROM movements WHERE id = $1`

	if _, err := exec.ExecContext(ctx, query, movementID); err != nil {
		r.logger.Error("Failed to delete movement", "movement_id", movementID, "error", err)
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	return nil
}

// DeleteByPlanetAndOwner purges a user's movements touching a planet in
// either direction. Used by the ownership transfer cascade.
func (r *Repository) DeleteByPlanetAndOwner(ctx context.Context, tx *database.Tx, planetID, userID int64) error {
	exec := r.getExecutor(tx)

	query := `
		DELETE FROM movements
		WHERE (start_id = $1 OR end_id = $1) AND user_id = $2
	`

	if _, err := exec.ExecContext(ctx, query, planetID, userID); err != nil {
		r.logger.Error("Failed to delete movements", "planet_id", planetID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to delete movements: %w", err)
	}
	return nil
}
