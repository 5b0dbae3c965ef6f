package battle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing battle repository")

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

// CreateLog inserts a battle log header and its line items. The caller's
// transaction makes the whole record appear atomically; nothing here ever
// updates an existing log.
func (r *Repository) CreateLog(ctx context.Context, tx *database.Tx, log *Log) error {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "battle_repository",
		"operation", "create_log",
		"attacker_id", log.AttackerID,
		"type", log.Type.String(),
	)
	logger.Debug("Creating battle log")

	query := `
		INSERT INTO battle_logs (attacker_id, defender_id, start_id, end_id, start_name, end_name, type, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := exec.QueryRowContext(ctx, query,
		log.AttackerID,
		log.DefenderID,
		log.StartID,
		log.EndID,
		log.StartName,
		log.EndName,
		log.Type,
		log.Winner,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		logger.Error("Failed to create battle log", "error", err)
		return fmt.Errorf("failed to create battle log: %w", err)
	}

	for _, unit := range log.Units {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO battle_log_units (battle_log_id, unit_id, side, quantity, losses)
			VALUES ($1, $2, $3, $4, $5)
		`, log.ID, unit.UnitID, unit.Side, unit.Quantity, unit.Losses); err != nil {
			logger.Error("Failed to insert unit line", "error", err)
			return fmt.Errorf("failed to insert unit line: %w", err)
		}
	}

	for _, building := range log.Buildings {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO battle_log_buildings (battle_log_id, building_id, level, losses)
			VALUES ($1, $2, $3, $4)
		`, log.ID, building.BuildingID, building.Level, building.Losses); err != nil {
			logger.Error("Failed to insert building line", "error", err)
			return fmt.Errorf("failed to insert building line: %w", err)
		}
	}

	for _, resource := range log.Resources {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO battle_log_resources (battle_log_id, resource_id, quantity, losses)
			VALUES ($1, $2, $3, $4)
		`, log.ID, resource.ResourceID, resource.Quantity, resource.Losses); err != nil {
			logger.Error("Failed to insert resource line", "error", err)
			return fmt.Errorf("failed to insert resource line: %w", err)
		}
	}

	logger.Debug("Battle log created", "battle_log_id", log.ID)
	return nil
}

// GetLog reads a battle log with its line items.
func (r *Repository) GetLog(ctx context.Context, battleLogID int64) (*Log, error) {
	query := `
		SELECT id, attacker_id, defender_id, start_id, end_id, start_name, end_name, type, winner, created_at
		FROM battle_logs
		WHERE id = $1
	`

	var log Log
	err := r.db.QueryRowContext(ctx, query, battleLogID).Scan(
		&log.ID,
		&log.AttackerID,
		&log.DefenderID,
		&log.StartID,
		&log.EndID,
		&log.StartName,
		&log.EndName,
		&log.Type,
		&log.Winner,
		&log.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("battle log %d not found", battleLogID)
	}
	if err != nil {
		r.logger.Error("Failed to get battle log", "battle_log_id", battleLogID, "error", err)
		return nil, fmt.Errorf("failed to get battle log: %w", err)
	}

	if err := r.loadLines(ctx, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *Repository) loadLines(ctx context.Context, log *Log) error {
	unitRows, err := r.db.QueryContext(ctx, `
		SELECT unit_id, side, quantity, losses
		FROM battle_log_units
		WHERE battle_log_id = $1
		ORDER BY unit_id
	`, log.ID)
	if err != nil {
		return fmt.Errorf("failed to query unit lines: %w", err)
	}
	defer unitRows.Close()

	for unitRows.Next() {
		var line UnitLine
		if err := unitRows.Scan(&line.UnitID, &line.Side, &line.Quantity, &line.Losses); err != nil {
			return fmt.Errorf("failed to scan unit line: %w", err)
		}
		log.Units = append(log.Units, line)
	}
	if err := unitRows.Err(); err != nil {
		return fmt.Errorf("error iterating unit lines: %w", err)
	}

	buildingRows, err := r.db.QueryContext(ctx, `
		SELECT building_id, level, losses
		FROM battle_log_buildings
		WHERE battle_log_id = $1
		ORDER BY building_id
	`, log.ID)
	if err != nil {
		return fmt.Errorf("failed to query building lines: %w", err)
	}
	defer buildingRows.Close()

	for buildingRows.Next() {
		var line BuildingLine
		if err := buildingRows.Scan(&line.BuildingID, &line.Level, &line.Losses); err != nil {
			return fmt.Errorf("failed to scan building line: %w", err)
		}
		log.Buildings = append(log.Buildings, line)
	}
	if err := buildingRows.Err(); err != nil {
		return fmt.Errorf("error iterating building lines: %w", err)
	}

	resourceRows, err := r.db.QueryContext(ctx, `
		SELECT resource_id, quantity, losses
		FROM battle_log_resources
		WHERE battle_log_id = $1
		ORDER BY resource_id
	`, log.ID)
	if err != nil {
		return fmt.Errorf("failed to query resource lines: %w", err)
	}
	defer resourceRows.Close()

	for resourceRows.Next() {
		var line ResourceLine
		if err := resourceRows.Scan(&line.ResourceID, &line.Quantity, &line.Losses); err != nil {
			return fmt.Errorf("failed to scan resource line: %w", err)
		}
		log.Resources = append(log.Resources, line)
	}
	if err := resourceRows.Err(); err != nil {
		return fmt.Errorf("error iterating resource lines: %w", err)
	}

	return nil
}
