package planet

import (
	"context"
	"database/sql"
	"encoding/json"
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
	logger.Debug("Initializing planet repository")

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

const planetColumns = `id, resource_id, user_id, name, custom_name, x, y, size,
	capacity, supply, mining_rate, production_rate, defense_bonus, construction_time_bonus,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlanet(row rowScanner) (*Planet, error) {
	var p Planet
	err := row.Scan(
		&p.ID,
		&p.ResourceID,
		&p.UserID,
		&p.Name,
		&p.CustomName,
		&p.X,
		&p.Y,
		&p.Size,
		&p.Capacity,
		&p.Supply,
		&p.MiningRate,
		&p.ProductionRate,
		&p.DefenseBonus,
		&p.ConstructionTimeBonus,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetPlanet(ctx context.Context, planetID int64, tx *database.Tx) (*Planet, error) {
	exec := r.getExecutor(tx)

	query := `SELECT ` + planetColumns + ` FROM planets WHERE id = $1`

	p, err := scanPlanet(exec.QueryRowContext(ctx, query, planetID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("planet %d not found", planetID)
	}
	if err != nil {
		r.logger.Error("Failed to get planet", "planet_id", planetID, "error", err)
		return nil, fmt.Errorf("failed to get planet: %w", err)
	}
	return p, nil
}

// GetPlanetForUpdate locks the planet row for the duration of the
// enclosing transaction. The aggregator and the ownership transfer
// serialize their read-recompute-write sequences through this lock.
func (r *Repository) GetPlanetForUpdate(ctx context.Context, tx *database.Tx, planetID int64) (*Planet, error) {
	exec := r.getExecutor(tx)

	query := `SELECT ` + planetColumns + ` FROM planets WHERE id = $1 FOR UPDATE`

	p, err := scanPlanet(exec.QueryRowContext(ctx, query, planetID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("planet %d not found", planetID)
	}
	if err != nil {
		r.logger.Error("Failed to lock planet row", "planet_id", planetID, "error", err)
		return nil, fmt.Errorf("failed to lock planet row: %w", err)
	}
	return p, nil
}

func (r *Repository) CreatePlanet(ctx context.Context, resourceID int64, name string, x, y int, size Size, tx *database.Tx) (*Planet, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "create_planet",
		"name", name,
		"x", x,
		"y", y,
	)
	logger.Debug("Creating planet")

	query := `
		INSERT INTO planets (resource_id, user_id, name, x, y, size)
		VALUES ($1, NULL, $2, $3, $4, $5)
		RETURNING ` + planetColumns

	p, err := scanPlanet(exec.QueryRowContext(ctx, query, resourceID, name, x, y, size))
	if err != nil {
		logger.Error("Failed to create planet", "error", err)
		return nil, fmt.Errorf("failed to create planet: %w", err)
	}

	logger.Debug("Planet created successfully", "planet_id", p.ID)
	return p, nil
}

// BatchInsertRequest represents a single planet to be inserted in a batch
type BatchInsertRequest struct {
	ResourceID int64
	Name       string
	X          int
	Y          int
	Size       Size
}

// CreatePlanetsBatch creates multiple planets in a single database operation using JSON
func (r *Repository) CreatePlanetsBatch(ctx context.Context, planets []BatchInsertRequest, tx *database.Tx) ([]Planet, error) {
	if len(planets) == 0 {
		return []Planet{}, nil
	}

	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "planet_repository",
		"operation", "create_planets_batch",
		"count", len(planets),
	)
	logger.Debug("Creating planets in batch")

	planetsJSON, err := json.Marshal(planets)
	if err != nil {
		logger.Error("Failed to marshal planets to JSON", "error", err)
		return nil, fmt.Errorf("failed to marshal planets: %w", err)
	}

	query := `
		INSERT INTO planets (resource_id, user_id, name, x, y, size)
		SELECT
			(data->>'ResourceID')::bigint,
			NULL,
			data->>'Name',
			(data->>'X')::integer,
			(data->>'Y')::integer,
			(data->>'Size')::integer
		FROM json_array_elements($1::json) AS data
		RETURNING ` + planetColumns

	rows, err := exec.QueryContext(ctx, query, string(planetsJSON))
	if err != nil {
		logger.Error("Failed to batch create planets", "error", err)
		return nil, fmt.Errorf("failed to batch create planets: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var createdPlanets []Planet
	for rows.Next() {
		p, err := scanPlanet(rows)
		if err != nil {
			logger.Error("Failed to scan planet row", "error", err)
			return nil, fmt.Errorf("failed to scan planet: %w", err)
		}
		createdPlanets = append(createdPlanets, *p)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating planets: %w", err)
	}

	logger.Info("Planets batch created successfully", "count", len(createdPlanets))
	return createdPlanets, nil
}

func (r *Repository) CountPlanets(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM planets`).Scan(&count); err != nil {
		r.logger.Error("Failed to count planets", "error", err)
		return 0, fmt.Errorf("failed to count planets: %w", err)
	}
	return count, nil
}

// FindStarter locks a free small planet suitable as a new player's
// capital. SKIP LOCKED keeps concurrent signups from racing on the same
// planet.
func (r *Repository) FindStarter(ctx context.Context, tx *database.Tx) (*Planet, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT ` + planetColumns + `
		FROM planets
		WHERE user_id IS NULL AND size = $1
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	p, err := scanPlanet(exec.QueryRowContext(ctx, query, SizeSmall))
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("no starter planet available")
	}
	if err != nil {
		r.logger.Error("Failed to find starter planet", "error", err)
		return nil, fmt.Errorf("failed to find starter planet: %w", err)
	}
	return p, nil
}

func (r *Repository) SetOwner(ctx context.Context, tx *database.Tx, planetID int64, userID *int64) error {
	exec := r.getExecutor(tx)

	query := `UPDATE planets SET user_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, planetID, userID)
	if err != nil {
		r.logger.Error("Failed to set planet owner", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to set planet owner: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return errors.NotFoundf("planet %d not found", planetID)
	}
	return nil
}

func (r *Repository) SetCustomName(ctx context.Context, planetID int64, customName *string, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	query := `UPDATE planets SET custom_name = $2, updated_at = NOW() WHERE id = $1`

	if _, err := exec.ExecContext(ctx, query, planetID, customName); err != nil {
		r.logger.Error("Failed to set custom name", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to set custom name: %w", err)
	}
	return nil
}

// ClearCustomAndDerived nulls the custom name and all six derived
// attributes, returning the planet to its unowned shape.
func (r *Repository) ClearCustomAndDerived(ctx context.Context, tx *database.Tx, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `
		UPDATE planets
		SET custom_name = NULL,
			capacity = NULL,
			supply = NULL,
			mining_rate = NULL,
			production_rate = NULL,
			defense_bonus = NULL,
			construction_time_bonus = NULL,
			updated_at = NOW()
		WHERE id = $1
	`

	if _, err := exec.ExecContext(ctx, query, planetID); err != nil {
		r.logger.Error("Failed to clear planet state", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to clear planet state: %w", err)
	}
	return nil
}

// UpdateDerivedAttributes persists a recomputed aggregation result.
func (r *Repository) UpdateDerivedAttributes(ctx context.Context, tx *database.Tx, planetID int64, attrs DerivedAttributes) error {
	exec := r.getExecutor(tx)

	query := `
		UPDATE planets
		SET capacity = $2,
			supply = $3,
			mining_rate = $4,
			production_rate = $5,
			defense_bonus = $6,
			construction_time_bonus = $7,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := exec.ExecContext(ctx, query, planetID,
		attrs.Capacity,
		attrs.Supply,
		attrs.MiningRate,
		attrs.ProductionRate,
		attrs.DefenseBonus,
		attrs.ConstructionTimeBonus,
	)
	if err != nil {
		r.logger.Error("Failed to update derived attributes", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to update derived attributes: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return errors.NotFoundf("planet %d not found", planetID)
	}
	return nil
}

// ListGridBuildings returns the building and level of every non-empty grid
// on the planet.
func (r *Repository) ListGridBuildings(ctx context.Context, tx *database.Tx, planetID int64) ([]GridBuilding, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT building_id, level
		FROM grids
		WHERE planet_id = $1 AND building_id IS NOT NULL
	`

	rows, err := exec.QueryContext(ctx, query, planetID)
	if err != nil {
		r.logger.Error("Failed to query grid buildings", "planet_id", planetID, "error", err)
		return nil, fmt.Errorf("failed to query grid buildings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err)
		}
	}()

	var buildings []GridBuilding
	for rows.Next() {
		var gb GridBuilding
		if err := rows.Scan(&gb.BuildingID, &gb.Level); err != nil {
			return nil, fmt.Errorf("failed to scan grid building: %w", err)
		}
		buildings = append(buildings, gb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grid buildings: %w", err)
	}
	return buildings, nil
}

// CreateGrids seeds the buildable slots of a freshly generated planet.
func (r *Repository) CreateGrids(ctx context.Context, planetID int64, count int, tx *database.Tx) error {
	exec := r.getExecutor(tx)

	query := `
		INSERT INTO grids (planet_id, x, y)
		SELECT $1, n % $3, n / $3
		FROM generate_series(0, $2 - 1) AS n
	`

	// Slots are laid out on a square-ish grid, eight columns wide.
	if _, err := exec.ExecContext(ctx, query, planetID, count, 8); err != nil {
		r.logger.Error("Failed to create grids", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to create grids: %w", err)
	}
	return nil
}

// ResetGrids empties every slot on the planet.
func (r *Repository) ResetGrids(ctx context.Context, tx *database.Tx, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `UPDATE grids SET building_id = NULL, level = NULL WHERE planet_id = $1`

	if _, err := exec.ExecContext(ctx, query, planetID); err != nil {
		r.logger.Error("Failed to reset grids", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to reset grids: %w", err)
	}
	return nil
}

func (r *Repository) DeleteConstructions(ctx context.Context, tx *database.Tx, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `
		DELETE FROM constructions
		USING grids
		WHERE constructions.grid_id = grids.id AND grids.planet_id = $1
	`

	if _, err := exec.ExecContext(ctx, query, planetID); err != nil {
		r.logger.Error("Failed to delete constructions", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to delete constructions: %w", err)
	}
	return nil
}

func (r *Repository) DeleteUpgrades(ctx context.Context, tx *database.Tx, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `
		DELETE FROM upgrades
		USING grids
		WHERE upgrades.grid_id = grids.id AND grids.planet_id = $1
	`

	if _, err := exec.ExecContext(ctx, query, planetID); err != nil {
		r.logger.Error("Failed to delete upgrades", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to delete upgrades: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTrainings(ctx context.Context, tx *database.Tx, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `
		DELETE FROM trainings
		USING grids
		WHERE trainings.grid_id = grids.id AND grids.planet_id = $1
	`

	if _, err := exec.ExecContext(ctx, query, planetID); err != nil {
		r.logger.Error("Failed to delete trainings", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to delete trainings: %w", err)
	}
	return nil
}

func (r *Repository) DeleteMissions(ctx context.Context, tx *database.Tx, planetID int64) error {
	exec := r.getExecutor(tx)

	query := `DELETE FROM missions WHERE planet_id = $1`

	if _, err := exec.ExecContext(ctx, query, planetID); err != nil {
		r.logger.Error("Failed to delete missions", "planet_id", planetID, "error", err)
		return fmt.Errorf("failed to delete missions: %w", err)
	}
	return nil
}

// EnsureStock creates the stock row for a resource if it does not exist
// yet, with a fresh baseline. Existing rows are left untouched so repeated
// planet syncs never re-baseline an accruing stock.
func (r *Repository) EnsureStock(ctx context.Context, tx *database.Tx, planetID, resourceID int64, now time.Time) error {
	exec := r.getExecutor(tx)

	query := `
		INSERT INTO stocks (planet_id, resource_id, quantity, last_quantity_changed)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (planet_id, resource_id) DO NOTHING
	`

	if _, err := exec.ExecContext(ctx, query, planetID, resourceID, now); err != nil {
		r.logger.Error("Failed to ensure stock", "planet_id", planetID, "resource_id", resourceID, "error", err)
		return fmt.Errorf("failed to ensure stock: %w", err)
	}
	return nil
}

func scanStock(row rowScanner) (*Stock, error) {
	var s Stock
	err := row.Scan(&s.ID, &s.PlanetID, &s.ResourceID, &s.Quantity, &s.LastQuantityChanged)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetStock(ctx context.Context, planetID, resourceID int64, tx *database.Tx) (*Stock, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT id, planet_id, resource_id, quantity, last_quantity_changed
		FROM stocks
		WHERE planet_id = $1 AND resource_id = $2
	`

	s, err := scanStock(exec.QueryRowContext(ctx, query, planetID, resourceID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("stock for planet %d resource %d not found", planetID, resourceID)
	}
	if err != nil {
		r.logger.Error("Failed to get stock", "planet_id", planetID, "error", err)
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return s, nil
}

func (r *Repository) GetStockForUpdate(ctx context.Context, tx *database.Tx, planetID, resourceID int64) (*Stock, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT id, planet_id, resource_id, quantity, last_quantity_changed
		FROM stocks
		WHERE planet_id = $1 AND resource_id = $2
		FOR UPDATE
	`

	s, err := scanStock(exec.QueryRowContext(ctx, query, planetID, resourceID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("stock for planet %d resource %d not found", planetID, resourceID)
	}
	if err != nil {
		r.logger.Error("Failed to lock stock row", "planet_id", planetID, "error", err)
		return nil, fmt.Errorf("failed to lock stock row: %w", err)
	}
	return s, nil
}

// UpdateStock rebases a stock baseline. Must run inside the transaction of
// whatever business operation triggered the write.
func (r *Repository) UpdateStock(ctx context.Context, tx *database.Tx, stockID, quantity int64, now time.Time) error {
	exec := r.getExecutor(tx)

	query := `UPDATE stocks SET quantity = $2, last_quantity_changed = $3 WHERE id = $1`

	if _, err := exec.ExecContext(ctx, query, stockID, quantity, now); err != nil {
		r.logger.Error("Failed to update stock", "stock_id", stockID, "error", err)
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

func (r *Repository) GetPopulationForUpdate(ctx context.Context, tx *database.Tx, planetID, unitID int64) (*Population, error) {
	exec := r.getExecutor(tx)

	query := `
		SELECT id, planet_id, unit_id, quantity, last_quantity_changed
		FROM populations
		WHERE planet_id = $1 AND unit_id = $2
		FOR UPDATE
	`

	var p Population
	err := exec.QueryRowContext(ctx, query, planetID, unitID).Scan(
		&p.ID, &p.PlanetID, &p.UnitID, &p.Quantity, &p.LastQuantityChanged,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("population for planet %d unit %d not found", planetID, unitID)
	}
	if err != nil {
		r.logger.Error("Failed to lock population row", "planet_id", planetID, "error", err)
		return nil, fmt.Errorf("failed to lock population row: %w", err)
	}
	return &p, nil
}

// UpsertPopulation writes a rebased population count, creating the row on
// first increment.
func (r *Repository) UpsertPopulation(ctx context.Context, tx *database.Tx, planetID, unitID, quantity int64, now time.Time) error {
	exec := r.getExecutor(tx)

	query := `
		INSERT INTO populations (planet_id, unit_id, quantity, last_quantity_changed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (planet_id, unit_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, last_quantity_changed = EXCLUDED.last_quantity_changed
	`

	if _, err := exec.ExecContext(ctx, query, planetID, unitID, quantity, now); err != nil {
		r.logger.Error("Failed to upsert population", "planet_id", planetID, "unit_id", unitID, "error", err)
		return fmt.Errorf("failed to upsert population: %w", err)
	}
	return nil
}
