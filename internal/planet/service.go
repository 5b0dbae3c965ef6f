package planet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/accrual"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
)

// StockStore is the slice of the repository the service writes through.
type StockStore interface {
	GetStockForUpdate(ctx context.Context, tx *database.Tx, planetID, resourceID int64) (*Stock, error)
	UpdateStock(ctx context.Context, tx *database.Tx, stockID, quantity int64, now time.Time) error
	GetPopulationForUpdate(ctx context.Context, tx *database.Tx, planetID, unitID int64) (*Population, error)
	UpsertPopulation(ctx context.Context, tx *database.Tx, planetID, unitID, quantity int64, now time.Time) error
}

// Service exposes the accrual-aware read and write operations on planet
// stocks and populations. Reads never mutate storage; every write resolves
// the effective quantity first and rebases the baseline to now.
type Service struct {
	store  StockStore
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(store StockStore, clk clock.Clock, logger *slog.Logger) *Service {
	logger.Debug("Initializing planet service")

	return &Service{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

// StockQuantity resolves the effective quantity of a stock at this instant
// using the planet's mining rate and capacity. Pure read, lock-free.
func (s *Service) StockQuantity(p *Planet, stock *Stock) int64 {
	var rate float64
	if p.MiningRate != nil {
		rate = accrual.PerHour(*p.MiningRate)
	}
	return accrual.Quantity(stock.Quantity, rate, stock.LastQuantityChanged, s.clock.Now(), p.Capacity)
}

// AdjustStock applies a delta to the planet's primary resource stock. The
// effective quantity is resolved under the stock row lock before the delta
// is applied; a withdrawal past zero is rejected as a validation error.
// Must run inside the transaction of the triggering business operation.
func (s *Service) AdjustStock(ctx context.Context, tx *database.Tx, p *Planet, delta int64) (int64, error) {
	logger := s.logger.With(
		"component", "planet_service",
		"operation", "adjust_stock",
		"planet_id", p.ID,
		"delta", delta,
	)

	stock, err := s.store.GetStockForUpdate(ctx, tx, p.ID, p.ResourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load stock: %w", err)
	}

	now := s.clock.Now()
	effective := s.effectiveStock(p, stock, now)

	updated := effective + delta
	if updated < 0 {
		logger.Warn("Stock withdrawal rejected", "effective", effective)
		return 0, errors.Validationf("insufficient stock: have %d, need %d", effective, -delta)
	}
	if p.Capacity != nil && updated > *p.Capacity {
		updated = *p.Capacity
	}

	if err := s.store.UpdateStock(ctx, tx, stock.ID, updated, now); err != nil {
		return 0, err
	}

	logger.Debug("Stock adjusted", "quantity", updated)
	return updated, nil
}

// DrainStock removes up to amount from the planet's primary resource
// stock, clamping at zero instead of rejecting. Combat losses use this
// path: the recorded loss may exceed what is effectively present by the
// time the battle resolves, and that must never fail the resolution.
func (s *Service) DrainStock(ctx context.Context, tx *database.Tx, p *Planet, amount int64) (int64, error) {
	logger := s.logger.With(
		"component", "planet_service",
		"operation", "drain_stock",
		"planet_id", p.ID,
		"amount", amount,
	)

	if amount < 0 {
		return 0, errors.Validationf("drain amount must not be negative")
	}

	stock, err := s.store.GetStockForUpdate(ctx, tx, p.ID, p.ResourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load stock: %w", err)
	}

	now := s.clock.Now()
	effective := s.effectiveStock(p, stock, now)

	updated := effective - amount
	if updated < 0 {
		logger.Debug("Drain clamped to zero", "effective", effective)
		updated = 0
	}

	if err := s.store.UpdateStock(ctx, tx, stock.ID, updated, now); err != nil {
		return 0, err
	}

	logger.Debug("Stock drained", "quantity", updated)
	return updated, nil
}

func (s *Service) effectiveStock(p *Planet, stock *Stock, now time.Time) int64 {
	var rate float64
	if p.MiningRate != nil {
		rate = accrual.PerHour(*p.MiningRate)
	}
	return accrual.Quantity(stock.Quantity, rate, stock.LastQuantityChanged, now, p.Capacity)
}

// IncrementPopulation applies a delta to a unit's population count,
// creating the row on first increment. Combat losses pass a negative
// delta; the count is floored at zero.
func (s *Service) IncrementPopulation(ctx context.Context, tx *database.Tx, p *Planet, unitID, delta int64) error {
	logger := s.logger.With(
		"component", "planet_service",
		"operation", "increment_population",
		"planet_id", p.ID,
		"unit_id", unitID,
		"delta", delta,
	)

	now := s.clock.Now()

	current := int64(0)
	pop, err := s.store.GetPopulationForUpdate(ctx, tx, p.ID, unitID)
	if err != nil && !errors.IsNotFound(err) {
		return fmt.Errorf("failed to load population: %w", err)
	}
	if err == nil {
		current = accrual.Quantity(pop.Quantity, 0, pop.LastQuantityChanged, now, p.Supply)
	}

	updated := current + delta
	if updated < 0 {
		updated = 0
	}
	if p.Supply != nil && updated > *p.Supply {
		logger.Warn("Population increment clamped to supply", "supply", *p.Supply)
		updated = *p.Supply
	}

	if err := s.store.UpsertPopulation(ctx, tx, p.ID, unitID, updated, now); err != nil {
		return err
	}

	logger.Debug("Population updated", "quantity", updated)
	return nil
}
