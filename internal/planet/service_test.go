package planet

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
)

type stockWrite struct {
	stockID  int64
	quantity int64
	at       time.Time
}

type popWrite struct {
	planetID int64
	unitID   int64
	quantity int64
	at       time.Time
}

type fakeStockStore struct {
	stock       *Stock
	population  *Population
	stockWrites []stockWrite
	popWrites   []popWrite
}

func (f *fakeStockStore) GetStockForUpdate(ctx context.Context, tx *database.Tx, planetID, resourceID int64) (*Stock, error) {
	if f.stock == nil {
		return nil, errors.NotFoundf("stock for planet %d not found", planetID)
	}
	cloned := *f.stock
	return &cloned, nil
}

func (f *fakeStockStore) UpdateStock(ctx context.Context, tx *database.Tx, stockID, quantity int64, now time.Time) error {
	f.stockWrites = append(f.stockWrites, stockWrite{stockID: stockID, quantity: quantity, at: now})
	return nil
}

func (f *fakeStockStore) GetPopulationForUpdate(ctx context.Context, tx *database.Tx, planetID, unitID int64) (*Population, error) {
	if f.population == nil {
		return nil, errors.NotFoundf("population for unit %d not found", unitID)
	}
	cloned := *f.population
	return &cloned, nil
}

func (f *fakeStockStore) UpsertPopulation(ctx context.Context, tx *database.Tx, planetID, unitID, quantity int64, now time.Time) error {
	f.popWrites = append(f.popWrites, popWrite{planetID: planetID, unitID: unitID, quantity: quantity, at: now})
	return nil
}

func ptr64(v int64) *int64 {
	return &v
}

// serviceFixture: planet 10 mining 3600/hr (one unit per second), stock
// baseline 100 set one minute before the fixed instant, so the effective
// quantity is 160 unless capacity intervenes.
func serviceFixture() (*Service, *fakeStockStore, time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStockStore{
		stock: &Stock{
			ID:                  7,
			PlanetID:            10,
			ResourceID:          3,
			Quantity:            100,
			LastQuantityChanged: now.Add(-time.Minute),
		},
	}
	return NewService(store, clock.NewFixed(now), slog.Default()), store, now
}

func fixturePlanet(capacity, supply *int64) *Planet {
	return &Planet{
		ID:         10,
		ResourceID: 3,
		UserID:     ptr64(2),
		MiningRate: ptr64(3600),
		Capacity:   capacity,
		Supply:     supply,
	}
}

func TestAdjustStockRebasesBaselineToNow(t *testing.T) {
	svc, store, now := serviceFixture()
	p := fixturePlanet(nil, nil)

	quantity, err := svc.AdjustStock(context.Background(), nil, p, -50)
	require.NoError(t, err)

	assert.Equal(t, int64(110), quantity, "resolved 160 effective minus 50")
	require.Len(t, store.stockWrites, 1)
	assert.Equal(t, stockWrite{stockID: 7, quantity: 110, at: now}, store.stockWrites[0])
}

func TestAdjustStockRejectsWithdrawalPastZero(t *testing.T) {
	svc, store, _ := serviceFixture()
	p := fixturePlanet(nil, nil)

	_, err := svc.AdjustStock(context.Background(), nil, p, -200)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, store.stockWrites, "a rejected withdrawal writes nothing")
}

func TestAdjustStockClampsToCapacity(t *testing.T) {
	svc, store, _ := serviceFixture()
	p := fixturePlanet(ptr64(120), nil)

	quantity, err := svc.AdjustStock(context.Background(), nil, p, 50)
	require.NoError(t, err)

	assert.Equal(t, int64(120), quantity)
	require.Len(t, store.stockWrites, 1)
	assert.Equal(t, int64(120), store.stockWrites[0].quantity)
}

func TestDrainStockRemovesAmount(t *testing.T) {
	svc, store, now := serviceFixture()
	p := fixturePlanet(nil, nil)

	quantity, err := svc.DrainStock(context.Background(), nil, p, 60)
	require.NoError(t, err)

	assert.Equal(t, int64(100), quantity)
	require.Len(t, store.stockWrites, 1)
	assert.Equal(t, stockWrite{stockID: 7, quantity: 100, at: now}, store.stockWrites[0])
}

func TestDrainStockClampsAtZero(t *testing.T) {
	svc, store, _ := serviceFixture()
	p := fixturePlanet(nil, nil)

	quantity, err := svc.DrainStock(context.Background(), nil, p, 400)
	require.NoError(t, err, "a drain past zero clamps instead of failing")

	assert.Equal(t, int64(0), quantity)
	require.Len(t, store.stockWrites, 1)
	assert.Equal(t, int64(0), store.stockWrites[0].quantity)
}

func TestDrainStockRejectsNegativeAmount(t *testing.T) {
	svc, store, _ := serviceFixture()
	p := fixturePlanet(nil, nil)

	_, err := svc.DrainStock(context.Background(), nil, p, -10)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, store.stockWrites)
}

func TestIncrementPopulationCreatesRowOnFirstIncrement(t *testing.T) {
	svc, store, now := serviceFixture()
	p := fixturePlanet(nil, ptr64(50))

	err := svc.IncrementPopulation(context.Background(), nil, p, 4, 30)
	require.NoError(t, err)

	require.Len(t, store.popWrites, 1)
	assert.Equal(t, popWrite{planetID: 10, unitID: 4, quantity: 30, at: now}, store.popWrites[0])
}

func TestIncrementPopulationFloorsAtZero(t *testing.T) {
	svc, store, _ := serviceFixture()
	store.population = &Population{ID: 9, PlanetID: 10, UnitID: 4, Quantity: 10}
	p := fixturePlanet(nil, ptr64(50))

	err := svc.IncrementPopulation(context.Background(), nil, p, 4, -25)
	require.NoError(t, err)

	require.Len(t, store.popWrites, 1)
	assert.Equal(t, int64(0), store.popWrites[0].quantity)
}

func TestIncrementPopulationClampsToSupply(t *testing.T) {
	svc, store, _ := serviceFixture()
	store.population = &Population{ID: 9, PlanetID: 10, UnitID: 4, Quantity: 40}
	p := fixturePlanet(nil, ptr64(50))

	err := svc.IncrementPopulation(context.Background(), nil, p, 4, 30)
	require.NoError(t, err)

	require.Len(t, store.popWrites, 1)
	assert.Equal(t, int64(50), store.popWrites[0].quantity)
}

func TestStockQuantityIsPureRead(t *testing.T) {
	svc, store, _ := serviceFixture()
	p := fixturePlanet(nil, nil)

	quantity := svc.StockQuantity(p, store.stock)
	assert.Equal(t, int64(160), quantity)
	assert.Empty(t, store.stockWrites)
}
