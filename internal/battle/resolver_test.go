package battle

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/movement"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTx(ctx context.Context, fn func(tx *database.Tx) error) error {
	return fn(nil)
}

type fakeMovementStore struct {
	movements map[int64]*movement.Movement
	deleted   []int64
}

func (f *fakeMovementStore) GetMovementForUpdate(ctx context.Context, tx *database.Tx, movementID int64) (*movement.Movement, error) {
	mv, ok := f.movements[movementID]
	if !ok {
		return nil, errors.NotFoundf("movement %d not found", movementID)
	}
	cloned := *mv
	return &cloned, nil
}

func (f *fakeMovementStore) DeleteMovement(ctx context.Context, tx *database.Tx, movementID int64) error {
	delete(f.movements, movementID)
	f.deleted = append(f.deleted, movementID)
	return nil
}

type fakePlanetStore struct {
	planets map[int64]*planet.Planet
}

func (f *fakePlanetStore) GetPlanet(ctx context.Context, planetID int64, tx *database.Tx) (*planet.Planet, error) {
	p, ok := f.planets[planetID]
	if !ok {
		return nil, errors.NotFoundf("planet %d not found", planetID)
	}
	cloned := *p
	return &cloned, nil
}

type fakeLogStore struct {
	logs   []*Log
	nextID int64
}

func (f *fakeLogStore) CreateLog(ctx context.Context, tx *database.Tx, log *Log) error {
	f.nextID++
	log.ID = f.nextID
	cloned := *log
	f.logs = append(f.logs, &cloned)
	return nil
}

type populationChange struct {
	planetID int64
	unitID   int64
	delta    int64
}

type fakeAftermath struct {
	drained     []int64
	populations []populationChange
}

func (f *fakeAftermath) DrainStock(ctx context.Context, tx *database.Tx, p *planet.Planet, amount int64) (int64, error) {
	f.drained = append(f.drained, amount)
	return 0, nil
}

func (f *fakeAftermath) IncrementPopulation(ctx context.Context, tx *database.Tx, p *planet.Planet, unitID, delta int64) error {
	f.populations = append(f.populations, populationChange{planetID: p.ID, unitID: unitID, delta: delta})
	return nil
}

type notification struct {
	battleLogID int64
	userID      int64
}

type fakeNotifier struct {
	battleLogs    []notification
	planetUpdates []int64
}

func (f *fakeNotifier) PlanetUpdated(ctx context.Context, planetID int64) {
	f.planetUpdates = append(f.planetUpdates, planetID)
}

func (f *fakeNotifier) BattleLogCreated(ctx context.Context, battleLogID, userID int64) {
	f.battleLogs = append(f.battleLogs, notification{battleLogID: battleLogID, userID: userID})
}

func int64ptr(v int64) *int64 {
	return &v
}

func strptr(s string) *string {
	return &s
}

func winnerPtr(w Winner) *Winner {
	return &w
}

type fixture struct {
	resolver  *Resolver
	movements *fakeMovementStore
	planets   *fakePlanetStore
	logs      *fakeLogStore
	aftermath *fakeAftermath
	notifier  *fakeNotifier
}

// newFixture sets up movement 1 from planet 10 (owned by player 1) to
// planet 20, whose owner varies per test.
func newFixture(movementType movement.Type, defenderID *int64) *fixture {
	movements := &fakeMovementStore{movements: map[int64]*movement.Movement{
		1: {ID: 1, StartID: 10, EndID: 20, UserID: 1, Type: movementType},
	}}
	planets := &fakePlanetStore{planets: map[int64]*planet.Planet{
		10: {ID: 10, Name: "Keslan", ResourceID: 3, UserID: int64ptr(1)},
		20: {ID: 20, Name: "Obyran", ResourceID: 3, UserID: defenderID},
	}}
	logs := &fakeLogStore{}
	aftermath := &fakeAftermath{}
	notifier := &fakeNotifier{}

	return &fixture{
		resolver:  NewResolver(fakeTxRunner{}, movements, planets, logs, aftermath, notifier, slog.Default()),
		movements: movements,
		planets:   planets,
		logs:      logs,
		aftermath: aftermath,
		notifier:  notifier,
	}
}

func (f *fixture) notifiedUsers() []int64 {
	users := make([]int64, 0, len(f.notifier.battleLogs))
	for _, n := range f.notifier.battleLogs {
		users = append(users, n.userID)
	}
	return users
}

func TestScoutWithoutDefenderNotifiesAttackerOnly(t *testing.T) {
	f := newFixture(movement.TypeScout, nil)

	log, err := f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.Equal(t, WinnerAttacker, log.Winner)
	assert.Nil(t, log.DefenderID)
	assert.Equal(t, []int64{1}, f.notifiedUsers())
}

func TestScoutDefenderWinsNotifiesBoth(t *testing.T) {
	f := newFixture(movement.TypeScout, int64ptr(2))

	log, err := f.resolver.CreateFrom(context.Background(), 1, Report{Winner: winnerPtr(WinnerDefender)})
	require.NoError(t, err)

	assert.Equal(t, WinnerDefender, log.Winner)
	assert.Equal(t, []int64{1, 2}, f.notifiedUsers(), "a failed scout reveals itself to the defender")
}

func TestScoutAttackerWinsStaysSilentToDefender(t *testing.T) {
	f := newFixture(movement.TypeScout, int64ptr(2))

	_, err := f.resolver.CreateFrom(context.Background(), 1, Report{Winner: winnerPtr(WinnerAttacker)})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, f.notifiedUsers(), "a successful scout stays silent to the defender")
}

func TestAttackNotifiesBothRegardlessOfOutcome(t *testing.T) {
	for _, winner := range []Winner{WinnerAttacker, WinnerDefender} {
		f := newFixture(movement.TypeAttack, int64ptr(2))

		_, err := f.resolver.CreateFrom(context.Background(), 1, Report{Winner: winnerPtr(winner)})
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 2}, f.notifiedUsers(), "winner %s", winner)
	}
}

func TestOccupyUnownedDefaultsWinnerToAttacker(t *testing.T) {
	f := newFixture(movement.TypeOccupy, nil)

	log, err := f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.NoError(t, err)

	assert.Equal(t, WinnerAttacker, log.Winner)
	assert.Equal(t, []int64{1}, f.notifiedUsers())
}

func TestCreateFromSnapshotsDisplayNames(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))
	f.planets.planets[10].CustomName = strptr("Homestead")

	log, err := f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.NoError(t, err)

	assert.Equal(t, "Homestead", log.StartName)
	assert.Equal(t, "Obyran", log.EndName)

	// A later rename must not change what was recorded.
	f.planets.planets[20].CustomName = strptr("Renamed")
	assert.Equal(t, "Obyran", f.logs.logs[0].EndName)
}

func TestCreateFromCarriesLineItems(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))

	report := Report{
		Units: []UnitLine{
			{UnitID: 1, Side: SideAttacker, Quantity: 50, Losses: 10},
			{UnitID: 2, Side: SideDefender, Quantity: 30, Losses: 30},
		},
		Buildings: []BuildingLine{{BuildingID: 6, Level: 2, Losses: 1}},
		Resources: []ResourceLine{{ResourceID: 3, Quantity: 900, Losses: 400}},
	}

	log, err := f.resolver.CreateFrom(context.Background(), 1, report)
	require.NoError(t, err)

	assert.Len(t, log.Units, 2)
	assert.Equal(t, SideDefender, log.Units[1].Side)
	assert.Len(t, log.Buildings, 1)
	assert.Len(t, log.Resources, 1)
}

func TestCreateFromAppliesDefenderLosses(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))

	report := Report{
		Units: []UnitLine{
			{UnitID: 1, Side: SideAttacker, Quantity: 50, Losses: 10},
			{UnitID: 2, Side: SideDefender, Quantity: 30, Losses: 25},
		},
		Resources: []ResourceLine{{ResourceID: 3, Quantity: 900, Losses: 400}},
	}

	_, err := f.resolver.CreateFrom(context.Background(), 1, report)
	require.NoError(t, err)

	require.Len(t, f.aftermath.populations, 1, "attacker-side losses never touch the planet")
	assert.Equal(t, populationChange{planetID: 20, unitID: 2, delta: -25}, f.aftermath.populations[0])
	assert.Equal(t, []int64{400}, f.aftermath.drained)
}

func TestCreateFromSkipsLossesOnUnownedPlanet(t *testing.T) {
	f := newFixture(movement.TypeOccupy, nil)

	report := Report{
		Units:     []UnitLine{{UnitID: 2, Side: SideDefender, Quantity: 5, Losses: 5}},
		Resources: []ResourceLine{{ResourceID: 3, Quantity: 100, Losses: 100}},
	}

	_, err := f.resolver.CreateFrom(context.Background(), 1, report)
	require.NoError(t, err)

	assert.Empty(t, f.aftermath.populations)
	assert.Empty(t, f.aftermath.drained)
}

func TestCreateFromSkipsForeignResourceLines(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))

	report := Report{
		Resources: []ResourceLine{{ResourceID: 9, Quantity: 100, Losses: 50}},
	}

	_, err := f.resolver.CreateFrom(context.Background(), 1, report)
	require.NoError(t, err)

	assert.Empty(t, f.aftermath.drained)
}

func TestCreateFromDeletesMovement(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))

	_, err := f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, f.movements.deleted)
}

func TestCreateFromMissingMovementIsIdempotentNoOp(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))

	log, err := f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.NoError(t, err)
	require.NotNil(t, log)

	// Second delivery of the same arrival event.
	log, err = f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.NoError(t, err)
	assert.Nil(t, log)
	assert.Len(t, f.logs.logs, 1, "no duplicate battle log")
	assert.Equal(t, []int64{1, 2}, f.notifiedUsers(), "no duplicate notifications")
}

func TestCreateFromUnownedOriginIsRejected(t *testing.T) {
	f := newFixture(movement.TypeAttack, int64ptr(2))
	f.planets.planets[10].UserID = nil

	_, err := f.resolver.CreateFrom(context.Background(), 1, Report{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, f.logs.logs)
	assert.Empty(t, f.notifier.battleLogs)
}
