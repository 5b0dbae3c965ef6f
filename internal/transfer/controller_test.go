package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTx(ctx context.Context, fn func(tx *database.Tx) error) error {
	return fn(nil)
}

type fakePlanetStore struct {
	planet *planet.Planet

	cleared             bool
	gridsReset          bool
	constructionsPurged bool
	upgradesPurged      bool
	trainingsPurged     bool
	missionsPurged      bool
	ownerSet            bool
	owner               *int64

	failResetGrids bool
}

func (f *fakePlanetStore) GetPlanetForUpdate(ctx context.Context, tx *database.Tx, planetID int64) (*planet.Planet, error) {
	cloned := *f.planet
	return &cloned, nil
}

func (f *fakePlanetStore) ClearCustomAndDerived(ctx context.Context, tx *database.Tx, planetID int64) error {
	f.cleared = true
	return nil
}

func (f *fakePlanetStore) ResetGrids(ctx context.Context, tx *database.Tx, planetID int64) error {
	if f.failResetGrids {
		return fmt.Errorf("reset grids boom")
	}
	f.gridsReset = true
	return nil
}

func (f *fakePlanetStore) DeleteConstructions(ctx context.Context, tx *database.Tx, planetID int64) error {
	f.constructionsPurged = true
	return nil
}

func (f *fakePlanetStore) DeleteUpgrades(ctx context.Context, tx *database.Tx, planetID int64) error {
	f.upgradesPurged = true
	return nil
}

func (f *fakePlanetStore) DeleteTrainings(ctx context.Context, tx *database.Tx, planetID int64) error {
	f.trainingsPurged = true
	return nil
}

func (f *fakePlanetStore) DeleteMissions(ctx context.Context, tx *database.Tx, planetID int64) error {
	f.missionsPurged = true
	return nil
}

func (f *fakePlanetStore) SetOwner(ctx context.Context, tx *database.Tx, planetID int64, userID *int64) error {
	f.ownerSet = true
	f.owner = userID
	f.planet.UserID = userID
	return nil
}

type fakeMovementStore struct {
	purgedPlanet int64
	purgedUser   int64
	purged       bool
}

func (f *fakeMovementStore) DeleteByPlanetAndOwner(ctx context.Context, tx *database.Tx, planetID, userID int64) error {
	f.purged = true
	f.purgedPlanet = planetID
	f.purgedUser = userID
	return nil
}

type fakePlayerStore struct {
	currentID *int64
	capitalID *int64

	redirected   bool
	redirectedTo *int64
}

func (f *fakePlayerStore) CurrentAndCapital(ctx context.Context, tx *database.Tx, playerID int64) (*int64, *int64, error) {
	return f.currentID, f.capitalID, nil
}

func (f *fakePlayerStore) SetCurrentPlanet(ctx context.Context, tx *database.Tx, playerID int64, planetID *int64) error {
	f.redirected = true
	f.redirectedTo = planetID
	return nil
}

type fakeSyncer struct {
	userInTx      []int64
	syncedPlanets []int64
	syncedUsers   []int64

	failSyncPlanet bool
}

func (f *fakeSyncer) SyncUserInTx(ctx context.Context, tx *database.Tx, playerID int64) error {
	f.userInTx = append(f.userInTx, playerID)
	return nil
}

func (f *fakeSyncer) SyncPlanet(ctx context.Context, planetID int64) error {
	if f.failSyncPlanet {
		return fmt.Errorf("sync planet boom")
	}
	f.syncedPlanets = append(f.syncedPlanets, planetID)
	return nil
}

func (f *fakeSyncer) SyncUser(ctx context.Context, playerID int64) error {
	f.syncedUsers = append(f.syncedUsers, playerID)
	return nil
}

type fakeNotifier struct {
	planetUpdates []int64
	battleLogs    []int64
}

func (f *fakeNotifier) PlanetUpdated(ctx context.Context, planetID int64) {
	f.planetUpdates = append(f.planetUpdates, planetID)
}

func (f *fakeNotifier) BattleLogCreated(ctx context.Context, battleLogID, userID int64) {
	f.battleLogs = append(f.battleLogs, battleLogID)
}

func int64ptr(v int64) *int64 {
	return &v
}

func newTestController(planets *fakePlanetStore, movements *fakeMovementStore, players *fakePlayerStore, syncer *fakeSyncer, notifier *fakeNotifier) *Controller {
	return NewController(fakeTxRunner{}, planets, movements, players, syncer, notifier, slog.Default())
}

func TestTransferCascadesPreviousOwner(t *testing.T) {
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5, UserID: int64ptr(1)}}
	movements := &fakeMovementStore{}
	players := &fakePlayerStore{currentID: int64ptr(5), capitalID: int64ptr(9)}
	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{}

	c := newTestController(planets, movements, players, syncer, notifier)
	require.NoError(t, c.Transfer(context.Background(), 5, int64ptr(2)))

	assert.True(t, planets.cleared, "custom name and derived attributes must be nulled")
	assert.True(t, movements.purged)
	assert.Equal(t, int64(5), movements.purgedPlanet)
	assert.Equal(t, int64(1), movements.purgedUser)
	assert.True(t, planets.constructionsPurged)
	assert.True(t, planets.upgradesPurged)
	assert.True(t, planets.trainingsPurged)
	assert.True(t, planets.missionsPurged)
	assert.True(t, planets.gridsReset)

	require.True(t, planets.ownerSet)
	require.NotNil(t, planets.owner)
	assert.Equal(t, int64(2), *planets.owner)

	assert.Equal(t, []int64{1}, syncer.userInTx, "previous owner synced inside the transaction")
	assert.Equal(t, []int64{5}, syncer.syncedPlanets, "planet synced for the new owner after commit")
	assert.Equal(t, []int64{2}, syncer.syncedUsers)

	assert.Equal(t, []int64{5}, notifier.planetUpdates)
}

func TestTransferRedirectsCurrentPlanet(t *testing.T) {
	players := &fakePlayerStore{currentID: int64ptr(5), capitalID: int64ptr(9)}
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5, UserID: int64ptr(1)}}

	c := newTestController(planets, &fakeMovementStore{}, players, &fakeSyncer{}, &fakeNotifier{})
	require.NoError(t, c.Transfer(context.Background(), 5, nil))

	require.True(t, players.redirected)
	require.NotNil(t, players.redirectedTo)
	assert.Equal(t, int64(9), *players.redirectedTo, "current planet falls back to the capital")
}

func TestTransferLeavesUnrelatedCurrentPlanet(t *testing.T) {
	players := &fakePlayerStore{currentID: int64ptr(3), capitalID: int64ptr(9)}
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5, UserID: int64ptr(1)}}

	c := newTestController(planets, &fakeMovementStore{}, players, &fakeSyncer{}, &fakeNotifier{})
	require.NoError(t, c.Transfer(context.Background(), 5, int64ptr(2)))

	assert.False(t, players.redirected)
}

func TestTransferAbandonment(t *testing.T) {
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5, UserID: int64ptr(1)}}
	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{}

	c := newTestController(planets, &fakeMovementStore{}, &fakePlayerStore{}, syncer, notifier)
	require.NoError(t, c.Transfer(context.Background(), 5, nil))

	assert.True(t, planets.gridsReset, "abandonment still runs the cascade")
	require.True(t, planets.ownerSet)
	assert.Nil(t, planets.owner)

	assert.Equal(t, []int64{1}, syncer.userInTx)
	assert.Empty(t, syncer.syncedPlanets, "no new owner to sync")
	assert.Empty(t, syncer.syncedUsers)
	assert.Equal(t, []int64{5}, notifier.planetUpdates, "notification fires regardless of new owner")
}

func TestTransferFromNeutralSkipsCascade(t *testing.T) {
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5}}
	movements := &fakeMovementStore{}
	syncer := &fakeSyncer{}

	c := newTestController(planets, movements, &fakePlayerStore{}, syncer, &fakeNotifier{})
	require.NoError(t, c.Transfer(context.Background(), 5, int64ptr(2)))

	assert.False(t, planets.cleared)
	assert.False(t, movements.purged)
	assert.Empty(t, syncer.userInTx)

	assert.Equal(t, []int64{5}, syncer.syncedPlanets)
	assert.Equal(t, []int64{2}, syncer.syncedUsers)
}

func TestTransferSameOwnerIsNoOp(t *testing.T) {
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5, UserID: int64ptr(2)}}
	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{}

	c := newTestController(planets, &fakeMovementStore{}, &fakePlayerStore{}, syncer, notifier)
	require.NoError(t, c.Transfer(context.Background(), 5, int64ptr(2)))

	assert.False(t, planets.ownerSet)
	assert.Empty(t, syncer.syncedPlanets)
	assert.Empty(t, notifier.planetUpdates)
}

func TestTransferSurvivesPostCommitSyncFailure(t *testing.T) {
	planets := &fakePlanetStore{planet: &planet.Planet{ID: 5, UserID: int64ptr(1)}}
	syncer := &fakeSyncer{failSyncPlanet: true}
	notifier := &fakeNotifier{}

	c := newTestController(planets, &fakeMovementStore{}, &fakePlayerStore{}, syncer, notifier)
	require.NoError(t, c.Transfer(context.Background(), 5, int64ptr(2)),
		"ownership is committed; a failed sync must not surface as a transfer failure")

	require.True(t, planets.ownerSet)
	assert.Equal(t, []int64{2}, syncer.syncedUsers, "user sync still runs after a failed planet sync")
	assert.Equal(t, []int64{5}, notifier.planetUpdates, "notification still fires")
}

func TestTransferAbortsOnCascadeFailure(t *testing.T) {
	planets := &fakePlanetStore{
		planet:         &planet.Planet{ID: 5, UserID: int64ptr(1)},
		failResetGrids: true,
	}
	syncer := &fakeSyncer{}
	notifier := &fakeNotifier{}

	c := newTestController(planets, &fakeMovementStore{}, &fakePlayerStore{currentID: int64ptr(3)}, syncer, notifier)
	err := c.Transfer(context.Background(), 5, int64ptr(2))

	require.Error(t, err)
	assert.False(t, planets.ownerSet, "ownership write must not happen after a failed cascade step")
	assert.Empty(t, syncer.syncedPlanets)
	assert.Empty(t, notifier.planetUpdates)
}
