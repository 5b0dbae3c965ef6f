package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
buildings:
  - id: 1
    name: Central Plaza
    levels:
      1:
        capacity: 1000
        supply: 500
        production_rate: 100
      2:
        capacity: 2000
        supply: 800
        production_rate: 180
  - id: 2
    name: Mining Rig
    levels:
      1:
        mining_rate: 60
        construction_time_bonus: 0.05
  - id: 3
    name: Defense Turret
    levels:
      1:
        defense_bonus: 0.1
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	effects, ok := c.Effects(1, 2)
	require.True(t, ok)
	assert.Equal(t, int64(2000), effects.Capacity)
	assert.Equal(t, int64(800), effects.Supply)
	assert.Equal(t, int64(180), effects.ProductionRate)
	assert.Zero(t, effects.MiningRate)

	effects, ok = c.Effects(2, 1)
	require.True(t, ok)
	assert.Equal(t, int64(60), effects.MiningRate)
	assert.InDelta(t, 0.05, effects.ConstructionTimeBonus, 1e-9)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("buildings:\n  - id: 0\n    name: Broken\n    levels:\n      1: {}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("buildings:\n  - id: 1\n    name: NoLevels\n"))
	assert.Error(t, err)

	dup := `
buildings:
  - id: 1
    name: A
    levels:
      1: {}
  - id: 1
    name: B
    levels:
      1: {}
`
	_, err = Parse([]byte(dup))
	assert.Error(t, err)
}

func TestEffectsLookupMisses(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	_, ok := c.Effects(99, 1)
	assert.False(t, ok, "unknown building id")

	_, ok = c.Effects(1, 99)
	assert.False(t, ok, "unknown level")
}

func TestEffectsAdd(t *testing.T) {
	a := Effects{Capacity: 100, Supply: 50, MiningRate: 10, ProductionRate: 5, DefenseBonus: 0.1, ConstructionTimeBonus: 0.02}
	b := Effects{Capacity: 200, Supply: 25, MiningRate: 20, ProductionRate: 15, DefenseBonus: 0.05, ConstructionTimeBonus: 0.03}

	sum := a.Add(b)
	assert.Equal(t, int64(300), sum.Capacity)
	assert.Equal(t, int64(75), sum.Supply)
	assert.Equal(t, int64(30), sum.MiningRate)
	assert.Equal(t, int64(20), sum.ProductionRate)
	assert.InDelta(t, 0.15, sum.DefenseBonus, 1e-9)
	assert.InDelta(t, 0.05, sum.ConstructionTimeBonus, 1e-9)
}
