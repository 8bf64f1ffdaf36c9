package world

import (
	"testing"

	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostGenerator_DeterministicCosts(t *testing.T) {
	a := newTestGrid(t, 24, 24, 1, projection.Orthogonal)
	b := newTestGrid(t, 24, 24, 1, projection.Orthogonal)

	gen := NewCostGenerator(777)
	blockedA := gen.Apply(a, LayerGround)
	blockedB := gen.Apply(b, LayerGround)
	assert.Equal(t, blockedA, blockedB)

	snapA, _ := a.LayerSnapshot(LayerGround)
	snapB, _ := b.LayerSnapshot(LayerGround)
	require.Equal(t, snapA, snapB)

	for _, rec := range snapA {
		assert.GreaterOrEqual(t, rec.Cost, DefaultCost)
		assert.LessOrEqual(t, rec.Cost, gen.MaxCost)
		assert.Equal(t, rec.Blocked, !rec.Navigable)
	}
}

func TestCostGenerator_NoThresholdNoWalls(t *testing.T) {
	g := newTestGrid(t, 16, 16, 2, projection.HexAxial)

	gen := &CostGenerator{Seed: 1, NoiseScale: 0.2, MaxCost: 3}
	assert.Zero(t, gen.Apply(g, LayerSky))

	// Несуществующий слой - ничего не пишется
	rev := g.Revision()
	assert.Zero(t, gen.Apply(g, LayerVolume))
	assert.Equal(t, rev, g.Revision())
}
