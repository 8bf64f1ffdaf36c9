package main

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-navgrid/internal/navigation"
	"github.com/annel0/mmo-navgrid/internal/pathfind"
	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/world"
)

func TestRunIsDeterministic(t *testing.T) {
	build := func() *navigation.Navigator {
		g := world.NewGrid()
		require.NoError(t, g.Initialize(world.GridOptions{
			Width: 24, Height: 24, Projection: projection.HexAxial, CellW: 16, CellH: 16, Layers: 1,
		}))
		world.NewCostGenerator(5).Apply(g, world.LayerGround)
		return navigation.New(g)
	}

	a := run(build(), 40, pathfind.DefaultMaxIterations, rand.New(rand.NewSource(9)))
	b := run(build(), 40, pathfind.DefaultMaxIterations, rand.New(rand.NewSource(9)))

	assert.Equal(t, 40, a.total)
	assert.Equal(t, a.byStatus, b.byStatus)
	assert.Equal(t, a.iterations, b.iterations)
	assert.Zero(t, a.byStatus[pathfind.StatusIterationLimit])

	var out bytes.Buffer
	a.print(&out)
	assert.Contains(t, out.String(), "searches: 40")
	assert.Contains(t, out.String(), "found:")
}

func TestPercentile(t *testing.T) {
	lat := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(1), percentile(lat, 0))
	assert.Equal(t, time.Duration(5), percentile(lat, 0.5))
	assert.Equal(t, time.Duration(10), percentile(lat, 1))
	assert.Zero(t, percentile(nil, 0.5))
}
