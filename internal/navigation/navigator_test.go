package navigation

import (
	"context"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/annel0/mmo-navgrid/internal/cache"
	"github.com/annel0/mmo-navgrid/internal/pathfind"
	"github.com/annel0/mmo-navgrid/internal/physics"
	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

func newTestGrid(t *testing.T, w, h, layers int, kind projection.Kind) *world.Grid {
	t.Helper()
	g := world.NewGrid()
	require.NoError(t, g.Initialize(world.GridOptions{
		Width:      w,
		Height:     h,
		Projection: kind,
		CellW:      32,
		CellH:      32,
		Layers:     layers,
	}))
	return g
}

func TestDegeneratePath(t *testing.T) {
	g := newTestGrid(t, 8, 8, 1, projection.Orthogonal)
	nav := New(g)

	path, ok := nav.FindPath(vec.Vec2{X: 3, Y: 3}, vec.Vec2{X: 3, Y: 3}, 100)
	require.True(t, ok)
	require.Len(t, path, 1)
	assert.Equal(t, g.GridToWorld(vec.Vec2{X: 3, Y: 3}), path[0])
	assert.Equal(t, vec.Vec2Float{X: 112, Y: 112}, path[0])
}

func TestFailClosedQueries(t *testing.T) {
	g := newTestGrid(t, 4, 4, 2, projection.Isometric)
	nav := New(g)

	outside := []vec.Vec2{{X: -1, Y: 0}, {X: 0, Y: -1}, {X: 4, Y: 0}, {X: 0, Y: 4}, {X: 100, Y: 100}}
	layers := []world.Layer{world.LayerGround, world.LayerSky, world.Layer(-1), world.Layer(2), world.Layer(99)}

	for _, c := range outside {
		for _, l := range layers {
			assert.False(t, nav.IsNavigableLayer(c.X, c.Y, l), "%v layer %d", c, l)
			assert.True(t, math.IsInf(nav.GetTraversalCostLayer(c.X, c.Y, l), 1))
			assert.True(t, g.HasCollisionLayer(c.X, c.Y, l))
		}
		assert.False(t, nav.IsNavigable(c.X, c.Y))
	}

	// Внутри сетки, но на несуществующем слое
	assert.False(t, nav.IsNavigableLayer(1, 1, world.Layer(5)))
	assert.True(t, math.IsInf(nav.GetTraversalCostLayer(1, 1, world.Layer(5)), 1))

	assert.True(t, nav.IsNavigable(1, 1))
	assert.Equal(t, world.DefaultCost, nav.GetTraversalCost(1, 1))
}

func TestSetNavigable(t *testing.T) {
	g := newTestGrid(t, 4, 4, 2, projection.Orthogonal)
	nav := New(g)

	require.True(t, nav.SetNavigable(1, 1, false, 3.5))
	assert.False(t, nav.IsNavigable(1, 1))
	assert.Equal(t, 3.5, nav.GetTraversalCost(1, 1))
	assert.False(t, g.HasCollision(1, 1), "SetNavigable leaves the blocked flag alone")

	assert.False(t, nav.SetNavigable(1, 1, true, -1))
	assert.False(t, nav.SetNavigable(1, 1, true, math.NaN()))
	assert.Equal(t, 3.5, nav.GetTraversalCost(1, 1))

	assert.False(t, nav.SetNavigable(9, 9, true, 1))

	// Активный слой переключает цель записи
	require.True(t, g.SetActiveLayer(world.LayerSky))
	require.True(t, nav.SetNavigable(2, 2, false, 1))
	assert.False(t, nav.IsNavigableLayer(2, 2, world.LayerSky))
	assert.True(t, nav.IsNavigableLayer(2, 2, world.LayerGround))
}

func TestWallSeparatesStartAndGoal(t *testing.T) {
	g := newTestGrid(t, 6, 6, 1, projection.Orthogonal)
	nav := New(g)
	for y := 0; y < 6; y++ {
		require.True(t, nav.SetCollision(3, y, true))
	}

	path, ok := nav.FindPath(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 5, Y: 5}, 10000)
	assert.False(t, ok)
	assert.Empty(t, path)

	res := nav.FindPathContext(context.Background(), PathRequest{Start: vec.Vec2{X: 0, Y: 0}, Goal: vec.Vec2{X: 5, Y: 5}})
	assert.Equal(t, pathfind.StatusExhausted, res.Status)
}

func TestIterationCapOnOpenGrid(t *testing.T) {
	g := newTestGrid(t, 100, 100, 1, projection.Orthogonal)
	nav := New(g)
	start, goal := vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 99, Y: 99}

	_, ok := nav.FindPath(start, goal, 50)
	assert.False(t, ok)

	path, ok := nav.FindPath(start, goal, 50000)
	require.True(t, ok)
	assert.Len(t, path, 199)
}

func TestDetourIsCostOptimal(t *testing.T) {
	g := newTestGrid(t, 5, 5, 1, projection.Orthogonal)
	nav := New(g)
	for y := 0; y <= 3; y++ {
		require.True(t, nav.SetCollision(2, y, true))
	}

	res := nav.FindPathContext(context.Background(), PathRequest{Start: vec.Vec2{X: 0, Y: 2}, Goal: vec.Vec2{X: 4, Y: 2}})
	require.True(t, res.Found())
	assert.Len(t, res.Waypoints, 9)
	assert.Contains(t, res.Cells, vec.Vec2{X: 2, Y: 4})
	for i := 1; i < len(res.Costs); i++ {
		assert.Greater(t, res.Costs[i], res.Costs[i-1])
	}
	for i, c := range res.Cells {
		assert.Equal(t, g.GridToWorld(c), res.Waypoints[i])
	}
}

func TestSubUnitCostsKeepPathOptimal(t *testing.T) {
	g := newTestGrid(t, 7, 3, 1, projection.Orthogonal)
	nav := New(g)
	for x := 0; x < 7; x++ {
		require.True(t, nav.SetNavigable(x, 0, true, 0.1))
	}

	res := nav.FindPathContext(context.Background(), PathRequest{Start: vec.Vec2{X: 0, Y: 1}, Goal: vec.Vec2{X: 6, Y: 1}})
	require.True(t, res.Found())
	assert.InDelta(t, 1.7, res.TotalCost, 1e-9)
	assert.Equal(t, vec.Vec2{X: 0, Y: 0}, res.Cells[1])
}

func TestFindPathPerLayer(t *testing.T) {
	g := newTestGrid(t, 5, 1, 2, projection.Orthogonal)
	nav := New(g)
	require.True(t, nav.SetCollision(2, 0, true))

	_, ok := nav.FindPathLayer(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 4, Y: 0}, world.LayerGround, 0)
	assert.False(t, ok)

	path, ok := nav.FindPathLayer(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 4, Y: 0}, world.LayerSky, 0)
	require.True(t, ok)
	assert.Len(t, path, 5)

	_, ok = nav.FindPathLayer(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 4, Y: 0}, world.Layer(7), 0)
	assert.False(t, ok)
}

func TestHexPath(t *testing.T) {
	g := newTestGrid(t, 6, 6, 1, projection.HexAxial)
	nav := New(g)

	res := nav.FindPathContext(context.Background(), PathRequest{Start: vec.Vec2{X: 0, Y: 0}, Goal: vec.Vec2{X: 3, Y: 2}})
	require.True(t, res.Found())
	assert.Equal(t, 5.0, res.TotalCost)
	proj := g.Projection()
	for i := 1; i < len(res.Cells); i++ {
		assert.Equal(t, 1.0, proj.Heuristic(res.Cells[i-1], res.Cells[i]))
	}
}

func TestRandomPointContainment(t *testing.T) {
	kinds := []projection.Kind{projection.Orthogonal, projection.Isometric, projection.HexAxial}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			g := newTestGrid(t, 20, 20, 1, kind)
			nav := New(g, WithSeed(7))
			for y := 0; y < 20; y++ {
				for x := 0; x < 20; x += 2 {
					require.True(t, nav.SetCollision(x, y, true))
				}
			}

			center := g.GridToWorld(vec.Vec2{X: 9, Y: 9})
			for _, radius := range []float64{0, 10, 64, 200} {
				for i := 0; i < 100; i++ {
					p, ok := nav.GetRandomNavigablePoint(center, radius, 64)
					if !ok {
						continue
					}
					assert.LessOrEqual(t, p.DistanceSq(center), radius*radius+1e-6)
					cell := g.WorldToGrid(p)
					assert.True(t, g.InBounds(cell.X, cell.Y))
					assert.True(t, nav.IsNavigable(cell.X, cell.Y), "cell %v", cell)
				}
			}
		})
	}
}

func TestRandomPointGivesUp(t *testing.T) {
	g := newTestGrid(t, 3, 3, 1, projection.Orthogonal)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	nav := New(g, WithSeed(1), WithMetrics(m))

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			require.True(t, nav.SetCollision(x, y, true))
		}
	}

	_, ok := nav.GetRandomNavigablePoint(vec.Vec2Float{X: 48, Y: 48}, 40, 25)
	assert.False(t, ok)
	_, ok = nav.GetRandomNavigablePoint(vec.Vec2Float{X: 48, Y: 48}, 40, 0)
	assert.False(t, ok)
	_, ok = nav.GetRandomNavigablePoint(vec.Vec2Float{X: 48, Y: 48}, math.NaN(), 5)
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.randomPoints.WithLabelValues("exhausted")))

	require.True(t, nav.SetCollision(1, 1, false))
	p, ok := nav.GetRandomNavigablePoint(vec.Vec2Float{X: 48, Y: 48}, 0, 1)
	require.True(t, ok)
	assert.Equal(t, vec.Vec2Float{X: 48, Y: 48}, p)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.randomPoints.WithLabelValues("found")))
}

func TestSearchMetrics(t *testing.T) {
	g := newTestGrid(t, 10, 10, 1, projection.Orthogonal)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	nav := New(g, WithMetrics(m))

	_, _ = nav.FindPath(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 9, Y: 9}, 0)
	_, _ = nav.FindPath(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 9, Y: 9}, 3)
	_, _ = nav.FindPath(vec.Vec2{X: -1, Y: 0}, vec.Vec2{X: 9, Y: 9}, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("orthogonal", "found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("orthogonal", "iteration_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("orthogonal", "invalid_endpoint")))

	n, err := testutil.GatherAndCount(reg, "navgrid_path_search_iterations")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPathCache(t *testing.T) {
	g := newTestGrid(t, 10, 10, 1, projection.Orthogonal)
	codec, err := cache.NewCodec(true)
	require.NoError(t, err)
	defer codec.Close()

	repo := cache.NewMemoryCache(&cache.CacheConfig{})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	nav := New(g, WithPathCache(repo, codec, 0), WithMetrics(m), WithInstanceID("node-a"))

	ctx := context.Background()
	req := PathRequest{Start: vec.Vec2{X: 0, Y: 0}, Goal: vec.Vec2{X: 7, Y: 3}}

	first := nav.FindPathContext(ctx, req)
	require.True(t, first.Found())
	second := nav.FindPathContext(ctx, req)
	assert.Equal(t, first, second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("hit")))

	// Любая запись в сетку меняет ревизию и обходит кеш
	require.True(t, nav.SetCollision(5, 5, true))
	third := nav.FindPathContext(ctx, req)
	assert.True(t, third.Found())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("miss")))

	req.MaxIterations = pathfind.DefaultMaxIterations
	key := nav.cacheKey(g.Revision(), req)
	assert.Equal(t, "navgrid:path:node-a:"+strconv.FormatUint(g.Revision(), 10)+":0:0,0:7,3:10000", key)
	ok, err := repo.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFindPathSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	g := newTestGrid(t, 5, 5, 1, projection.Orthogonal)
	nav := New(g, WithTracer(tp.Tracer("test")))

	_, ok := nav.FindPath(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 4, Y: 4}, 0)
	require.True(t, ok)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "navigation.FindPath", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("navgrid.status", "found"))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("navgrid.cached", false))
}

func TestCanOccupy(t *testing.T) {
	g := newTestGrid(t, 8, 8, 1, projection.Orthogonal)
	nav := New(g)
	require.True(t, nav.SetCollision(4, 4, true))

	box := physics.NewBoxCollider(3, 3)
	assert.False(t, nav.CanOccupy(vec.Vec2{X: 4, Y: 4}, box))
	assert.False(t, nav.CanOccupy(vec.Vec2{X: 3, Y: 3}, box))
	assert.True(t, nav.CanOccupy(vec.Vec2{X: 2, Y: 2}, box))
	assert.False(t, nav.CanOccupy(vec.Vec2{X: 0, Y: 0}, box), "footprint outside the grid")
	assert.True(t, nav.CanOccupy(vec.Vec2{X: 0, Y: 0}, nil))
}

func TestConcurrentSearchesAndWrites(t *testing.T) {
	g := newTestGrid(t, 30, 30, 1, projection.Orthogonal)
	nav := New(g, WithSeed(3))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				path, ok := nav.FindPath(vec.Vec2{X: 0, Y: i}, vec.Vec2{X: 29, Y: 29 - i}, 0)
				if ok {
					assert.NotEmpty(t, path)
				}
				_, _ = nav.GetRandomNavigablePoint(vec.Vec2Float{X: 480, Y: 480}, 200, 8)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			nav.SetNavigable(15, j%30, j%2 == 0, 1)
		}
	}()
	wg.Wait()
}
