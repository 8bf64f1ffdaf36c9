// Package navigation переводит состояние сетки тайлов в семантику навигации
// и предоставляет точку входа поиска пути.
//
// Navigator не хранит тайлы: каждый запрос читает world.Grid.
package navigation

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/pathfind"
	"github.com/annel0/mmo-navgrid/internal/physics"
	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

const tracerName = "github.com/annel0/mmo-navgrid/internal/navigation"

// PathRequest запрос поиска пути на конкретном слое.
// MaxIterations <= 0 означает лимит навигатора по умолчанию.
type PathRequest struct {
	Start         vec.Vec2    `json:"start"`
	Goal          vec.Vec2    `json:"goal"`
	Layer         world.Layer `json:"layer"`
	MaxIterations int         `json:"max_iterations"`
}

// Navigator фасад навигации над world.Grid.
// Безопасен для конкурентного использования.
type Navigator struct {
	grid *world.Grid

	// Searcher не потокобезопасен, поэтому каждый поиск берёт свой из пула
	searchers sync.Pool

	rngMu sync.Mutex
	rng   *rand.Rand

	defaultMaxIterations int

	metrics *Metrics
	tracer  trace.Tracer

	pathCache *pathCache
	instance  string

	logger *logging.Logger
}

// New создаёт навигатор над grid
func New(grid *world.Grid, opts ...Option) *Navigator {
	n := &Navigator{
		grid:                 grid,
		rng:                  rand.New(rand.NewSource(time.Now().UnixNano())),
		defaultMaxIterations: pathfind.DefaultMaxIterations,
		tracer:               otel.Tracer(tracerName),
		instance:             uuid.NewString(),
		logger:               logging.GetNavigationLogger(),
	}
	n.searchers.New = func() any { return pathfind.NewSearcher() }

	for _, opt := range opts {
		opt(n)
	}
	if n.pathCache != nil {
		n.pathCache.metrics = n.metrics
	}
	return n
}

// Grid возвращает сетку, над которой работает навигатор
func (n *Navigator) Grid() *world.Grid {
	return n.grid
}

// IsNavigable проверяет ячейку активного слоя
func (n *Navigator) IsNavigable(x, y int) bool {
	return n.IsNavigableLayer(x, y, n.grid.ActiveLayer())
}

// IsNavigableLayer Navigable && !Blocked; false вне сетки
func (n *Navigator) IsNavigableLayer(x, y int, layer world.Layer) bool {
	rec, ok := n.grid.GetTilePropertiesLayer(x, y, layer)
	return ok && rec.Walkable()
}

// GetTraversalCost стоимость ячейки активного слоя
func (n *Navigator) GetTraversalCost(x, y int) float64 {
	return n.GetTraversalCostLayer(x, y, n.grid.ActiveLayer())
}

// GetTraversalCostLayer стоимость ячейки; +Inf вне сетки
func (n *Navigator) GetTraversalCostLayer(x, y int, layer world.Layer) float64 {
	rec, ok := n.grid.GetTilePropertiesLayer(x, y, layer)
	if !ok {
		return math.Inf(1)
	}
	return rec.Cost
}

// SetNavigable записывает флаг проходимости и стоимость на активном слое.
// Blocked не меняется. Возвращает false, если ячейка вне сетки
// или стоимость отрицательная/NaN. Стоимости меньше 1 допустимы:
// эвристика поиска масштабируется по минимальной стоимости слоя.
func (n *Navigator) SetNavigable(x, y int, navigable bool, cost float64) bool {
	return n.grid.UpdateActiveTileState(x, y, func(t *world.TileRecord) {
		t.Navigable = navigable
		t.Cost = cost
	})
}

// SetCollision выставляет коллизию на активном слое
func (n *Navigator) SetCollision(x, y int, blocked bool) bool {
	return n.grid.SetCollision(x, y, blocked)
}

// FindPath ищет путь на активном слое и возвращает мировые точки пути
func (n *Navigator) FindPath(start, goal vec.Vec2, maxIterations int) ([]vec.Vec2Float, bool) {
	return n.FindPathLayer(start, goal, n.grid.ActiveLayer(), maxIterations)
}

// FindPathLayer ищет путь на указанном слое
func (n *Navigator) FindPathLayer(start, goal vec.Vec2, layer world.Layer, maxIterations int) ([]vec.Vec2Float, bool) {
	res := n.FindPathContext(context.Background(), PathRequest{
		Start:         start,
		Goal:          goal,
		Layer:         layer,
		MaxIterations: maxIterations,
	})
	if !res.Found() {
		return nil, false
	}
	return res.Waypoints, true
}

// FindPathContext ищет путь с трассировкой, метриками и кешем.
// ctx используется для span'а и кеша; сам поиск не прерывается,
// его ограничивает только лимит итераций.
func (n *Navigator) FindPathContext(ctx context.Context, req PathRequest) pathfind.Result {
	if req.MaxIterations <= 0 {
		req.MaxIterations = n.defaultMaxIterations
	}

	ctx, span := n.tracer.Start(ctx, "navigation.FindPath", trace.WithAttributes(
		attribute.Int("navgrid.layer", int(req.Layer)),
		attribute.IntSlice("navgrid.start", []int{req.Start.X, req.Start.Y}),
		attribute.IntSlice("navgrid.goal", []int{req.Goal.X, req.Goal.Y}),
		attribute.Int("navgrid.max_iterations", req.MaxIterations),
	))
	defer span.End()

	begin := time.Now()
	kind := n.grid.Projection().Kind

	if res, ok := n.pathCache.lookup(ctx, n.cacheKey(n.grid.Revision(), req)); ok {
		n.metrics.observeSearch(kind, res, time.Since(begin), true)
		span.SetAttributes(
			attribute.String("navgrid.status", res.Status.String()),
			attribute.Bool("navgrid.cached", true),
		)
		return res
	}

	var (
		res pathfind.Result
		rev uint64
	)
	searcher := n.searchers.Get().(*pathfind.Searcher)
	n.grid.Read(func(v world.View) {
		rev = v.Revision()
		res = searcher.Search(v.Layer(req.Layer), pathfind.Request{
			Start:         req.Start,
			Goal:          req.Goal,
			MaxIterations: req.MaxIterations,
		})
	})
	n.searchers.Put(searcher)

	elapsed := time.Since(begin)
	n.metrics.observeSearch(kind, res, elapsed, false)
	n.pathCache.store(ctx, n.cacheKey(rev, req), res)

	span.SetAttributes(
		attribute.String("navgrid.status", res.Status.String()),
		attribute.Int("navgrid.iterations", res.Iterations),
		attribute.Int("navgrid.path_length", len(res.Waypoints)),
		attribute.Bool("navgrid.cached", false),
	)

	if res.Status == pathfind.StatusIterationLimit {
		n.logger.Debug("Лимит итераций %d исчерпан: %v -> %v (слой %s, %v)",
			req.MaxIterations, req.Start, req.Goal, req.Layer, elapsed)
	}
	return res
}

// CanOccupy проверяет, что все ячейки коллайдера на активном слое проходимы
func (n *Navigator) CanOccupy(center vec.Vec2, collider *physics.BoxCollider) bool {
	return n.CanOccupyLayer(center, collider, n.grid.ActiveLayer())
}

// CanOccupyLayer проверяет коллайдер на указанном слое под одной блокировкой
func (n *Navigator) CanOccupyLayer(center vec.Vec2, collider *physics.BoxCollider, layer world.Layer) bool {
	var ok bool
	n.grid.Read(func(v world.View) {
		lv := v.Layer(layer)
		ok = physics.CanMoveToPosition(center, collider, lv.IsNavigable)
	})
	return ok
}
