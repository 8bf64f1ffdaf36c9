package world

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/vec"
)

// Ошибки инициализации сетки
var (
	ErrInvalidDimensions = errors.New("grid width and height must be positive")
	ErrInvalidCellSize   = errors.New("cell width and height must be positive")
	ErrInvalidLayerCount = errors.New("layer count must be positive")
)

// GridOptions параметры Initialize
type GridOptions struct {
	Width      int
	Height     int
	Projection projection.Kind
	CellW      float64
	CellH      float64
	Layers     int
	OffsetX    float64
	OffsetY    float64
}

// Grid многослойная сетка тайлов фиксированного размера.
//
// Все публичные методы берут внутренний RWMutex. Поиск пути читает сетку
// через Read под одной блокировкой на весь поиск.
type Grid struct {
	mu sync.RWMutex

	width     int
	height    int
	numLayers int
	proj      projection.Projection

	// planes[layer][y*width+x]
	planes [][]TileRecord
	// cheap[layer] число ячеек со стоимостью меньше DefaultCost
	cheap []int

	activeLayer Layer
	sectors     []Sector

	revision atomic.Uint64
	observer Observer
}

var defaultProjection = projection.New(projection.Orthogonal, 1, 1, 0, 0)

// NewGrid создаёт пустую сетку. Перед использованием нужен Initialize.
func NewGrid() *Grid {
	return &Grid{proj: defaultProjection}
}

// SetObserver устанавливает получателя событий сетки (nil - отключить)
func (g *Grid) SetObserver(o Observer) {
	g.mu.Lock()
	g.observer = o
	g.mu.Unlock()
}

// Initialize выделяет numLayers × height × width записей и кэширует их
// мировые позиции. Предыдущее содержимое и реестр секторов сбрасываются.
func (g *Grid) Initialize(opts GridOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("initialize %dx%d: %w", opts.Width, opts.Height, ErrInvalidDimensions)
	}
	if !(opts.CellW > 0) || !(opts.CellH > 0) {
		return fmt.Errorf("initialize cell %vx%v: %w", opts.CellW, opts.CellH, ErrInvalidCellSize)
	}
	if opts.Layers <= 0 {
		return fmt.Errorf("initialize %d layers: %w", opts.Layers, ErrInvalidLayerCount)
	}
	if !opts.Projection.Valid() {
		return fmt.Errorf("initialize: %w: %d", projection.ErrUnknownKind, opts.Projection)
	}

	proj := projection.New(opts.Projection, opts.CellW, opts.CellH, opts.OffsetX, opts.OffsetY)

	planes := make([][]TileRecord, opts.Layers)
	for l := range planes {
		plane := make([]TileRecord, opts.Width*opts.Height)
		for y := 0; y < opts.Height; y++ {
			for x := 0; x < opts.Width; x++ {
				plane[y*opts.Width+x] = TileRecord{
					Navigable: true,
					Cost:      DefaultCost,
					World:     proj.GridToWorld(vec.Vec2{X: x, Y: y}),
					Layer:     Layer(l),
				}
			}
		}
		planes[l] = plane
	}

	g.mu.Lock()
	g.width = opts.Width
	g.height = opts.Height
	g.numLayers = opts.Layers
	g.proj = proj
	g.planes = planes
	g.cheap = make([]int, opts.Layers)
	g.activeLayer = LayerGround
	g.sectors = nil
	rev := g.revision.Add(1)
	observer := g.observer
	g.mu.Unlock()

	logging.GetWorldLogger().Info("🗺️ Сетка инициализирована: %dx%d, слоёв=%d, проекция=%s, ячейка=%vx%v",
		opts.Width, opts.Height, opts.Layers, opts.Projection, opts.CellW, opts.CellH)

	notify(observer, GridEvent{
		Type:       EventGridInitialized,
		Revision:   rev,
		Width:      opts.Width,
		Height:     opts.Height,
		Layers:     opts.Layers,
		Projection: opts.Projection,
	})
	return nil
}

// Clear освобождает все слои и сектора, размеры сбрасываются в ноль
func (g *Grid) Clear() {
	g.mu.Lock()
	g.width = 0
	g.height = 0
	g.numLayers = 0
	g.proj = defaultProjection
	g.planes = nil
	g.cheap = nil
	g.activeLayer = LayerGround
	g.sectors = nil
	rev := g.revision.Add(1)
	observer := g.observer
	g.mu.Unlock()

	logging.GetWorldLogger().Info("🧹 Сетка очищена")
	notify(observer, GridEvent{Type: EventGridCleared, Revision: rev})
}

// Width возвращает ширину сетки в ячейках
func (g *Grid) Width() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.width
}

// Height возвращает высоту сетки в ячейках
func (g *Grid) Height() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.height
}

// NumLayers возвращает количество слоёв
func (g *Grid) NumLayers() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.numLayers
}

// Projection возвращает параметры проекции сетки
func (g *Grid) Projection() projection.Projection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.proj
}

// Revision монотонный счётчик изменений тайлов.
// Увеличивается при Initialize, Clear и каждой успешной записи.
func (g *Grid) Revision() uint64 {
	return g.revision.Load()
}

// InBounds проверяет, что ячейка лежит внутри сетки
func (g *Grid) InBounds(x, y int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.inBounds(x, y)
}

// SetActiveLayer выбирает слой для методов без явного слоя
func (g *Grid) SetActiveLayer(layer Layer) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.validLayer(layer) {
		return false
	}
	g.activeLayer = layer
	return true
}

// ActiveLayer возвращает текущий активный слой
func (g *Grid) ActiveLayer() Layer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeLayer
}

// WorldToGrid переводит мировую позицию в координаты ячейки
func (g *Grid) WorldToGrid(w vec.Vec2Float) vec.Vec2 {
	return g.Projection().WorldToGrid(w)
}

// GridToWorld переводит координаты ячейки в мировую позицию
func (g *Grid) GridToWorld(c vec.Vec2) vec.Vec2Float {
	return g.Projection().GridToWorld(c)
}

// GetTileProperties возвращает запись активного слоя
func (g *Grid) GetTileProperties(x, y int) (TileRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tile(x, y, g.activeLayer)
}

// GetTilePropertiesLayer возвращает запись указанного слоя.
// Вне сетки возвращается пустая запись и false.
func (g *Grid) GetTilePropertiesLayer(x, y int, layer Layer) (TileRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tile(x, y, layer)
}

// SetTileProperties записывает свойства ячейки активного слоя
func (g *Grid) SetTileProperties(x, y int, rec TileRecord) bool {
	return g.UpdateActiveTileState(x, y, func(t *TileRecord) {
		t.Blocked = rec.Blocked
		t.Navigable = rec.Navigable
		t.Cost = rec.Cost
	})
}

// SetTilePropertiesLayer записывает свойства ячейки указанного слоя.
// World и Layer принадлежат сетке и из rec не копируются.
// Возвращает false, если запись отброшена (вне сетки или стоимость NaN/отрицательная).
func (g *Grid) SetTilePropertiesLayer(x, y int, layer Layer, rec TileRecord) bool {
	return g.UpdateTileState(x, y, layer, func(t *TileRecord) {
		t.Blocked = rec.Blocked
		t.Navigable = rec.Navigable
		t.Cost = rec.Cost
	})
}

// SetCollision атомарно выставляет Blocked и Navigable = !blocked на активном слое
func (g *Grid) SetCollision(x, y int, blocked bool) bool {
	return g.UpdateActiveTileState(x, y, func(t *TileRecord) {
		t.Blocked = blocked
		t.Navigable = !blocked
	})
}

// SetCollisionLayer то же, что SetCollision, для указанного слоя
func (g *Grid) SetCollisionLayer(x, y int, layer Layer, blocked bool) bool {
	return g.UpdateTileState(x, y, layer, func(t *TileRecord) {
		t.Blocked = blocked
		t.Navigable = !blocked
	})
}

// HasCollision проверяет коллизию на активном слое
func (g *Grid) HasCollision(x, y int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCollision(x, y, g.activeLayer)
}

// HasCollisionLayer возвращает true для любой ячейки или слоя вне сетки
func (g *Grid) HasCollisionLayer(x, y int, layer Layer) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCollision(x, y, layer)
}

// UpdateTileState применяет fn к записи под блокировкой записи.
// Это единственный атомарный путь read-modify-write. World и Layer
// восстанавливаются после fn; если fn оставила некорректную стоимость,
// изменение отбрасывается.
func (g *Grid) UpdateTileState(x, y int, layer Layer, fn func(t *TileRecord)) bool {
	if fn == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updateLocked(x, y, layer, fn)
}

// UpdateActiveTileState как UpdateTileState, но слой берётся активный
// под той же блокировкой, что и запись.
func (g *Grid) UpdateActiveTileState(x, y int, fn func(t *TileRecord)) bool {
	if fn == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.updateLocked(x, y, g.activeLayer, fn)
}

// updateLocked вызывается с g.mu, взятым на запись
func (g *Grid) updateLocked(x, y int, layer Layer, fn func(t *TileRecord)) bool {
	if !g.inBounds(x, y) || !g.validLayer(layer) {
		return false
	}

	idx := y*g.width + x
	orig := g.planes[layer][idx]
	rec := orig
	fn(&rec)

	if !validCost(rec.Cost) {
		return false
	}

	rec.World = orig.World
	rec.Layer = orig.Layer
	g.planes[layer][idx] = rec

	if orig.Cost < DefaultCost {
		g.cheap[layer]--
	}
	if rec.Cost < DefaultCost {
		g.cheap[layer]++
	}
	g.revision.Add(1)
	return true
}

// LayerSnapshot возвращает копию слоя для отрисовки/отладки
func (g *Grid) LayerSnapshot(layer Layer) ([]TileRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.validLayer(layer) {
		return nil, false
	}
	out := make([]TileRecord, len(g.planes[layer]))
	copy(out, g.planes[layer])
	return out, true
}

// Read выполняет fn под одной блокировкой чтения.
// View действителен только внутри fn.
func (g *Grid) Read(fn func(v View)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(View{g: g})
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *Grid) validLayer(layer Layer) bool {
	return layer >= 0 && int(layer) < g.numLayers
}

func (g *Grid) tile(x, y int, layer Layer) (TileRecord, bool) {
	if !g.inBounds(x, y) || !g.validLayer(layer) {
		return emptyTile, false
	}
	return g.planes[layer][y*g.width+x], true
}

func (g *Grid) hasCollision(x, y int, layer Layer) bool {
	rec, ok := g.tile(x, y, layer)
	if !ok {
		return true
	}
	return rec.Blocked
}

func notify(o Observer, ev GridEvent) {
	if o != nil {
		o(ev)
	}
}
