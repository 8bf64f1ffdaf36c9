package world

import (
	"math"

	"github.com/annel0/mmo-navgrid/internal/projection"
)

// View доступ к сетке без блокировок внутри Grid.Read
type View struct {
	g *Grid
}

// Width ширина сетки
func (v View) Width() int { return v.g.width }

// Height высота сетки
func (v View) Height() int { return v.g.height }

// Projection проекция сетки
func (v View) Projection() projection.Projection { return v.g.proj }

// Revision ревизия сетки, согласованная с данными под блокировкой
func (v View) Revision() uint64 { return v.g.revision.Load() }

// Layer возвращает представление одного слоя. Для несуществующего слоя
// все ячейки непроходимы.
func (v View) Layer(layer Layer) LayerView {
	lv := LayerView{width: v.g.width, height: v.g.height, proj: v.g.proj}
	if v.g.validLayer(layer) {
		lv.plane = v.g.planes[layer]
		lv.cheap = v.g.cheap[layer]
	}
	return lv
}

// LayerView один слой сетки, привязанный к блокировке чтения
type LayerView struct {
	width  int
	height int
	proj   projection.Projection
	plane  []TileRecord
	cheap  int
}

func (lv LayerView) Width() int                        { return lv.width }
func (lv LayerView) Height() int                       { return lv.height }
func (lv LayerView) Projection() projection.Projection { return lv.proj }

// InBounds проверяет ячейку и наличие слоя
func (lv LayerView) InBounds(x, y int) bool {
	return lv.plane != nil && x >= 0 && y >= 0 && x < lv.width && y < lv.height
}

// IsNavigable Navigable && !Blocked; false вне сетки
func (lv LayerView) IsNavigable(x, y int) bool {
	if !lv.InBounds(x, y) {
		return false
	}
	return lv.plane[y*lv.width+x].Walkable()
}

// TraversalCost стоимость ячейки; +Inf вне сетки
func (lv LayerView) TraversalCost(x, y int) float64 {
	if !lv.InBounds(x, y) {
		return math.Inf(1)
	}
	return lv.plane[y*lv.width+x].Cost
}

// MinTraversalCost нижняя граница стоимости входа в проходимую ячейку.
// Пока в слое нет ячеек дешевле DefaultCost, слой не сканируется.
func (lv LayerView) MinTraversalCost() float64 {
	if lv.cheap == 0 {
		return DefaultCost
	}
	lowest := DefaultCost
	for _, rec := range lv.plane {
		if rec.Walkable() && rec.Cost < lowest {
			lowest = rec.Cost
		}
	}
	return lowest
}
