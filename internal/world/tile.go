package world

import (
	"math"

	"github.com/annel0/mmo-navgrid/internal/vec"
)

// TileRecord хранит состояние одной ячейки на одном слое
type TileRecord struct {
	Blocked   bool          `json:"blocked"`
	Navigable bool          `json:"navigable"`
	Cost      float64       `json:"cost"`  // Стоимость прохода, >= 0; +Inf - непроходимо
	World     vec.Vec2Float `json:"world"` // Кэшируется при Initialize, только для чтения
	Layer     Layer         `json:"layer"` // Слой, в котором выделена запись
}

// DefaultCost стоимость прохода ячейки после инициализации
const DefaultCost = 1.0

// emptyTile возвращается для любой ячейки вне сетки
var emptyTile = TileRecord{}

// Walkable сообщает, может ли поиск пути войти в ячейку
func (t TileRecord) Walkable() bool {
	return t.Navigable && !t.Blocked
}

// validCost проверяет инвариант стоимости: не NaN и не отрицательная
func validCost(c float64) bool {
	return !math.IsNaN(c) && c >= 0
}
