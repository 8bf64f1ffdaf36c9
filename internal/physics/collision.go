package physics

import (
	"github.com/annel0/mmo-navgrid/internal/vec"
)

// BoxCollider прямоугольный коллайдер, измеряемый в ячейках сетки
type BoxCollider struct {
	Width  int // Ширина в ячейках
	Height int // Высота в ячейках
}

// NewBoxCollider создаёт коллайдер; размеры меньше 1 приводятся к 1
func NewBoxCollider(width, height int) *BoxCollider {
	return &BoxCollider{
		Width:  max(width, 1),
		Height: max(height, 1),
	}
}

// Bounds возвращает полуоткрытый прямоугольник [min, max) ячеек,
// которые коллайдер занимает с центром в center
func (bc *BoxCollider) Bounds(center vec.Vec2) (minCell, maxCell vec.Vec2) {
	minCell = vec.Vec2{X: center.X - bc.Width/2, Y: center.Y - bc.Height/2}
	maxCell = vec.Vec2{X: minCell.X + bc.Width, Y: minCell.Y + bc.Height}
	return minCell, maxCell
}

// Contains проверяет, попадает ли ячейка в коллайдер с центром в center
func (bc *BoxCollider) Contains(center, cell vec.Vec2) bool {
	lo, hi := bc.Bounds(center)
	return cell.X >= lo.X && cell.X < hi.X && cell.Y >= lo.Y && cell.Y < hi.Y
}

// Overlaps проверяет пересечение двух коллайдеров
func Overlaps(posA vec.Vec2, a *BoxCollider, posB vec.Vec2, b *BoxCollider) bool {
	loA, hiA := a.Bounds(posA)
	loB, hiB := b.Bounds(posB)
	return loA.X < hiB.X && loB.X < hiA.X && loA.Y < hiB.Y && loB.Y < hiA.Y
}

// Footprint возвращает все ячейки, занятые коллайдером, построчно
func Footprint(center vec.Vec2, collider *BoxCollider) []vec.Vec2 {
	lo, hi := collider.Bounds(center)
	cells := make([]vec.Vec2, 0, collider.Width*collider.Height)
	for y := lo.Y; y < hi.Y; y++ {
		for x := lo.X; x < hi.X; x++ {
			cells = append(cells, vec.Vec2{X: x, Y: y})
		}
	}
	return cells
}

// CanMoveToPosition проверяет, может ли коллайдер встать в center.
// isFree вызывается для каждой ячейки следа; первая занятая ячейка
// прерывает проверку.
func CanMoveToPosition(center vec.Vec2, collider *BoxCollider, isFree func(x, y int) bool) bool {
	if collider == nil {
		return isFree(center.X, center.Y)
	}

	lo, hi := collider.Bounds(center)
	for y := lo.Y; y < hi.Y; y++ {
		for x := lo.X; x < hi.X; x++ {
			if !isFree(x, y) {
				return false
			}
		}
	}
	return true
}
