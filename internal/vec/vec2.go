package vec

// Vec2 представляет целочисленные координаты ячейки сетки
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Index возвращает линейный индекс ячейки в плоском массиве ширины width
func (v Vec2) Index(width int) int {
	return v.Y*width + v.X
}

// FromIndex восстанавливает координаты ячейки по линейному индексу
func FromIndex(index, width int) Vec2 {
	return Vec2{X: index % width, Y: index / width}
}
