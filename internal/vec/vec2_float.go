package vec

import "math"

// Vec2Float мировая точка. Для изометрии и гексов это экранные координаты
// центра ячейки с учётом смещения начала координат.
type Vec2Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromPolar точка на расстоянии r от нуля под углом angle (радианы)
func FromPolar(angle, r float64) Vec2Float {
	return Vec2Float{X: r * math.Cos(angle), Y: r * math.Sin(angle)}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// DistanceSq квадрат расстояния; без корня для сравнений с радиусом
func (v Vec2Float) DistanceSq(other Vec2Float) float64 {
	dx, dy := v.X-other.X, v.Y-other.Y
	return dx*dx + dy*dy
}

// IsFinite ложно, если хотя бы одна координата NaN или ±Inf
func (v Vec2Float) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
