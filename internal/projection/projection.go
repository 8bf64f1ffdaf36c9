// Package projection отображает ячейки сетки в мировые координаты и обратно
// для трёх геометрий тайлов: ортогональной, изометрической (ромб) и
// гексагональной в осевых координатах (pointy-top).
package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/annel0/mmo-navgrid/internal/vec"
)

// Kind определяет схему проекции. Фиксируется при инициализации сетки.
type Kind uint8

const (
	Orthogonal Kind = iota
	Isometric
	HexAxial
)

// ErrUnknownKind возвращается при разборе неизвестного имени проекции
var ErrUnknownKind = errors.New("unknown projection kind")

// String возвращает строковое представление проекции
func (k Kind) String() string {
	switch k {
	case Orthogonal:
		return "orthogonal"
	case Isometric:
		return "isometric"
	case HexAxial:
		return "hex_axial"
	default:
		return "unknown"
	}
}

// Valid проверяет, что значение входит в закрытый набор проекций
func (k Kind) Valid() bool {
	return k <= HexAxial
}

// ParseKind разбирает имя проекции из конфигурации
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orthogonal", "ortho", "":
		return Orthogonal, nil
	case "isometric", "iso":
		return Isometric, nil
	case "hex", "hex_axial", "hexaxial", "axial":
		return HexAxial, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

const sqrt3 = 1.7320508075688772

// snapEpsilon поглощает ошибку округления на границах ячеек изометрии,
// иначе вершина ромба может уйти в соседнюю ячейку.
const snapEpsilon = 1e-9

// Порядок соседей фиксирован: от него зависит разрешение равенств fCost.
var (
	cardinalOffsets = []vec.Vec2{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}
	hexOffsets      = []vec.Vec2{{X: 1, Y: 0}, {X: 1, Y: -1}, {X: 0, Y: -1}, {X: -1, Y: 0}, {X: -1, Y: 1}, {X: 0, Y: 1}}
)

// Projection хранит параметры проекции. Значение неизменяемо и безопасно
// для конкурентного использования.
type Projection struct {
	Kind    Kind
	CellW   float64 // Ширина ячейки (для гексов - радиус по X)
	CellH   float64 // Высота ячейки (для гексов - радиус по Y)
	OffsetX float64 // Смещение начала координат
	OffsetY float64
}

// New создаёт проекцию с указанными параметрами
func New(kind Kind, cellW, cellH, offsetX, offsetY float64) Projection {
	return Projection{
		Kind:    kind,
		CellW:   cellW,
		CellH:   cellH,
		OffsetX: offsetX,
		OffsetY: offsetY,
	}
}

// GridToWorld возвращает мировую позицию ячейки.
// Для ортогональной сетки это центр ячейки, для изометрии - верхняя вершина
// ромба, для гексов - центр шестиугольника.
func (p Projection) GridToWorld(g vec.Vec2) vec.Vec2Float {
	gx, gy := float64(g.X), float64(g.Y)

	var w vec.Vec2Float
	switch p.Kind {
	case Isometric:
		w.X = (gx - gy) * p.CellW / 2
		w.Y = (gx + gy) * p.CellH / 2
	case HexAxial:
		w.X = p.CellW * (sqrt3*gx + sqrt3/2*gy)
		w.Y = p.CellH * (1.5 * gy)
	default:
		w.X = (gx + 0.5) * p.CellW
		w.Y = (gy + 0.5) * p.CellH
	}

	w.X += p.OffsetX
	w.Y += p.OffsetY
	return w
}

// WorldToGrid возвращает ячейку, содержащую мировую точку.
// Смещение вычитается до обратного преобразования, поэтому
// WorldToGrid(GridToWorld(g)) == g при любом смещении.
func (p Projection) WorldToGrid(w vec.Vec2Float) vec.Vec2 {
	x := w.X - p.OffsetX
	y := w.Y - p.OffsetY

	switch p.Kind {
	case Isometric:
		isoX := x / (p.CellW / 2)
		isoY := y / (p.CellH / 2)
		return vec.Vec2{
			X: int(math.Floor((isoX+isoY)/2 + snapEpsilon)),
			Y: int(math.Floor((isoY-isoX)/2 + snapEpsilon)),
		}
	case HexAxial:
		q := x/(p.CellW*sqrt3) - y/(3*p.CellH)
		r := 2.0 / 3.0 * y / p.CellH
		cx, _, cz := CubeRound(q, -q-r, r)
		return vec.Vec2{X: cx, Y: cz}
	default:
		return vec.Vec2{
			X: int(math.Floor(x / p.CellW)),
			Y: int(math.Floor(y / p.CellH)),
		}
	}
}

// CubeRound округляет дробные кубические координаты гекса.
// Ось с наибольшей ошибкой округления пересчитывается из двух других,
// так что x+y+z == 0 выполняется точно.
func CubeRound(x, y, z float64) (int, int, int) {
	rx := math.Round(x)
	ry := math.Round(y)
	rz := math.Round(z)

	dx := math.Abs(rx - x)
	dy := math.Abs(ry - y)
	dz := math.Abs(rz - z)

	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}

	return int(rx), int(ry), int(rz)
}

// Heuristic оценивает стоимость пути между ячейками.
// Манхэттен для ортогональной сетки, Чебышёв для изометрии,
// гексагональное расстояние для осевых координат.
func (p Projection) Heuristic(a, b vec.Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y

	switch p.Kind {
	case Isometric:
		return float64(max(abs(dx), abs(dy)))
	case HexAxial:
		return float64(abs(dx)+abs(dx+dy)+abs(dy)) / 2
	default:
		return float64(abs(dx) + abs(dy))
	}
}

// Offsets возвращает смещения соседей в фиксированном порядке.
// Срез общий - изменять его нельзя.
func (p Projection) Offsets() []vec.Vec2 {
	if p.Kind == HexAxial {
		return hexOffsets
	}
	return cardinalOffsets
}

// Neighbors возвращает соседей ячейки без проверки границ
func (p Projection) Neighbors(c vec.Vec2) []vec.Vec2 {
	return p.AppendNeighbors(make([]vec.Vec2, 0, 6), c)
}

// AppendNeighbors дописывает соседей ячейки в dst без выделения памяти
func (p Projection) AppendNeighbors(dst []vec.Vec2, c vec.Vec2) []vec.Vec2 {
	for _, off := range p.Offsets() {
		dst = append(dst, c.Add(off))
	}
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
