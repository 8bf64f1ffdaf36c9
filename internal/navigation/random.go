package navigation

import (
	"math"

	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// GetRandomNavigablePoint выбирает точку в круге на активном слое
func (n *Navigator) GetRandomNavigablePoint(center vec.Vec2Float, radius float64, maxAttempts int) (vec.Vec2Float, bool) {
	return n.GetRandomNavigablePointLayer(center, radius, maxAttempts, n.grid.ActiveLayer())
}

// GetRandomNavigablePointLayer выборка с отклонением: точка берётся равномерно
// по площади круга (угол в [0, 2π), радиус radius*sqrt(u)) и принимается,
// если её ячейка лежит в сетке и проходима. Возвращается сама мировая точка.
// После maxAttempts неудачных попыток возвращает false.
func (n *Navigator) GetRandomNavigablePointLayer(center vec.Vec2Float, radius float64, maxAttempts int, layer world.Layer) (vec.Vec2Float, bool) {
	if maxAttempts <= 0 || !(radius >= 0) || math.IsInf(radius, 0) || !center.IsFinite() {
		return vec.Vec2Float{}, false
	}

	proj := n.grid.Projection()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		angle, u := n.sample()
		r := radius * math.Sqrt(u)
		p := center.Add(vec.FromPolar(angle, r))

		cell := proj.WorldToGrid(p)
		if n.IsNavigableLayer(cell.X, cell.Y, layer) {
			n.metrics.observeRandomPoint(attempt, true)
			return p, true
		}
	}

	n.metrics.observeRandomPoint(maxAttempts, false)
	return vec.Vec2Float{}, false
}

func (n *Navigator) sample() (angle, u float64) {
	n.rngMu.Lock()
	defer n.rngMu.Unlock()
	return n.rng.Float64() * 2 * math.Pi, n.rng.Float64()
}
