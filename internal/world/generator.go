package world

import (
	"github.com/annel0/mmo-navgrid/internal/logging"
	"github.com/annel0/mmo-navgrid/internal/util"
)

// CostGenerator заполняет стоимости прохода слоя по шуму Перлина.
// Используется для демонстрационных и нагрузочных карт; данные уровня
// приходят от внешнего загрузчика.
type CostGenerator struct {
	Seed           int64   // Сид для генерации шума
	NoiseScale     float64 // Масштаб шума (меньше - крупнее пятна)
	MaxCost        float64 // Стоимость при шуме = 1
	BlockThreshold float64 // Шум >= порога блокирует ячейку; 0 - не блокировать
}

// NewCostGenerator создаёт генератор с настройками по умолчанию
func NewCostGenerator(seed int64) *CostGenerator {
	return &CostGenerator{
		Seed:           seed,
		NoiseScale:     0.08,
		MaxCost:        4.0,
		BlockThreshold: 0.78,
	}
}

// Apply перезаписывает стоимость и флаги всех ячеек слоя.
// cost = 1 + noise*(MaxCost-1). Возвращает число заблокированных ячеек.
func (cg *CostGenerator) Apply(g *Grid, layer Layer) int {
	noise := util.NewNoise2D(cg.Seed)
	maxCost := cg.MaxCost
	if maxCost < DefaultCost {
		maxCost = DefaultCost
	}

	width, height := g.Width(), g.Height()
	blocked := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			n := noise.Sample(float64(x)*cg.NoiseScale, float64(y)*cg.NoiseScale)
			wall := cg.BlockThreshold > 0 && n >= cg.BlockThreshold

			ok := g.UpdateTileState(x, y, layer, func(t *TileRecord) {
				t.Blocked = wall
				t.Navigable = !wall
				t.Cost = DefaultCost + n*(maxCost-DefaultCost)
			})
			if ok && wall {
				blocked++
			}
		}
	}

	logging.GetWorldLogger().Debug("Генерация стоимостей: слой=%s seed=%d заблокировано=%d из %d",
		layer, cg.Seed, blocked, width*height)
	return blocked
}
