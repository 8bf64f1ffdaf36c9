package world

import "fmt"

// Layer определяет независимую плоскость свойств тайлов поверх одной сетки.
// Сетка сама по себе не придаёт слоям смысла - это только индекс
// 0..NumLayers-1; константы ниже - условные ярлыки.
//
// 0 – LayerGround: поверхность, по которой ходят сущности;
// 1 – LayerSky: летающие юниты;
// 2 – LayerUnderground: пещеры и тоннели;
// 3 – LayerVolume: объёмные зоны (вода, газ).
type Layer int

const (
	LayerGround Layer = iota
	LayerSky
	LayerUnderground
	LayerVolume

	ConventionalLayers // всегда последний: количество условных слоёв
)

// String возвращает ярлык слоя
func (l Layer) String() string {
	switch l {
	case LayerGround:
		return "ground"
	case LayerSky:
		return "sky"
	case LayerUnderground:
		return "underground"
	case LayerVolume:
		return "volume"
	default:
		return fmt.Sprintf("layer%d", int(l))
	}
}
