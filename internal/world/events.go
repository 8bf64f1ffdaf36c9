package world

import "github.com/annel0/mmo-navgrid/internal/projection"

// EventType определяет тип события сетки
type EventType uint8

const (
	EventGridInitialized  EventType = iota // Сетка (пере)инициализирована
	EventGridCleared                       // Сетка очищена
	EventSectorRegistered                  // Зарегистрирован сектор
	EventSectorLoaded                      // Сектор помечен загруженным
	EventSectorUnloaded                    // Сектор помечен выгруженным
)

// String возвращает имя события для шины событий
func (t EventType) String() string {
	switch t {
	case EventGridInitialized:
		return "grid.initialized"
	case EventGridCleared:
		return "grid.cleared"
	case EventSectorRegistered:
		return "sector.registered"
	case EventSectorLoaded:
		return "sector.loaded"
	case EventSectorUnloaded:
		return "sector.unloaded"
	default:
		return "unknown"
	}
}

// ParseEventType обратная операция к EventType.String
func ParseEventType(name string) (EventType, bool) {
	for t := EventGridInitialized; t <= EventSectorUnloaded; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// GridEvent описывает изменение сетки или реестра секторов
type GridEvent struct {
	Type       EventType       `json:"-"`
	Revision   uint64          `json:"revision"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	Layers     int             `json:"layers,omitempty"`
	Projection projection.Kind `json:"projection"`
	Sector     *Sector         `json:"sector,omitempty"`
}

// GetType возвращает тип события
func (e GridEvent) GetType() EventType {
	return e.Type
}

// Observer получает события сетки. Вызывается после снятия блокировки,
// поэтому может безопасно читать сетку.
type Observer func(ev GridEvent)
