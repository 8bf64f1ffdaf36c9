package world

import "github.com/annel0/mmo-navgrid/internal/logging"

// Sector грубая прямоугольная область для учёта загрузки.
// Сетка не подгружает и не выгружает тайлы по состоянию секторов -
// это задача внешнего загрузчика. Идентичность сектора - пара (X, Y).
type Sector struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Loaded bool `json:"loaded"`
	Active bool `json:"active"`
}

// RegisterSector добавляет сектор в реестр.
// Повторная регистрация по тем же (x, y) не дедуплицируется: это ошибка
// вызывающего, она логируется, и в реестре остаются обе записи.
func (g *Grid) RegisterSector(x, y, width, height int) {
	sector := Sector{X: x, Y: y, Width: width, Height: height}

	g.mu.Lock()
	duplicate := g.findSector(x, y) >= 0
	g.sectors = append(g.sectors, sector)
	rev := g.revision.Load()
	observer := g.observer
	g.mu.Unlock()

	if duplicate {
		logging.GetWorldLogger().Warn("⚠️ Сектор (%d,%d) зарегистрирован повторно", x, y)
	}
	notify(observer, GridEvent{Type: EventSectorRegistered, Revision: rev, Sector: &sector})
}

// LoadSector помечает все сектора с координатами (x, y) загруженными и активными
func (g *Grid) LoadSector(x, y int) bool {
	return g.toggleSector(x, y, true, EventSectorLoaded)
}

// UnloadSector снимает флаги загрузки и активности с секторов (x, y)
func (g *Grid) UnloadSector(x, y int) bool {
	return g.toggleSector(x, y, false, EventSectorUnloaded)
}

// Sectors возвращает копию реестра в порядке регистрации
func (g *Grid) Sectors() []Sector {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Sector, len(g.sectors))
	copy(out, g.sectors)
	return out
}

// SectorAt возвращает первый сектор, зарегистрированный по (x, y)
func (g *Grid) SectorAt(x, y int) (Sector, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i := g.findSector(x, y)
	if i < 0 {
		return Sector{}, false
	}
	return g.sectors[i], true
}

func (g *Grid) toggleSector(x, y int, loaded bool, evType EventType) bool {
	g.mu.Lock()
	var changed *Sector
	for i := range g.sectors {
		s := &g.sectors[i]
		if s.X != x || s.Y != y {
			continue
		}
		s.Loaded = loaded
		s.Active = loaded
		if changed == nil {
			copied := *s
			changed = &copied
		}
	}
	rev := g.revision.Load()
	observer := g.observer
	g.mu.Unlock()

	if changed == nil {
		return false
	}
	notify(observer, GridEvent{Type: evType, Revision: rev, Sector: changed})
	return true
}

func (g *Grid) findSector(x, y int) int {
	for i, s := range g.sectors {
		if s.X == x && s.Y == y {
			return i
		}
	}
	return -1
}
