package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/annel0/mmo-navgrid/internal/pathfind"
	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// TileDTO JSON-представление тайла. JSON не умеет +Inf, поэтому
// бесконечная стоимость передаётся как cost=null.
type TileDTO struct {
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Layer     int           `json:"layer"`
	Blocked   bool          `json:"blocked"`
	Navigable bool          `json:"navigable"`
	Cost      *float64      `json:"cost"`
	World     vec.Vec2Float `json:"world"`
}

func newTileDTO(x, y int, rec world.TileRecord) TileDTO {
	dto := TileDTO{
		X:         x,
		Y:         y,
		Layer:     int(rec.Layer),
		Blocked:   rec.Blocked,
		Navigable: rec.Navigable,
		World:     rec.World,
	}
	if !math.IsInf(rec.Cost, 0) {
		cost := rec.Cost
		dto.Cost = &cost
	}
	return dto
}

// TileUpdateRequest тело PUT /api/tiles. Пустая стоимость означает +Inf.
type TileUpdateRequest struct {
	Blocked   bool     `json:"blocked"`
	Navigable bool     `json:"navigable"`
	Cost      *float64 `json:"cost"`
}

func (r TileUpdateRequest) record() world.TileRecord {
	cost := math.Inf(1)
	if r.Cost != nil {
		cost = *r.Cost
	}
	return world.TileRecord{Blocked: r.Blocked, Navigable: r.Navigable, Cost: cost}
}

// CollisionRequest тело POST /api/collision; без layer - активный слой
type CollisionRequest struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Layer   *int `json:"layer"`
	Blocked bool `json:"blocked"`
}

// NavigableRequest тело POST /api/navigable (активный слой)
type NavigableRequest struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Navigable bool    `json:"navigable"`
	Cost      float64 `json:"cost"`
}

// PathRequest тело POST /api/path; без layer - активный слой
type PathRequest struct {
	Start         vec.Vec2 `json:"start"`
	Goal          vec.Vec2 `json:"goal"`
	Layer         *int     `json:"layer"`
	MaxIterations int      `json:"max_iterations"`
}

// PathResponse результат поиска пути
type PathResponse struct {
	Found      bool            `json:"found"`
	Status     string          `json:"status"`
	Waypoints  []vec.Vec2Float `json:"waypoints"`
	Cells      []vec.Vec2      `json:"cells"`
	Costs      []float64       `json:"costs"`
	TotalCost  float64         `json:"total_cost"`
	Iterations int             `json:"iterations"`
}

func newPathResponse(res pathfind.Result) PathResponse {
	return PathResponse{
		Found:      res.Found(),
		Status:     res.Status.String(),
		Waypoints:  res.Waypoints,
		Cells:      res.Cells,
		Costs:      res.Costs,
		TotalCost:  res.TotalCost,
		Iterations: res.Iterations,
	}
}

// SectorRequest тело запросов к секторам
type SectorRequest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// parseLayer принимает номер слоя или условное имя (ground, sky, ...)
func parseLayer(s string) (world.Layer, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return world.Layer(n), nil
	}
	name := strings.ToLower(strings.TrimSpace(s))
	for l := world.LayerGround; l < world.ConventionalLayers; l++ {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func parseFloat(s, name string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	return f, nil
}
