package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// handleGrid возвращает параметры сетки
func (rs *RestServer) handleGrid(c *gin.Context) {
	proj := rs.grid.Projection()
	respondOK(c, "Параметры сетки", gin.H{
		"width":        rs.grid.Width(),
		"height":       rs.grid.Height(),
		"layers":       rs.grid.NumLayers(),
		"active_layer": int(rs.grid.ActiveLayer()),
		"projection":   proj.Kind.String(),
		"cell_width":   proj.CellW,
		"cell_height":  proj.CellH,
		"offset":       vec.Vec2Float{X: proj.OffsetX, Y: proj.OffsetY},
		"revision":     rs.grid.Revision(),
		"sectors":      len(rs.grid.Sectors()),
	})
}

// handleLayer возвращает копию слоя целиком
func (rs *RestServer) handleLayer(c *gin.Context) {
	layer, err := parseLayer(c.Param("layer"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, ok := rs.grid.LayerSnapshot(layer)
	if !ok {
		respondError(c, http.StatusNotFound, "Слой не существует")
		return
	}

	width := rs.grid.Width()
	tiles := make([]TileDTO, len(snapshot))
	for i, rec := range snapshot {
		cell := vec.FromIndex(i, width)
		tiles[i] = newTileDTO(cell.X, cell.Y, rec)
	}
	respondOK(c, "Слой получен", gin.H{
		"layer":  int(layer),
		"width":  width,
		"height": rs.grid.Height(),
		"tiles":  tiles,
	})
}

// handleActivateLayer делает слой активным
func (rs *RestServer) handleActivateLayer(c *gin.Context) {
	layer, err := parseLayer(c.Param("layer"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !rs.grid.SetActiveLayer(layer) {
		respondError(c, http.StatusNotFound, "Слой не существует")
		return
	}
	respondOK(c, "Активный слой изменён", gin.H{"active_layer": int(layer)})
}

// tileParams разбирает :layer/:x/:y
func tileParams(c *gin.Context) (world.Layer, int, int, bool) {
	layer, err := parseLayer(c.Param("layer"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return 0, 0, 0, false
	}
	x, err := parseInt(c.Param("x"), "x")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return 0, 0, 0, false
	}
	y, err := parseInt(c.Param("y"), "y")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return 0, 0, 0, false
	}
	return layer, x, y, true
}

// handleGetTile возвращает свойства одной ячейки
func (rs *RestServer) handleGetTile(c *gin.Context) {
	layer, x, y, ok := tileParams(c)
	if !ok {
		return
	}
	rec, found := rs.grid.GetTilePropertiesLayer(x, y, layer)
	if !found {
		respondError(c, http.StatusNotFound, "Ячейка вне сетки")
		return
	}
	respondOK(c, "Ячейка получена", newTileDTO(x, y, rec))
}

// handlePutTile перезаписывает флаги и стоимость ячейки
func (rs *RestServer) handlePutTile(c *gin.Context) {
	layer, x, y, ok := tileParams(c)
	if !ok {
		return
	}
	var req TileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Неверный JSON")
		return
	}

	if !rs.grid.SetTilePropertiesLayer(x, y, layer, req.record()) {
		respondError(c, http.StatusBadRequest, "Запись отклонена: ячейка вне сетки или стоимость недопустима")
		return
	}
	rec, _ := rs.grid.GetTilePropertiesLayer(x, y, layer)
	respondOK(c, "Ячейка обновлена", newTileDTO(x, y, rec))
}

// handleCollision выставляет или снимает коллизию (Navigable = !blocked)
func (rs *RestServer) handleCollision(c *gin.Context) {
	var req CollisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Неверный JSON")
		return
	}

	layer := rs.grid.ActiveLayer()
	if req.Layer != nil {
		layer = world.Layer(*req.Layer)
	}
	if !rs.grid.SetCollisionLayer(req.X, req.Y, layer, req.Blocked) {
		respondError(c, http.StatusBadRequest, "Ячейка вне сетки")
		return
	}
	respondOK(c, "Коллизия обновлена", gin.H{"blocked": req.Blocked, "layer": int(layer)})
}

// handleNavigable задаёт проходимость и стоимость на активном слое
func (rs *RestServer) handleNavigable(c *gin.Context) {
	var req NavigableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Неверный JSON")
		return
	}
	if !rs.navigator.SetNavigable(req.X, req.Y, req.Navigable, req.Cost) {
		respondError(c, http.StatusBadRequest, "Запись отклонена: ячейка вне сетки или стоимость недопустима")
		return
	}
	respondOK(c, "Проходимость обновлена", gin.H{"navigable": rs.navigator.IsNavigable(req.X, req.Y)})
}

// handleWorldToGrid переводит мировую точку в ячейку
func (rs *RestServer) handleWorldToGrid(c *gin.Context) {
	x, err := parseFloat(c.Query("x"), "x")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	y, err := parseFloat(c.Query("y"), "y")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	cell := rs.grid.WorldToGrid(vec.Vec2Float{X: x, Y: y})
	respondOK(c, "Ячейка вычислена", gin.H{
		"cell":      cell,
		"in_bounds": rs.grid.InBounds(cell.X, cell.Y),
	})
}

// handleGridToWorld переводит ячейку в мировую точку
func (rs *RestServer) handleGridToWorld(c *gin.Context) {
	x, err := parseInt(c.Query("x"), "x")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	y, err := parseInt(c.Query("y"), "y")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	respondOK(c, "Мировая точка вычислена", gin.H{
		"world":     rs.grid.GridToWorld(vec.Vec2{X: x, Y: y}),
		"in_bounds": rs.grid.InBounds(x, y),
	})
}
