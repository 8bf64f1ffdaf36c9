package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mmo-navgrid/internal/navigation"
	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

const (
	defaultRandomAttempts = 30
	maxRandomAttempts     = 10000
)

// handleFindPath ищет путь. Отсутствие пути не ошибка: 200 и found=false.
func (rs *RestServer) handleFindPath(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Неверный JSON")
		return
	}

	layer := rs.grid.ActiveLayer()
	if req.Layer != nil {
		layer = world.Layer(*req.Layer)
	}

	res := rs.navigator.FindPathContext(c.Request.Context(), navigation.PathRequest{
		Start:         req.Start,
		Goal:          req.Goal,
		Layer:         layer,
		MaxIterations: req.MaxIterations,
	})
	respondOK(c, "Поиск пути завершён", newPathResponse(res))
}

// handleRandomPoint ?x=&y=&radius=[&attempts=][&layer=]
func (rs *RestServer) handleRandomPoint(c *gin.Context) {
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
	radius, err := parseFloat(c.Query("radius"), "radius")
	if err != nil || radius < 0 {
		respondError(c, http.StatusBadRequest, "radius must be a non-negative number")
		return
	}

	attempts := defaultRandomAttempts
	if s := c.Query("attempts"); s != "" {
		if attempts, err = parseInt(s, "attempts"); err != nil || attempts <= 0 || attempts > maxRandomAttempts {
			respondError(c, http.StatusBadRequest, "attempts must be in 1..10000")
			return
		}
	}

	layer := rs.grid.ActiveLayer()
	if s := c.Query("layer"); s != "" {
		if layer, err = parseLayer(s); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	center := vec.Vec2Float{X: x, Y: y}
	p, found := rs.navigator.GetRandomNavigablePointLayer(center, radius, attempts, layer)
	data := gin.H{"found": found}
	if found {
		data["point"] = p
		data["cell"] = rs.grid.WorldToGrid(p)
	}
	respondOK(c, "Выборка завершена", data)
}

// handleListSectors возвращает реестр секторов
func (rs *RestServer) handleListSectors(c *gin.Context) {
	sectors := rs.grid.Sectors()
	if sectors == nil {
		sectors = []world.Sector{}
	}
	respondOK(c, "Список секторов", sectors)
}

// handleRegisterSector регистрирует сектор (выгруженным)
func (rs *RestServer) handleRegisterSector(c *gin.Context) {
	var req SectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Неверный JSON")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		respondError(c, http.StatusBadRequest, "width and height must be positive")
		return
	}

	rs.grid.RegisterSector(req.X, req.Y, req.Width, req.Height)
	sector, _ := rs.grid.SectorAt(req.X, req.Y)
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "Сектор зарегистрирован", Data: sector})
}

func (rs *RestServer) handleLoadSector(c *gin.Context) {
	rs.toggleSector(c, rs.grid.LoadSector, "Сектор загружен")
}

func (rs *RestServer) handleUnloadSector(c *gin.Context) {
	rs.toggleSector(c, rs.grid.UnloadSector, "Сектор выгружен")
}

func (rs *RestServer) toggleSector(c *gin.Context, toggle func(x, y int) bool, msg string) {
	var req SectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Неверный JSON")
		return
	}
	if !toggle(req.X, req.Y) {
		respondError(c, http.StatusNotFound, "Сектор не зарегистрирован")
		return
	}
	sector, _ := rs.grid.SectorAt(req.X, req.Y)
	respondOK(c, msg, sector)
}
